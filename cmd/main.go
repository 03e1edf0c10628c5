package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docqa-platform/internal/ai"
	"docqa-platform/internal/auth"
	"docqa-platform/internal/config"
	"docqa-platform/internal/database"
	"docqa-platform/internal/logger"
	"docqa-platform/internal/queue"
	"docqa-platform/internal/telemetry"
	"docqa-platform/routes"
	"docqa-platform/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer(cfg, "docqa-platform")
		if err != nil {
			log.Fatal("Failed to init tracing:", err)
		}
		defer shutdown()
	}
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to init metrics:", err)
	}

	db := mongoClient.Database(cfg.DBName)
	retry := database.NewRetryPolicy(cfg.StorageMaxRetries, cfg.StorageRetryBase)
	tenantRepo := database.NewTenantRepo(db, retry)
	documentRepo := database.NewDocumentRepo(db, retry)
	statsRepo := database.NewStatsRepo(db, retry, cfg.PopularObjects)

	tokens, err := auth.NewTokenService(cfg.AccessSecret, cfg.AdminTokenTTL, rdb)
	if err != nil {
		log.Fatal("Failed to init token service:", err)
	}

	chunkCache := services.NewChunkCache(rdb, cfg.ChunkCacheTTL)
	chunker := services.NewChunker(cfg.MaxChunkSize, cfg.ChunkOverlap)
	extractor := services.NewExtractor()

	tenantService := services.NewTenantService(tenantRepo, statsRepo, rdb)
	documentService := services.NewDocumentService(documentRepo, statsRepo, extractor, chunker, chunkCache, metrics)
	retrieval := services.NewRetrievalEngine(documentRepo, chunkCache, cfg.RetrievalTopK, metrics)

	gemini, err := ai.NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTier)
	if err != nil {
		log.Fatal("Failed to init Gemini provider:", err)
	}
	defer gemini.Close()
	openrouter := ai.NewOpenRouterProvider(cfg.OpenRouterAPIKey, cfg.OpenRouterAPIURL, cfg.OpenRouterModel)
	chain := ai.NewChain(gemini, openrouter, cfg.GenerationTimeout)

	queryService := services.NewQueryService(retrieval, statsRepo, chain, cfg.ContextMaxLen, metrics)

	queueClient := queue.NewClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer queueClient.Close()

	maintenance := services.NewMaintenanceService(statsRepo, cfg.StatsRetentionDays)
	if err := maintenance.Start(); err != nil {
		log.Fatal("Failed to start maintenance scheduler:", err)
	}
	defer maintenance.Stop()

	router := routes.NewRouter(routes.Deps{
		Config:    cfg,
		Mongo:     mongoClient,
		Redis:     rdb,
		Tokens:    tokens,
		Tenants:   tenantService,
		Documents: documentService,
		Queries:   queryService,
		Queue:     queueClient,
		Metrics:   metrics,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("server exited")
}
