package main

import (
	"context"
	"log"

	"docqa-platform/internal/config"
	"docqa-platform/internal/database"
	"docqa-platform/internal/logger"
	"docqa-platform/internal/queue"
	"docqa-platform/internal/telemetry"
	"docqa-platform/services"

	"github.com/hibiken/asynq"
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
	defer mongoClient.Disconnect(context.Background())

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to init metrics:", err)
	}

	db := mongoClient.Database(cfg.DBName)
	retry := database.NewRetryPolicy(cfg.StorageMaxRetries, cfg.StorageRetryBase)
	documentRepo := database.NewDocumentRepo(db, retry)
	statsRepo := database.NewStatsRepo(db, retry, cfg.PopularObjects)

	chunkCache := services.NewChunkCache(rdb, cfg.ChunkCacheTTL)
	chunker := services.NewChunker(cfg.MaxChunkSize, cfg.ChunkOverlap)
	extractor := services.NewExtractor()
	documentService := services.NewDocumentService(documentRepo, statsRepo, extractor, chunker, chunkCache, metrics)

	server := asynq.NewServer(
		queue.RedisOpt(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"ingest":  7,
				"default": 3,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(documentService)
	mux := asynq.NewServeMux()
	processor.Register(mux)

	logger.Info("worker starting", "redis", cfg.RedisURL, "concurrency", 10)
	if err := server.Run(mux); err != nil {
		log.Fatal("Worker stopped:", err)
	}
}
