package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI    string
	DBName      string
	Port        string
	GinMode     string
	CORSOrigins []string

	// Redis
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Admin credentials and token signing
	AccessSecret      string
	AdminUsername     string
	AdminPasswordHash string
	AdminTokenTTL     time.Duration
	BcryptCost        int

	// Generation providers
	GeminiAPIKey      string
	GeminiModel       string
	GeminiTier        string
	OpenRouterAPIKey  string
	OpenRouterAPIURL  string
	OpenRouterModel   string
	GenerationTimeout time.Duration

	// Chunking and retrieval
	MaxChunkSize   int
	ChunkOverlap   int
	RetrievalTopK  int
	ContextMaxLen  int
	PopularObjects int
	ChunkCacheTTL  time.Duration

	// Upload handling
	MaxFileSize          int64
	AsyncUploadThreshold int64
	FileStorageDir       string

	// Storage retry policy
	StorageMaxRetries  int
	StorageRetryBase   time.Duration
	StatsRetentionDays int

	// Per-caller request throttling
	RateLimitReqs   int
	RateLimitWindow int

	// Snapshot migration
	SnapshotDir string

	// Telemetry
	OTLPEndpoint     string
	TracingEnabled   bool
	TraceSampleRatio float64
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/docqa"),
		DBName:      getEnv("DB_NAME", "docqa"),
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AccessSecret:      getEnv("ACCESS_SECRET", ""),
		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		AdminTokenTTL:     getEnvDuration("ADMIN_TOKEN_TTL", 1*time.Hour),
		BcryptCost:        getEnvInt("BCRYPT_COST", 12),

		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTier:        getEnv("GEMINI_TIER", "free"),
		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterAPIURL:  getEnv("OPENROUTER_API_URL", "https://openrouter.ai/api/v1/chat/completions"),
		OpenRouterModel:   getEnv("OPENROUTER_MODEL", "meta-llama/llama-3.2-3b-instruct:free"),
		GenerationTimeout: getEnvDuration("GENERATION_TIMEOUT", 30*time.Second),

		MaxChunkSize:   getEnvInt("MAX_CHUNK_SIZE", 1000),
		ChunkOverlap:   getEnvInt("CHUNK_OVERLAP", 200),
		RetrievalTopK:  getEnvInt("RETRIEVAL_TOP_K", 5),
		ContextMaxLen:  getEnvInt("CONTEXT_MAX_CHARS", 6000),
		PopularObjects: getEnvInt("POPULAR_QUERY_CAP", 10),
		ChunkCacheTTL:  getEnvDuration("CHUNK_CACHE_TTL", 10*time.Minute),

		MaxFileSize:          getEnvInt64("MAX_FILE_SIZE", 104857600),
		AsyncUploadThreshold: getEnvInt64("ASYNC_UPLOAD_THRESHOLD", 20971520),
		FileStorageDir:       getEnv("FILE_STORAGE_DIR", "./storage"),

		StorageMaxRetries:  getEnvInt("STORAGE_MAX_RETRIES", 3),
		StorageRetryBase:   getEnvDuration("STORAGE_RETRY_BASE", 100*time.Millisecond),
		StatsRetentionDays: getEnvInt("STATS_RETENTION_DAYS", 90),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQS", 60),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		SnapshotDir: getEnv("SNAPSHOT_DIR", "./snapshot"),

		OTLPEndpoint:     getEnv("OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled:   getEnvBool("TRACING_ENABLED", false),
		TraceSampleRatio: getEnvFloat64("TRACE_SAMPLE_RATIO", 0.1),
	}

	if cfg.AccessSecret == "" {
		return nil, fmt.Errorf("ACCESS_SECRET is required - set it in .env file")
	}
	if len(cfg.AccessSecret) < 32 {
		return nil, fmt.Errorf("ACCESS_SECRET must be at least 32 characters")
	}
	if cfg.ChunkOverlap >= cfg.MaxChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than MAX_CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.MaxChunkSize)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
