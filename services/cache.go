package services

import (
	"context"
	"encoding/json"
	"time"

	"docqa-platform/internal/logger"
	"docqa-platform/models"

	"github.com/redis/go-redis/v9"
)

// ChunkCache is a read-through cache for a tenant's retrieval rows. Cache
// failures degrade to database reads; they never fail a query.
type ChunkCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewChunkCache(rdb *redis.Client, ttl time.Duration) *ChunkCache {
	return &ChunkCache{rdb: rdb, ttl: ttl}
}

func chunkCacheKey(tenantID string) string {
	return "chunks:" + tenantID
}

// Get returns the cached rows for a tenant, or (nil, false) on miss.
func (c *ChunkCache) Get(ctx context.Context, tenantID string) ([]models.ChunkRecord, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	payload, err := c.rdb.Get(ctx, chunkCacheKey(tenantID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("chunk cache read failed", "tenant_id", tenantID, "error", err)
		}
		return nil, false
	}
	var records []models.ChunkRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		logger.Warn("chunk cache payload corrupt, dropping", "tenant_id", tenantID, "error", err)
		c.Invalidate(ctx, tenantID)
		return nil, false
	}
	return records, true
}

// Set stores the tenant's rows with the configured TTL.
func (c *ChunkCache) Set(ctx context.Context, tenantID string, records []models.ChunkRecord) {
	if c == nil || c.rdb == nil {
		return
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, chunkCacheKey(tenantID), payload, c.ttl).Err(); err != nil {
		logger.Warn("chunk cache write failed", "tenant_id", tenantID, "error", err)
	}
}

// Invalidate drops the tenant's cached rows. Called after every ingest,
// delete and purge so retrieval never serves stale chunks past the write.
func (c *ChunkCache) Invalidate(ctx context.Context, tenantID string) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, chunkCacheKey(tenantID)).Err(); err != nil {
		logger.Warn("chunk cache invalidate failed", "tenant_id", tenantID, "error", err)
	}
}
