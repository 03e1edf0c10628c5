package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"docqa-platform/internal/telemetry"
	"docqa-platform/models"
)

// RetrievalEngine ranks a tenant's chunks against a query with lexical
// occurrence scoring. Rows arrive from the store ordered by upload time,
// document and chunk order, and the sort is stable, so equal scores always
// resolve the same way.
type RetrievalEngine struct {
	docs    DocumentStore
	cache   *ChunkCache
	topK    int
	metrics *telemetry.Metrics
}

func NewRetrievalEngine(docs DocumentStore, cache *ChunkCache, topK int, metrics *telemetry.Metrics) *RetrievalEngine {
	return &RetrievalEngine{docs: docs, cache: cache, topK: topK, metrics: metrics}
}

// Search returns up to topK scored chunks for the tenant, best first. Chunks
// with no query word occurrences never appear. An empty index, a query
// matching nothing, or a non-positive topK all yield an empty slice, not an
// error.
func (e *RetrievalEngine) Search(ctx context.Context, tenantID, query string) ([]models.ScoredChunk, error) {
	if e.topK <= 0 {
		return nil, nil
	}
	start := time.Now()

	records, hit := e.cache.Get(ctx, tenantID)
	if !hit {
		var err error
		records, err = e.docs.ChunkRecords(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		e.cache.Set(ctx, tenantID, records)
	}

	scored := ScoreChunks(records, query)
	if len(scored) > e.topK {
		scored = scored[:e.topK]
	}

	if e.metrics != nil {
		e.metrics.RetrievalDuration.Record(ctx, time.Since(start).Seconds())
	}
	return scored, nil
}

// ScoreChunks computes occurrence scores for every record and returns the
// matching ones ordered best first. Scoring is case-insensitive; each query
// word contributes the number of times it occurs in the chunk text.
func ScoreChunks(records []models.ChunkRecord, query string) []models.ScoredChunk {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return nil
	}

	var scored []models.ScoredChunk
	for _, record := range records {
		text := strings.ToLower(record.Text)
		score := 0
		for _, word := range words {
			score += strings.Count(text, word)
		}
		if score > 0 {
			scored = append(scored, models.ScoredChunk{Chunk: record, Score: float64(score)})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// SourceFilenames returns the distinct source filenames in first-seen order.
func SourceFilenames(chunks []models.ScoredChunk) []string {
	seen := make(map[string]bool, len(chunks))
	var sources []string
	for _, sc := range chunks {
		if seen[sc.Chunk.Filename] {
			continue
		}
		seen[sc.Chunk.Filename] = true
		sources = append(sources, sc.Chunk.Filename)
	}
	return sources
}
