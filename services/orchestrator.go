package services

import (
	"context"
	"fmt"
	"time"

	"docqa-platform/internal/ai"
	"docqa-platform/internal/logger"
	"docqa-platform/internal/telemetry"
	"docqa-platform/models"
)

// AnswerGenerator produces answer text from a prompt request and reports
// which provider served it. *ai.Chain implements it.
type AnswerGenerator interface {
	GenerateWith(ctx context.Context, req ai.GenerateRequest) (string, string, error)
}

// QueryService answers tenant questions: daily quota, retrieval, context
// assembly, generation and usage accounting, in that order.
type QueryService struct {
	retrieval  *RetrievalEngine
	stats      StatsStore
	generator  AnswerGenerator
	contextMax int
	metrics    *telemetry.Metrics
	now        func() time.Time
}

func NewQueryService(retrieval *RetrievalEngine, stats StatsStore, generator AnswerGenerator, contextMax int, metrics *telemetry.Metrics) *QueryService {
	if contextMax < 1 {
		contextMax = 6000
	}
	return &QueryService{
		retrieval:  retrieval,
		stats:      stats,
		generator:  generator,
		contextMax: contextMax,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Answer runs the full question pipeline for one tenant. The daily quota is
// checked before any retrieval or generation work; a query refused on quota
// is not counted.
func (s *QueryService) Answer(ctx context.Context, tenant *models.Tenant, query string) (*models.Answer, error) {
	now := s.now().UTC()

	stat, err := s.stats.Get(ctx, tenant.TenantID)
	if err != nil {
		return nil, err
	}
	if stat.QueriesOn(now) >= int64(tenant.MaxQueriesPerDay) {
		return nil, fmt.Errorf("%w: daily query limit %d reached", models.ErrQuotaExceeded, tenant.MaxQueriesPerDay)
	}

	chunks, err := s.retrieval.Search(ctx, tenant.TenantID, query)
	if err != nil {
		return nil, err
	}

	// Sources reflect the chunks actually present in the prompt, not every
	// retrieved chunk.
	used := fitContext(chunks, s.contextMax)

	req := ai.GenerateRequest{
		Query:         query,
		ContextChunks: chunkTexts(used),
		CompanyName:   tenant.CompanyName,
		Personality:   tenant.Settings.AIPersonality,
		ResponseStyle: tenant.Settings.ResponseStyle,
	}

	text, provider, err := s.generator.GenerateWith(ctx, req)
	if err != nil {
		if s.metrics != nil {
			s.metrics.GenerationFailures.Add(ctx, 1)
		}
		return nil, err
	}

	if err := s.stats.RecordQuery(ctx, tenant.TenantID, query, now); err != nil {
		logger.Warn("failed to record query stats", "tenant_id", tenant.TenantID, "error", err)
	}

	answer := &models.Answer{
		Text:      text,
		Sources:   SourceFilenames(used),
		Grounded:  len(used) > 0,
		Provider:  provider,
		Timestamp: now,
	}
	s.metrics.RecordQuery(ctx, tenant.TenantID, provider, answer.Grounded)

	logger.Info("query answered",
		"tenant_id", tenant.TenantID,
		"provider", provider,
		"grounded", answer.Grounded,
		"sources", len(answer.Sources))
	return answer, nil
}

// fitContext keeps chunks in rank order until adding another whole chunk
// would push the combined text past maxChars.
func fitContext(chunks []models.ScoredChunk, maxChars int) []models.ScoredChunk {
	var (
		kept  []models.ScoredChunk
		total int
	)
	for _, sc := range chunks {
		addition := len(sc.Chunk.Text)
		if total > 0 {
			addition += 2
		}
		if maxChars > 0 && total+addition > maxChars {
			break
		}
		kept = append(kept, sc)
		total += addition
	}
	return kept
}

func chunkTexts(chunks []models.ScoredChunk) []string {
	texts := make([]string, len(chunks))
	for i, sc := range chunks {
		texts[i] = sc.Chunk.Text
	}
	return texts
}
