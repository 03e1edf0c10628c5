package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"docqa-platform/models"
)

func queryFixture(t *testing.T, gen *fakeGenerator) (*QueryService, *fakeDocumentStore, *fakeStatsStore) {
	t.Helper()
	docs := newFakeDocumentStore()
	stats := newFakeStatsStore()
	engine := NewRetrievalEngine(docs, nil, 5, nil)
	svc := NewQueryService(engine, stats, gen, 6000, nil)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, docs, stats
}

func TestAnswerGroundedWithSources(t *testing.T) {
	gen := &fakeGenerator{text: "You can request a refund within 30 days.", provider: "gemini"}
	svc, docs, stats := queryFixture(t, gen)

	now := time.Now()
	docs.records = []models.ChunkRecord{
		record("doc1", "policy.txt", 0, "refund policy: 30 days", now),
		record("doc2", "faq.txt", 0, "refund requests go to support", now.Add(time.Minute)),
	}

	answer, err := svc.Answer(context.Background(), testTenant("acme_com"), "refund")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !answer.Grounded {
		t.Error("expected grounded answer")
	}
	if answer.Provider != "gemini" {
		t.Errorf("provider = %s, want gemini", answer.Provider)
	}
	if len(answer.Sources) != 2 {
		t.Fatalf("sources = %v, want two files", answer.Sources)
	}
	if answer.Text != gen.text {
		t.Errorf("text = %q, want generator output", answer.Text)
	}

	stat, _ := stats.Get(context.Background(), "acme_com")
	if stat.TotalQueries != 1 {
		t.Errorf("total_queries = %d, want 1", stat.TotalQueries)
	}
	if got := stat.QueriesOn(svc.now()); got != 1 {
		t.Errorf("daily count = %d, want 1", got)
	}
}

func TestAnswerUngroundedWhenNothingMatches(t *testing.T) {
	gen := &fakeGenerator{text: "I don't have information about that.", provider: "openrouter"}
	svc, _, _ := queryFixture(t, gen)

	answer, err := svc.Answer(context.Background(), testTenant("acme_com"), "quantum billing")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answer.Grounded {
		t.Error("expected ungrounded answer with empty index")
	}
	if len(answer.Sources) != 0 {
		t.Errorf("sources = %v, want none", answer.Sources)
	}
	if len(gen.requests) != 1 || len(gen.requests[0].ContextChunks) != 0 {
		t.Errorf("generator saw context chunks on an empty index: %+v", gen.requests)
	}
}

func TestAnswerQuotaRefusalNotCounted(t *testing.T) {
	gen := &fakeGenerator{text: "ok", provider: "gemini"}
	svc, _, stats := queryFixture(t, gen)

	tenant := testTenant("acme_com")
	tenant.MaxQueriesPerDay = 2
	day := svc.now()
	stats.RecordQuery(context.Background(), tenant.TenantID, "q1", day)
	stats.RecordQuery(context.Background(), tenant.TenantID, "q2", day)

	_, err := svc.Answer(context.Background(), tenant, "q3")
	if !errors.Is(err, models.ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}
	if len(gen.requests) != 0 {
		t.Error("generator should not run for a quota-refused query")
	}
	stat, _ := stats.Get(context.Background(), tenant.TenantID)
	if stat.TotalQueries != 2 {
		t.Errorf("total_queries = %d, refused query must not count", stat.TotalQueries)
	}
}

func TestAnswerQuotaResetsAtDayBoundary(t *testing.T) {
	gen := &fakeGenerator{text: "ok", provider: "gemini"}
	svc, _, stats := queryFixture(t, gen)

	tenant := testTenant("acme_com")
	tenant.MaxQueriesPerDay = 1
	stats.RecordQuery(context.Background(), tenant.TenantID, "q1", svc.now())

	// Next UTC day: the daily counter starts fresh.
	svc.now = func() time.Time { return time.Date(2025, 6, 2, 0, 0, 1, 0, time.UTC) }
	if _, err := svc.Answer(context.Background(), tenant, "q2"); err != nil {
		t.Fatalf("Answer after day boundary: %v", err)
	}
}

func TestAnswerGenerationFailureNotCounted(t *testing.T) {
	gen := &fakeGenerator{err: models.ErrGenerationUnavailable}
	svc, docs, stats := queryFixture(t, gen)
	docs.records = []models.ChunkRecord{record("doc1", "a.txt", 0, "refund", time.Now())}

	_, err := svc.Answer(context.Background(), testTenant("acme_com"), "refund")
	if !errors.Is(err, models.ErrGenerationUnavailable) {
		t.Fatalf("err = %v, want ErrGenerationUnavailable", err)
	}
	stat, _ := stats.Get(context.Background(), "acme_com")
	if stat.TotalQueries != 0 {
		t.Errorf("total_queries = %d, failed query must not count", stat.TotalQueries)
	}
}

func TestAnswerConcurrentAccounting(t *testing.T) {
	gen := &fakeGenerator{text: "ok", provider: "gemini"}
	svc, docs, stats := queryFixture(t, gen)
	docs.records = []models.ChunkRecord{record("doc1", "policy.txt", 0, "refund policy", time.Now())}

	tenant := testTenant("acme_com")
	const n = 25

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Answer(context.Background(), tenant, "refund"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Answer: %v", err)
	}

	stat, _ := stats.Get(context.Background(), tenant.TenantID)
	if stat.TotalQueries != n {
		t.Errorf("total_queries = %d, want %d", stat.TotalQueries, n)
	}
	if got := stat.QueriesOn(svc.now()); got != n {
		t.Errorf("daily count = %d, want %d", got, n)
	}
}

func TestAnswerPassesTenantSettingsToGenerator(t *testing.T) {
	gen := &fakeGenerator{text: "ok", provider: "gemini"}
	svc, _, _ := queryFixture(t, gen)

	tenant := testTenant("acme_com")
	tenant.Settings.AIPersonality = "friendly"
	tenant.Settings.ResponseStyle = "concise"

	if _, err := svc.Answer(context.Background(), tenant, "hello"); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	req := gen.requests[0]
	if req.CompanyName != "Acme Inc" || req.Personality != "friendly" || req.ResponseStyle != "concise" {
		t.Errorf("generator request missing tenant settings: %+v", req)
	}
}

func TestFitContextDropsWholeChunks(t *testing.T) {
	chunks := []models.ScoredChunk{
		{Chunk: models.ChunkRecord{Filename: "a.txt", Text: strings.Repeat("a", 100)}},
		{Chunk: models.ChunkRecord{Filename: "b.txt", Text: strings.Repeat("b", 100)}},
		{Chunk: models.ChunkRecord{Filename: "c.txt", Text: strings.Repeat("c", 100)}},
	}

	// 100 + 2 + 100 = 202 fits; adding the third would need 304.
	kept := fitContext(chunks, 250)
	if len(kept) != 2 {
		t.Fatalf("kept %d chunks, want 2", len(kept))
	}
	if kept[0].Chunk.Filename != "a.txt" || kept[1].Chunk.Filename != "b.txt" {
		t.Errorf("kept wrong chunks: %s, %s", kept[0].Chunk.Filename, kept[1].Chunk.Filename)
	}
}

func TestAnswerSourcesReflectContextBudget(t *testing.T) {
	gen := &fakeGenerator{text: "ok", provider: "gemini"}
	docs := newFakeDocumentStore()
	stats := newFakeStatsStore()
	engine := NewRetrievalEngine(docs, nil, 5, nil)
	svc := NewQueryService(engine, stats, gen, 120, nil)
	svc.now = time.Now

	now := time.Now()
	docs.records = []models.ChunkRecord{
		record("doc1", "first.txt", 0, "refund "+strings.Repeat("x", 90), now),
		record("doc2", "second.txt", 0, "refund "+strings.Repeat("y", 90), now.Add(time.Minute)),
	}

	answer, err := svc.Answer(context.Background(), testTenant("acme_com"), "refund")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if len(answer.Sources) != 1 || answer.Sources[0] != "first.txt" {
		t.Errorf("sources = %v, want only first.txt within the budget", answer.Sources)
	}
}
