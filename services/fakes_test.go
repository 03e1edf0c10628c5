package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"docqa-platform/internal/ai"
	"docqa-platform/internal/database"
	"docqa-platform/models"

	"go.mongodb.org/mongo-driver/bson"
)

// fakeDocumentStore is an in-memory DocumentStore.
type fakeDocumentStore struct {
	mu      sync.Mutex
	docs    map[string]*models.Document
	records []models.ChunkRecord
}

func newFakeDocumentStore() *fakeDocumentStore {
	return &fakeDocumentStore{docs: map[string]*models.Document{}}
}

func (f *fakeDocumentStore) Ingest(ctx context.Context, doc *models.Document, records []models.ChunkRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[doc.DocumentID] = doc
	f.records = append(f.records, records...)
	return nil
}

func (f *fakeDocumentStore) InsertPending(ctx context.Context, doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[doc.DocumentID] = doc
	return nil
}

func (f *fakeDocumentStore) Complete(ctx context.Context, doc *models.Document, records []models.ChunkRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.docs[doc.DocumentID]
	if !ok {
		return models.ErrNotFound
	}
	existing.Status = models.StatusCompleted
	existing.ChunkCount = doc.ChunkCount
	existing.CharCount = doc.CharCount
	existing.Chunks = doc.Chunks
	f.records = append(f.records, records...)
	return nil
}

func (f *fakeDocumentStore) Fail(ctx context.Context, tenantID, documentID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if doc, ok := f.docs[documentID]; ok {
		doc.Status = models.StatusFailed
		doc.ErrorMessage = reason
	}
	return nil
}

func (f *fakeDocumentStore) Get(ctx context.Context, tenantID, documentID string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[documentID]
	if !ok || doc.TenantID != tenantID {
		return nil, models.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (f *fakeDocumentStore) List(ctx context.Context, tenantID string) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Document
	for _, doc := range f.docs {
		if doc.TenantID == tenantID {
			out = append(out, *doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (f *fakeDocumentStore) Count(ctx context.Context, tenantID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, doc := range f.docs {
		if doc.TenantID == tenantID && doc.Status != models.StatusFailed {
			n++
		}
	}
	return n, nil
}

func (f *fakeDocumentStore) Delete(ctx context.Context, tenantID, documentID string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[documentID]
	if !ok || doc.TenantID != tenantID {
		return nil, models.ErrNotFound
	}
	delete(f.docs, documentID)
	kept := f.records[:0]
	for _, r := range f.records {
		if r.DocumentID != documentID {
			kept = append(kept, r)
		}
	}
	f.records = kept
	return doc, nil
}

func (f *fakeDocumentStore) ChunkRecords(ctx context.Context, tenantID string) ([]models.ChunkRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ChunkRecord
	for _, r := range f.records {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.UploadedAt.Equal(b.UploadedAt) {
			return a.UploadedAt.Before(b.UploadedAt)
		}
		if a.DocumentID != b.DocumentID {
			return a.DocumentID < b.DocumentID
		}
		return a.Order < b.Order
	})
	return out, nil
}

// fakeStatsStore is an in-memory StatsStore.
type fakeStatsStore struct {
	mu         sync.Mutex
	stats      map[string]*models.UsageStat
	popularCap int
}

func newFakeStatsStore() *fakeStatsStore {
	return &fakeStatsStore{stats: map[string]*models.UsageStat{}, popularCap: 10}
}

func (f *fakeStatsStore) get(tenantID string) *models.UsageStat {
	stat, ok := f.stats[tenantID]
	if !ok {
		stat = &models.UsageStat{TenantID: tenantID, Daily: map[string]int64{}}
		f.stats[tenantID] = stat
	}
	return stat
}

func (f *fakeStatsStore) Get(ctx context.Context, tenantID string) (*models.UsageStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *f.get(tenantID)
	return &copied, nil
}

func (f *fakeStatsStore) RecordDocument(ctx context.Context, tenantID, contentType string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stat := f.get(tenantID)
	stat.TotalDocuments += delta
	if stat.DocumentTypes == nil {
		stat.DocumentTypes = map[string]int{}
	}
	stat.DocumentTypes[contentType] += delta
	return nil
}

func (f *fakeStatsStore) RecordQuery(ctx context.Context, tenantID, query string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stat := f.get(tenantID)
	stat.TotalQueries++
	stat.Daily[models.DayKey(now)]++
	stat.LastQueryAt = now.UTC()
	stat.PopularQueries = database.FoldPopularQuery(stat.PopularQueries, query, now.UTC(), f.popularCap)
	return nil
}

func (f *fakeStatsStore) PruneDaily(ctx context.Context, retentionDays int) (int, error) {
	return 0, nil
}

// fakeTenantStore is an in-memory TenantStore.
type fakeTenantStore struct {
	mu      sync.Mutex
	tenants map[string]*models.Tenant
}

func newFakeTenantStore() *fakeTenantStore {
	return &fakeTenantStore{tenants: map[string]*models.Tenant{}}
}

func (f *fakeTenantStore) Insert(ctx context.Context, t *models.Tenant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.tenants {
		if existing.CompanyDomain == t.CompanyDomain || existing.APIKey == t.APIKey {
			return models.ErrDuplicateTenant
		}
	}
	copied := *t
	f.tenants[t.TenantID] = &copied
	return nil
}

func (f *fakeTenantStore) Get(ctx context.Context, tenantID string) (*models.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenants[tenantID]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTenantStore) GetByDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tenants {
		if t.CompanyDomain == domain {
			copied := *t
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeTenantStore) GetByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tenants {
		if t.APIKey == apiKey {
			copied := *t
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeTenantStore) List(ctx context.Context) ([]models.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Tenant
	for _, t := range f.tenants {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTenantStore) Update(ctx context.Context, tenantID string, set bson.M) (*models.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenants[tenantID]
	if !ok {
		return nil, models.ErrNotFound
	}
	for key, value := range set {
		switch key {
		case "company_name":
			t.CompanyName = value.(string)
		case "company_email":
			t.CompanyEmail = value.(string)
		case "company_phone":
			t.CompanyPhone = value.(string)
		case "plan":
			t.Plan = value.(string)
		case "status":
			t.Status = value.(string)
		case "max_documents":
			t.MaxDocuments = value.(int)
		case "max_queries_per_day":
			t.MaxQueriesPerDay = value.(int)
		case "settings.ai_personality":
			t.Settings.AIPersonality = value.(string)
		case "settings.response_style":
			t.Settings.ResponseStyle = value.(string)
		case "settings.branding":
			t.Settings.Branding = value.(models.Branding)
		}
	}
	t.UpdatedAt = time.Now().UTC()
	copied := *t
	return &copied, nil
}

func (f *fakeTenantStore) RotateKey(ctx context.Context, tenantID, newKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenants[tenantID]
	if !ok {
		return models.ErrNotFound
	}
	t.APIKey = newKey
	return nil
}

func (f *fakeTenantStore) Purge(ctx context.Context, tenantID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tenants[tenantID]; !ok {
		return models.ErrNotFound
	}
	delete(f.tenants, tenantID)
	return nil
}

// fakeGenerator returns canned answers and records the requests it saw.
type fakeGenerator struct {
	mu       sync.Mutex
	text     string
	provider string
	err      error
	requests []ai.GenerateRequest
}

func (f *fakeGenerator) GenerateWith(ctx context.Context, req ai.GenerateRequest) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", "", f.err
	}
	return f.text, f.provider, nil
}

func testTenant(id string) *models.Tenant {
	return &models.Tenant{
		TenantID:         id,
		CompanyName:      "Acme Inc",
		CompanyDomain:    "acme.com",
		Status:           models.TenantActive,
		Plan:             models.PlanBasic,
		MaxDocuments:     100,
		MaxQueriesPerDay: 1000,
	}
}
