package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"docqa-platform/internal/config"
	"docqa-platform/middleware"
	"docqa-platform/models"
	"docqa-platform/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

type stubTenantStore struct {
	tenants map[string]*models.Tenant
}

func (s *stubTenantStore) Insert(ctx context.Context, t *models.Tenant) error {
	s.tenants[t.TenantID] = t
	return nil
}

func (s *stubTenantStore) Get(ctx context.Context, tenantID string) (*models.Tenant, error) {
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, models.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (s *stubTenantStore) GetByDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	for _, t := range s.tenants {
		if t.CompanyDomain == domain {
			clone := *t
			return &clone, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *stubTenantStore) GetByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, error) {
	for _, t := range s.tenants {
		if t.APIKey == apiKey {
			clone := *t
			return &clone, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *stubTenantStore) List(ctx context.Context) ([]models.Tenant, error) {
	var out []models.Tenant
	for _, t := range s.tenants {
		out = append(out, *t)
	}
	return out, nil
}

func (s *stubTenantStore) Update(ctx context.Context, tenantID string, set bson.M) (*models.Tenant, error) {
	return s.Get(ctx, tenantID)
}

func (s *stubTenantStore) RotateKey(ctx context.Context, tenantID, newKey string) error {
	t, ok := s.tenants[tenantID]
	if !ok {
		return models.ErrNotFound
	}
	t.APIKey = newKey
	return nil
}

func (s *stubTenantStore) Purge(ctx context.Context, tenantID string) error {
	delete(s.tenants, tenantID)
	return nil
}

type stubStatsStore struct {
	stats map[string]*models.UsageStat
}

func (s *stubStatsStore) Get(ctx context.Context, tenantID string) (*models.UsageStat, error) {
	if stat, ok := s.stats[tenantID]; ok {
		clone := *stat
		return &clone, nil
	}
	return &models.UsageStat{TenantID: tenantID}, nil
}

func (s *stubStatsStore) RecordDocument(ctx context.Context, tenantID, contentType string, delta int) error {
	return nil
}

func (s *stubStatsStore) RecordQuery(ctx context.Context, tenantID, query string, now time.Time) error {
	return nil
}

func (s *stubStatsStore) PruneDaily(ctx context.Context, retentionDays int) (int, error) {
	return 0, nil
}

func statsRouterFixture(t *testing.T) *gin.Engine {
	t.Helper()
	tenants := map[string]*models.Tenant{
		"acme_com": {TenantID: "acme_com", CompanyDomain: "acme.com", APIKey: "mt_acmekey", Status: models.TenantActive},
		"dorm_com": {TenantID: "dorm_com", CompanyDomain: "dorm.com", APIKey: "mt_dormkey", Status: models.TenantActive},
	}
	svc := services.NewTenantService(
		&stubTenantStore{tenants: tenants},
		&stubStatsStore{stats: map[string]*models.UsageStat{
			"acme_com": {TenantID: "acme_com", TotalDocuments: 2, TotalQueries: 7},
		}},
		nil,
	)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	deps := Deps{Config: &config.Config{}, Tenants: svc}
	access := middleware.NewAccessControl(nil, svc)
	SetupQueryRoutes(router, deps, access)
	return router
}

func getStats(router *gin.Engine, path, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestTenantReadsOwnStats(t *testing.T) {
	router := statsRouterFixture(t)

	w := getStats(router, "/tenants/acme_com/stats", "mt_acmekey")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, `"total_queries":7`) || !strings.Contains(body, `"total_documents":2`) {
		t.Errorf("body = %s, want the tenant's counters", body)
	}
}

func TestTenantCannotReadForeignStats(t *testing.T) {
	router := statsRouterFixture(t)

	w := getStats(router, "/tenants/acme_com/stats", "mt_dormkey")
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 for another tenant's stats", w.Code)
	}
}

func TestStatsRequiresCredential(t *testing.T) {
	router := statsRouterFixture(t)

	w := getStats(router, "/tenants/acme_com/stats", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
