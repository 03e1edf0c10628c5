package services

import (
	"context"
	"encoding/json"
	"time"

	"docqa-platform/internal/database"
	"docqa-platform/internal/logger"
	"docqa-platform/models"
	"docqa-platform/utils"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
)

const tenantKeyCacheTTL = 5 * time.Minute

// TenantService manages the tenant registry: registration, profile updates,
// credential rotation and removal. API key resolution is cached in redis
// keyed by the key digest, never the raw key.
type TenantService struct {
	tenants TenantStore
	stats   StatsStore
	rdb     *redis.Client
}

func NewTenantService(tenants TenantStore, stats StatsStore, rdb *redis.Client) *TenantService {
	return &TenantService{tenants: tenants, stats: stats, rdb: rdb}
}

// Register creates a tenant from the request. The tenant id derives from the
// company domain; a second registration for the same domain fails with
// ErrDuplicateTenant. The generated api key is returned exactly once here.
func (s *TenantService) Register(ctx context.Context, req *models.RegisterTenantRequest) (*models.Tenant, error) {
	plan := req.Plan
	if _, ok := models.DefaultPlanLimits[plan]; !ok {
		plan = models.PlanBasic
	}
	limits := models.DefaultPlanLimits[plan]
	if req.MaxDocuments > 0 {
		limits.MaxDocuments = req.MaxDocuments
	}
	if req.MaxQueriesPerDay > 0 {
		limits.MaxQueriesPerDay = req.MaxQueriesPerDay
	}

	apiKey, err := utils.GenerateAPIKey()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tenant := &models.Tenant{
		TenantID:         models.TenantSlug(req.CompanyDomain),
		CompanyName:      req.CompanyName,
		CompanyDomain:    req.CompanyDomain,
		CompanyEmail:     req.CompanyEmail,
		CompanyPhone:     req.CompanyPhone,
		APIKey:           apiKey,
		Status:           models.TenantActive,
		Plan:             plan,
		MaxDocuments:     limits.MaxDocuments,
		MaxQueriesPerDay: limits.MaxQueriesPerDay,
		Settings: models.TenantSettings{
			AIPersonality: req.AIPersonality,
			ResponseStyle: req.ResponseStyle,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.tenants.Insert(ctx, tenant); err != nil {
		return nil, err
	}

	logger.Info("tenant registered",
		"tenant_id", tenant.TenantID,
		"company_domain", tenant.CompanyDomain,
		"plan", tenant.Plan)
	return tenant, nil
}

func (s *TenantService) Get(ctx context.Context, tenantID string) (*models.Tenant, error) {
	return s.tenants.Get(ctx, tenantID)
}

func (s *TenantService) List(ctx context.Context) ([]models.Tenant, error) {
	return s.tenants.List(ctx)
}

// ResolveByKey maps a presented api key to its tenant. Misses, lookup
// failures and keys of non-active tenants all come back as
// ErrInvalidCredential so a caller cannot probe which keys exist.
func (s *TenantService) ResolveByKey(ctx context.Context, apiKey string) (*models.Tenant, error) {
	if !utils.IsTenantKey(apiKey) {
		return nil, models.ErrInvalidCredential
	}

	cacheKey := "tenant:key:" + utils.KeyDigest(apiKey)
	if s.rdb != nil {
		if payload, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var tenant models.Tenant
			if json.Unmarshal(payload, &tenant) == nil && tenant.APIKey == apiKey {
				if tenant.Status != models.TenantActive {
					return nil, models.ErrInvalidCredential
				}
				return &tenant, nil
			}
		}
	}

	tenant, err := s.tenants.GetByAPIKey(ctx, apiKey)
	if err != nil {
		if err == models.ErrNotFound {
			return nil, models.ErrInvalidCredential
		}
		return nil, err
	}
	if tenant.Status != models.TenantActive {
		return nil, models.ErrInvalidCredential
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(tenant); err == nil {
			s.rdb.Set(ctx, cacheKey, payload, tenantKeyCacheTTL)
		}
	}
	return tenant, nil
}

// Update merges the permitted fields. Plan changes reset the limits to the
// new plan's defaults unless the request overrides them in the same call.
func (s *TenantService) Update(ctx context.Context, tenantID string, req *models.UpdateTenantRequest) (*models.Tenant, error) {
	set := bson.M{}
	if req.CompanyName != nil {
		set["company_name"] = *req.CompanyName
	}
	if req.CompanyEmail != nil {
		set["company_email"] = *req.CompanyEmail
	}
	if req.CompanyPhone != nil {
		set["company_phone"] = *req.CompanyPhone
	}
	if req.Plan != nil {
		if limits, ok := models.DefaultPlanLimits[*req.Plan]; ok {
			set["plan"] = *req.Plan
			set["max_documents"] = limits.MaxDocuments
			set["max_queries_per_day"] = limits.MaxQueriesPerDay
		}
	}
	if req.Status != nil {
		switch *req.Status {
		case models.TenantActive, models.TenantSuspended:
			set["status"] = *req.Status
		}
	}
	if req.MaxDocuments != nil {
		set["max_documents"] = *req.MaxDocuments
	}
	if req.MaxQueriesPerDay != nil {
		set["max_queries_per_day"] = *req.MaxQueriesPerDay
	}
	if req.AIPersonality != nil {
		set["settings.ai_personality"] = *req.AIPersonality
	}
	if req.ResponseStyle != nil {
		set["settings.response_style"] = *req.ResponseStyle
	}
	if req.Branding != nil {
		set["settings.branding"] = *req.Branding
	}

	tenant, err := s.tenants.Update(ctx, tenantID, set)
	if err != nil {
		return nil, err
	}
	s.dropKeyCache(ctx, tenant.APIKey)
	return tenant, nil
}

// RotateKey replaces the tenant's api key. The old key stops resolving
// immediately, both in the database and in the resolution cache.
func (s *TenantService) RotateKey(ctx context.Context, tenantID string) (*models.Tenant, error) {
	tenant, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	oldKey := tenant.APIKey

	newKey, err := utils.GenerateAPIKey()
	if err != nil {
		return nil, err
	}
	if err := s.tenants.RotateKey(ctx, tenantID, newKey); err != nil {
		return nil, err
	}
	s.dropKeyCache(ctx, oldKey)

	tenant.APIKey = newKey
	tenant.UpdatedAt = time.Now().UTC()
	logger.Info("tenant api key rotated", "tenant_id", tenantID)
	return tenant, nil
}

// Delete purges the tenant and everything it owns. The removal is permanent;
// documents, chunks and counters go with the tenant record.
func (s *TenantService) Delete(ctx context.Context, tenantID string) error {
	tenant, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return err
	}
	if err := s.tenants.Purge(ctx, tenantID); err != nil {
		return err
	}
	s.dropKeyCache(ctx, tenant.APIKey)
	if s.rdb != nil {
		s.rdb.Del(ctx, "chunks:"+tenantID)
	}
	logger.Info("tenant purged", "tenant_id", tenantID, "company_domain", tenant.CompanyDomain)
	return nil
}

// Stats returns the tenant's usage counters with the popular table sorted.
func (s *TenantService) Stats(ctx context.Context, tenantID string) (*models.UsageStat, error) {
	if _, err := s.tenants.Get(ctx, tenantID); err != nil {
		return nil, err
	}
	stat, err := s.stats.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	stat.PopularQueries = database.TopQueries(stat.PopularQueries)
	return stat, nil
}

func (s *TenantService) dropKeyCache(ctx context.Context, apiKey string) {
	if s.rdb == nil || apiKey == "" {
		return
	}
	s.rdb.Del(ctx, "tenant:key:"+utils.KeyDigest(apiKey))
}
