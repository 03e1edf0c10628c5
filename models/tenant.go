package models

import (
	"strings"
	"time"
)

// Tenant statuses.
const (
	TenantActive    = "active"
	TenantSuspended = "suspended"
	TenantDeleted   = "deleted"
)

// Plans.
const (
	PlanBasic      = "basic"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// PlanLimits holds the numeric entitlements of a plan.
type PlanLimits struct {
	MaxDocuments     int `bson:"max_documents" json:"max_documents"`
	MaxQueriesPerDay int `bson:"max_queries_per_day" json:"max_queries_per_day"`
}

// DefaultPlanLimits maps plan names to their default entitlements. Register
// applies these unless the request overrides them explicitly.
var DefaultPlanLimits = map[string]PlanLimits{
	PlanBasic:      {MaxDocuments: 100, MaxQueriesPerDay: 1000},
	PlanPro:        {MaxDocuments: 1000, MaxQueriesPerDay: 10000},
	PlanEnterprise: {MaxDocuments: 10000, MaxQueriesPerDay: 100000},
}

type Tenant struct {
	TenantID         string         `bson:"_id" json:"tenant_id"`
	CompanyName      string         `bson:"company_name" json:"company_name"`
	CompanyDomain    string         `bson:"company_domain" json:"company_domain"`
	CompanyEmail     string         `bson:"company_email" json:"company_email"`
	CompanyPhone     string         `bson:"company_phone,omitempty" json:"company_phone,omitempty"`
	APIKey           string         `bson:"api_key" json:"api_key"`
	Status           string         `bson:"status" json:"status"`
	Plan             string         `bson:"plan" json:"plan"`
	MaxDocuments     int            `bson:"max_documents" json:"max_documents"`
	MaxQueriesPerDay int            `bson:"max_queries_per_day" json:"max_queries_per_day"`
	Settings         TenantSettings `bson:"settings" json:"settings"`
	CreatedAt        time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `bson:"updated_at" json:"updated_at"`
}

// TenantSettings carries per-tenant answer style configuration injected into
// the generation prompt.
type TenantSettings struct {
	AIPersonality string   `bson:"ai_personality" json:"ai_personality"`
	ResponseStyle string   `bson:"response_style" json:"response_style"`
	Branding      Branding `bson:"branding" json:"branding"`
}

type Branding struct {
	PrimaryColor       string `bson:"primary_color,omitempty" json:"primary_color,omitempty"`
	LogoURL            string `bson:"logo_url,omitempty" json:"logo_url,omitempty"`
	CompanyDescription string `bson:"company_description,omitempty" json:"company_description,omitempty"`
}

// Limits returns the tenant's effective plan limits.
func (t *Tenant) Limits() PlanLimits {
	return PlanLimits{MaxDocuments: t.MaxDocuments, MaxQueriesPerDay: t.MaxQueriesPerDay}
}

type RegisterTenantRequest struct {
	CompanyName      string `json:"company_name" binding:"required,min=2,max=100"`
	CompanyDomain    string `json:"company_domain" binding:"required,min=3,max=255"`
	CompanyEmail     string `json:"company_email" binding:"required,email"`
	CompanyPhone     string `json:"company_phone,omitempty"`
	Plan             string `json:"plan,omitempty"`
	MaxDocuments     int    `json:"max_documents,omitempty"`
	MaxQueriesPerDay int    `json:"max_queries_per_day,omitempty"`
	AIPersonality    string `json:"ai_personality,omitempty"`
	ResponseStyle    string `json:"response_style,omitempty"`
}

// UpdateTenantRequest merges permitted fields only. The tenant id and api key
// are never mutable through updates; key rotation is a separate operation.
type UpdateTenantRequest struct {
	CompanyName      *string   `json:"company_name,omitempty" binding:"omitempty,min=2,max=100"`
	CompanyEmail     *string   `json:"company_email,omitempty" binding:"omitempty,email"`
	CompanyPhone     *string   `json:"company_phone,omitempty"`
	Plan             *string   `json:"plan,omitempty"`
	Status           *string   `json:"status,omitempty"`
	MaxDocuments     *int      `json:"max_documents,omitempty"`
	MaxQueriesPerDay *int      `json:"max_queries_per_day,omitempty"`
	AIPersonality    *string   `json:"ai_personality,omitempty"`
	ResponseStyle    *string   `json:"response_style,omitempty"`
	Branding         *Branding `json:"branding,omitempty"`
}

// TenantSlug derives the stable tenant id from a company domain, the same way
// the legacy system did ("acme.com" -> "acme_com").
func TenantSlug(domain string) string {
	slug := strings.ToLower(strings.TrimSpace(domain))
	slug = strings.ReplaceAll(slug, ".", "_")
	slug = strings.ReplaceAll(slug, "-", "_")
	return slug
}
