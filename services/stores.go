package services

import (
	"context"
	"time"

	"docqa-platform/models"

	"go.mongodb.org/mongo-driver/bson"
)

// DocumentStore is the persistence surface the services need for documents
// and their retrieval rows. *database.DocumentRepo implements it.
type DocumentStore interface {
	Ingest(ctx context.Context, doc *models.Document, records []models.ChunkRecord) error
	InsertPending(ctx context.Context, doc *models.Document) error
	Complete(ctx context.Context, doc *models.Document, records []models.ChunkRecord) error
	Fail(ctx context.Context, tenantID, documentID, reason string) error
	Get(ctx context.Context, tenantID, documentID string) (*models.Document, error)
	List(ctx context.Context, tenantID string) ([]models.Document, error)
	Count(ctx context.Context, tenantID string) (int64, error)
	Delete(ctx context.Context, tenantID, documentID string) (*models.Document, error)
	ChunkRecords(ctx context.Context, tenantID string) ([]models.ChunkRecord, error)
}

// StatsStore records usage counters. *database.StatsRepo implements it.
type StatsStore interface {
	Get(ctx context.Context, tenantID string) (*models.UsageStat, error)
	RecordDocument(ctx context.Context, tenantID, contentType string, delta int) error
	RecordQuery(ctx context.Context, tenantID, query string, now time.Time) error
	PruneDaily(ctx context.Context, retentionDays int) (int, error)
}

// TenantStore is the persistence surface for tenant records.
// *database.TenantRepo implements it.
type TenantStore interface {
	Insert(ctx context.Context, t *models.Tenant) error
	Get(ctx context.Context, tenantID string) (*models.Tenant, error)
	GetByDomain(ctx context.Context, domain string) (*models.Tenant, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, error)
	List(ctx context.Context) ([]models.Tenant, error)
	Update(ctx context.Context, tenantID string, set bson.M) (*models.Tenant, error)
	RotateKey(ctx context.Context, tenantID, newKey string) error
	Purge(ctx context.Context, tenantID string) error
}
