package database

import (
	"context"
	"fmt"
	"time"

	"docqa-platform/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TenantRepo persists tenant records in the shared tenants collection.
// Uniqueness of company_domain and api_key is enforced by indexes; violations
// surface as ErrDuplicateTenant.
type TenantRepo struct {
	db    *mongo.Database
	retry RetryPolicy
}

func NewTenantRepo(db *mongo.Database, retry RetryPolicy) *TenantRepo {
	return &TenantRepo{db: db, retry: retry}
}

func (r *TenantRepo) col() *mongo.Collection {
	return r.db.Collection("tenants")
}

func (r *TenantRepo) Insert(ctx context.Context, t *models.Tenant) error {
	return r.retry.Do(ctx, func(ctx context.Context) error {
		_, err := r.col().InsertOne(ctx, t)
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicateTenant
		}
		return err
	})
}

func (r *TenantRepo) Get(ctx context.Context, tenantID string) (*models.Tenant, error) {
	return r.findOne(ctx, bson.M{"_id": tenantID})
}

func (r *TenantRepo) GetByDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	return r.findOne(ctx, bson.M{"company_domain": domain})
}

// GetByAPIKey resolves a presented tenant key to its owner. Callers must not
// leak whether the key exists versus belongs to another tenant.
func (r *TenantRepo) GetByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, error) {
	return r.findOne(ctx, bson.M{"api_key": apiKey})
}

func (r *TenantRepo) findOne(ctx context.Context, filter bson.M) (*models.Tenant, error) {
	var t models.Tenant
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		if err := r.col().FindOne(ctx, filter).Decode(&t); err != nil {
			if err == mongo.ErrNoDocuments {
				return models.ErrNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns all tenants except purged ones, newest first.
func (r *TenantRepo) List(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
		cursor, err := r.col().Find(ctx, bson.M{}, opts)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		tenants = tenants[:0]
		return cursor.All(ctx, &tenants)
	})
	if err != nil {
		return nil, err
	}
	return tenants, nil
}

// Update applies the given field set and bumps updated_at. The tenant id and
// api_key are never part of the set document.
func (r *TenantRepo) Update(ctx context.Context, tenantID string, set bson.M) (*models.Tenant, error) {
	delete(set, "_id")
	delete(set, "api_key")
	set["updated_at"] = time.Now().UTC()

	err := r.retry.Do(ctx, func(ctx context.Context) error {
		res, err := r.col().UpdateOne(ctx, bson.M{"_id": tenantID}, bson.M{"$set": set})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return models.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, tenantID)
}

// RotateKey atomically replaces the tenant's api_key. The previous key stops
// resolving the moment the update lands.
func (r *TenantRepo) RotateKey(ctx context.Context, tenantID, newKey string) error {
	return r.retry.Do(ctx, func(ctx context.Context) error {
		res, err := r.col().UpdateOne(ctx, bson.M{"_id": tenantID}, bson.M{"$set": bson.M{
			"api_key":    newKey,
			"updated_at": time.Now().UTC(),
		}})
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("api key collision on rotate: %w", err)
		}
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}

// Purge removes the tenant and every row it owns in a single transaction:
// documents, chunk index entries and usage counters all disappear together.
func (r *TenantRepo) Purge(ctx context.Context, tenantID string) error {
	return r.retry.Do(ctx, func(ctx context.Context) error {
		session, err := r.db.Client().StartSession()
		if err != nil {
			return err
		}
		defer session.EndSession(ctx)

		_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
			res, err := r.col().DeleteOne(sc, bson.M{"_id": tenantID})
			if err != nil {
				return nil, err
			}
			if res.DeletedCount == 0 {
				return nil, models.ErrNotFound
			}
			scoped := bson.M{"tenant_id": tenantID}
			if _, err := r.db.Collection("documents").DeleteMany(sc, scoped); err != nil {
				return nil, err
			}
			if _, err := r.db.Collection("chunk_index").DeleteMany(sc, scoped); err != nil {
				return nil, err
			}
			if _, err := r.db.Collection("usage_stats").DeleteOne(sc, bson.M{"_id": tenantID}); err != nil {
				return nil, err
			}
			return nil, nil
		})
		return err
	})
}
