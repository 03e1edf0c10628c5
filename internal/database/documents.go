package database

import (
	"context"

	"docqa-platform/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DocumentRepo persists documents and the denormalized chunk index rows that
// back retrieval. The document row and its index rows are written in one
// transaction so readers never observe a half-indexed document.
type DocumentRepo struct {
	db    *mongo.Database
	retry RetryPolicy
}

func NewDocumentRepo(db *mongo.Database, retry RetryPolicy) *DocumentRepo {
	return &DocumentRepo{db: db, retry: retry}
}

func (r *DocumentRepo) docs() *mongo.Collection {
	return r.db.Collection("documents")
}

func (r *DocumentRepo) chunks() *mongo.Collection {
	return r.db.Collection("chunk_index")
}

// Ingest writes a completed document and its chunk index rows atomically.
func (r *DocumentRepo) Ingest(ctx context.Context, doc *models.Document, records []models.ChunkRecord) error {
	return r.retry.Do(ctx, func(ctx context.Context) error {
		session, err := r.db.Client().StartSession()
		if err != nil {
			return err
		}
		defer session.EndSession(ctx)

		_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
			if _, err := r.docs().InsertOne(sc, doc); err != nil {
				return nil, err
			}
			if len(records) > 0 {
				rows := make([]interface{}, len(records))
				for i := range records {
					rows[i] = records[i]
				}
				if _, err := r.chunks().InsertMany(sc, rows); err != nil {
					return nil, err
				}
			}
			return nil, nil
		})
		return err
	})
}

// InsertPending writes a placeholder row for an asynchronous upload. Pending
// documents are invisible to retrieval until Complete flips their status.
func (r *DocumentRepo) InsertPending(ctx context.Context, doc *models.Document) error {
	return r.retry.Do(ctx, func(ctx context.Context) error {
		_, err := r.docs().InsertOne(ctx, doc)
		return err
	})
}

// Complete attaches the extraction result to a pending document and indexes
// its chunks, all in one transaction.
func (r *DocumentRepo) Complete(ctx context.Context, doc *models.Document, records []models.ChunkRecord) error {
	return r.retry.Do(ctx, func(ctx context.Context) error {
		session, err := r.db.Client().StartSession()
		if err != nil {
			return err
		}
		defer session.EndSession(ctx)

		_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
			res, err := r.docs().UpdateOne(sc,
				bson.M{"_id": doc.DocumentID, "tenant_id": doc.TenantID},
				bson.M{"$set": bson.M{
					"status":      models.StatusCompleted,
					"chunk_count": doc.ChunkCount,
					"char_count":  doc.CharCount,
					"chunks":      doc.Chunks,
				}})
			if err != nil {
				return nil, err
			}
			if res.MatchedCount == 0 {
				return nil, models.ErrNotFound
			}
			if len(records) > 0 {
				rows := make([]interface{}, len(records))
				for i := range records {
					rows[i] = records[i]
				}
				if _, err := r.chunks().InsertMany(sc, rows); err != nil {
					return nil, err
				}
			}
			return nil, nil
		})
		return err
	})
}

// Fail marks a pending document as failed with the reason.
func (r *DocumentRepo) Fail(ctx context.Context, tenantID, documentID, reason string) error {
	return r.retry.Do(ctx, func(ctx context.Context) error {
		_, err := r.docs().UpdateOne(ctx,
			bson.M{"_id": documentID, "tenant_id": tenantID},
			bson.M{"$set": bson.M{"status": models.StatusFailed, "error_message": reason}})
		return err
	})
}

// Get returns the tenant's document or ErrNotFound. The tenant filter is part
// of the query, not a post-check.
func (r *DocumentRepo) Get(ctx context.Context, tenantID, documentID string) (*models.Document, error) {
	var doc models.Document
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		filter := bson.M{"_id": documentID, "tenant_id": tenantID}
		if err := r.docs().FindOne(ctx, filter).Decode(&doc); err != nil {
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
	return &doc, nil
}

// List returns the tenant's documents newest first, without the embedded
// chunk payloads.
func (r *DocumentRepo) List(ctx context.Context, tenantID string) ([]models.Document, error) {
	var docs []models.Document
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		opts := options.Find().
			SetSort(bson.D{{Key: "uploaded_at", Value: -1}}).
			SetProjection(bson.M{"chunks": 0})
		cursor, err := r.docs().Find(ctx, bson.M{"tenant_id": tenantID}, opts)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		docs = docs[:0]
		return cursor.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Count returns the number of completed documents a tenant owns. Pending
// uploads count toward the quota too so a burst of uploads cannot overshoot.
func (r *DocumentRepo) Count(ctx context.Context, tenantID string) (int64, error) {
	var n int64
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		count, err := r.docs().CountDocuments(ctx, bson.M{
			"tenant_id": tenantID,
			"status":    bson.M{"$ne": models.StatusFailed},
		})
		if err != nil {
			return err
		}
		n = count
		return nil
	})
	return n, err
}

// Delete removes the document and its chunk index rows in one transaction.
func (r *DocumentRepo) Delete(ctx context.Context, tenantID, documentID string) (*models.Document, error) {
	doc, err := r.Get(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	err = r.retry.Do(ctx, func(ctx context.Context) error {
		session, err := r.db.Client().StartSession()
		if err != nil {
			return err
		}
		defer session.EndSession(ctx)

		_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
			res, err := r.docs().DeleteOne(sc, bson.M{"_id": documentID, "tenant_id": tenantID})
			if err != nil {
				return nil, err
			}
			if res.DeletedCount == 0 {
				return nil, models.ErrNotFound
			}
			_, err = r.chunks().DeleteMany(sc, bson.M{"document_id": documentID, "tenant_id": tenantID})
			return nil, err
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ChunkRecords returns the retrieval rows for every completed document of the
// tenant, ordered by upload time then document then chunk order so scoring
// ties break the same way on every call.
func (r *DocumentRepo) ChunkRecords(ctx context.Context, tenantID string) ([]models.ChunkRecord, error) {
	var records []models.ChunkRecord
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		opts := options.Find().SetSort(bson.D{
			{Key: "uploaded_at", Value: 1},
			{Key: "document_id", Value: 1},
			{Key: "order", Value: 1},
		})
		cursor, err := r.chunks().Find(ctx, bson.M{"tenant_id": tenantID}, opts)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		records = records[:0]
		return cursor.All(ctx, &records)
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
