package database

import (
	"context"
	"sort"
	"time"

	"docqa-platform/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StatsRepo maintains per-tenant usage counters. All increments go through
// $inc so concurrent writers never lose updates.
type StatsRepo struct {
	db         *mongo.Database
	retry      RetryPolicy
	popularCap int
}

func NewStatsRepo(db *mongo.Database, retry RetryPolicy, popularCap int) *StatsRepo {
	if popularCap < 1 {
		popularCap = 10
	}
	return &StatsRepo{db: db, retry: retry, popularCap: popularCap}
}

func (r *StatsRepo) col() *mongo.Collection {
	return r.db.Collection("usage_stats")
}

// Get returns the tenant's counters, or a zeroed record when none exist yet.
func (r *StatsRepo) Get(ctx context.Context, tenantID string) (*models.UsageStat, error) {
	var stat models.UsageStat
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		if err := r.col().FindOne(ctx, bson.M{"_id": tenantID}).Decode(&stat); err != nil {
			if err == mongo.ErrNoDocuments {
				stat = models.UsageStat{TenantID: tenantID}
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stat, nil
}

// RecordDocument bumps the document counters after a successful ingest.
// delta is +1 on upload and -1 on delete.
func (r *StatsRepo) RecordDocument(ctx context.Context, tenantID, contentType string, delta int) error {
	return r.retry.Do(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		update := bson.M{
			"$inc": bson.M{
				"total_documents":               delta,
				"document_types." + contentType: delta,
			},
			"$set": bson.M{"updated_at": now},
		}
		_, err := r.col().UpdateOne(ctx, bson.M{"_id": tenantID}, update,
			options.Update().SetUpsert(true))
		return err
	})
}

// RecordQuery bumps the lifetime and daily query counters for the UTC day
// containing now, and folds the query into the bounded popular table.
func (r *StatsRepo) RecordQuery(ctx context.Context, tenantID, query string, now time.Time) error {
	day := models.DayKey(now)
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		update := bson.M{
			"$inc": bson.M{
				"total_queries": 1,
				"daily." + day:  1,
			},
			"$set": bson.M{
				"last_query_at": now.UTC(),
				"updated_at":    now.UTC(),
			},
		}
		_, err := r.col().UpdateOne(ctx, bson.M{"_id": tenantID}, update,
			options.Update().SetUpsert(true))
		return err
	})
	if err != nil {
		return err
	}
	return r.recordPopular(ctx, tenantID, query, now)
}

// recordPopular updates the popular table with a read-modify-write. The table
// is advisory; a lost race costs at most one count, never a counter.
func (r *StatsRepo) recordPopular(ctx context.Context, tenantID, query string, now time.Time) error {
	return r.retry.Do(ctx, func(ctx context.Context) error {
		var stat models.UsageStat
		if err := r.col().FindOne(ctx, bson.M{"_id": tenantID}).Decode(&stat); err != nil {
			if err != mongo.ErrNoDocuments {
				return err
			}
		}
		popular := FoldPopularQuery(stat.PopularQueries, query, now.UTC(), r.popularCap)
		_, err := r.col().UpdateOne(ctx, bson.M{"_id": tenantID},
			bson.M{"$set": bson.M{"popular_queries": popular}},
			options.Update().SetUpsert(true))
		return err
	})
}

// FoldPopularQuery merges one observed query into the bounded table. An
// existing entry gains a count; a new entry evicts the least recently seen
// one once the table is full.
func FoldPopularQuery(table []models.PopularQuery, query string, seen time.Time, limit int) []models.PopularQuery {
	for i := range table {
		if table[i].Query == query {
			table[i].Count++
			table[i].LastSeen = seen
			return table
		}
	}
	entry := models.PopularQuery{Query: query, Count: 1, LastSeen: seen}
	if len(table) < limit {
		return append(table, entry)
	}
	evict := 0
	for i := 1; i < len(table); i++ {
		if table[i].LastSeen.Before(table[evict].LastSeen) {
			evict = i
		}
	}
	table[evict] = entry
	return table
}

// TopQueries returns the popular table sorted by count descending, most
// recently seen first on equal counts.
func TopQueries(table []models.PopularQuery) []models.PopularQuery {
	out := make([]models.PopularQuery, len(table))
	copy(out, table)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].LastSeen.After(out[j].LastSeen)
	})
	return out
}

// PruneDaily drops daily buckets older than the retention horizon for every
// tenant. Runs from the scheduled maintenance job.
func (r *StatsRepo) PruneDaily(ctx context.Context, retentionDays int) (int, error) {
	cutoff := models.DayKey(time.Now().UTC().AddDate(0, 0, -retentionDays))
	pruned := 0
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		cursor, err := r.col().Find(ctx, bson.M{"daily": bson.M{"$exists": true}})
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)

		pruned = 0
		for cursor.Next(ctx) {
			var stat models.UsageStat
			if err := cursor.Decode(&stat); err != nil {
				continue
			}
			unset := bson.M{}
			for day := range stat.Daily {
				if day < cutoff {
					unset["daily."+day] = ""
				}
			}
			if len(unset) == 0 {
				continue
			}
			if _, err := r.col().UpdateOne(ctx, bson.M{"_id": stat.TenantID}, bson.M{"$unset": unset}); err != nil {
				return err
			}
			pruned += len(unset)
		}
		return cursor.Err()
	})
	return pruned, err
}
