package models

import "time"

// UsageStat holds per-tenant counters. Counters only grow within a day; day
// boundaries are UTC across the whole process.
type UsageStat struct {
	TenantID       string           `bson:"_id" json:"tenant_id"`
	TotalDocuments int              `bson:"total_documents" json:"total_documents"`
	TotalQueries   int64            `bson:"total_queries" json:"total_queries"`
	Daily          map[string]int64 `bson:"daily,omitempty" json:"daily,omitempty"`
	LastQueryAt    time.Time        `bson:"last_query_at,omitempty" json:"last_query_at,omitempty"`
	PopularQueries []PopularQuery   `bson:"popular_queries,omitempty" json:"popular_queries,omitempty"`
	DocumentTypes  map[string]int   `bson:"document_types,omitempty" json:"document_types,omitempty"`
	UpdatedAt      time.Time        `bson:"updated_at" json:"updated_at"`
}

// PopularQuery is one entry of the bounded popular-query table. The table is
// capped; the least recently seen entry is evicted first.
type PopularQuery struct {
	Query    string    `bson:"query" json:"query"`
	Count    int       `bson:"count" json:"count"`
	LastSeen time.Time `bson:"last_seen" json:"last_seen"`
}

// DayKey formats a point in time as the UTC day bucket used for the daily
// query counters.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// QueriesOn returns the recorded query count for the day containing t.
func (s *UsageStat) QueriesOn(t time.Time) int64 {
	if s == nil || s.Daily == nil {
		return 0
	}
	return s.Daily[DayKey(t)]
}
