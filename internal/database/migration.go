package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"docqa-platform/models"
	"docqa-platform/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/google/uuid"
)

// ChunkFunc turns extracted document text into ordered chunks. The migrator
// takes it as a dependency so imported documents are chunked exactly like
// fresh uploads.
type ChunkFunc func(text string) ([]models.Chunk, error)

// CompressFunc prepares chunks for storage. A nil CompressFunc stores chunks
// as-is.
type CompressFunc func(chunks []models.Chunk) ([]models.Chunk, error)

// MigrationReport summarizes one import run.
type MigrationReport struct {
	SnapshotChecksum  string    `bson:"snapshot_checksum" json:"snapshot_checksum"`
	TenantsCreated    int       `bson:"tenants_created" json:"tenants_created"`
	TenantsUpdated    int       `bson:"tenants_updated" json:"tenants_updated"`
	DocumentsImported int       `bson:"documents_imported" json:"documents_imported"`
	DocumentsSkipped  int       `bson:"documents_skipped" json:"documents_skipped"`
	StatsMerged       int       `bson:"stats_merged" json:"stats_merged"`
	AlreadyApplied    bool      `bson:"-" json:"already_applied"`
	CompletedAt       time.Time `bson:"completed_at" json:"completed_at"`
}

// Migrator imports a legacy snapshot. Every step keys on natural identifiers
// (company domain, tenant plus filename) so a rerun after a partial failure
// converges instead of duplicating.
type Migrator struct {
	db       *mongo.Database
	tenants  *TenantRepo
	docs     *DocumentRepo
	stats    *StatsRepo
	chunk    ChunkFunc
	compress CompressFunc
}

func NewMigrator(db *mongo.Database, tenants *TenantRepo, docs *DocumentRepo, stats *StatsRepo, chunk ChunkFunc, compress CompressFunc) *Migrator {
	return &Migrator{db: db, tenants: tenants, docs: docs, stats: stats, chunk: chunk, compress: compress}
}

func (m *Migrator) markers() *mongo.Collection {
	return m.db.Collection("migrations")
}

// Run imports the snapshot. A marker keyed by the snapshot checksum makes a
// completed import a no-op on the next invocation.
func (m *Migrator) Run(ctx context.Context, snap *Snapshot) (*MigrationReport, error) {
	report := &MigrationReport{SnapshotChecksum: snap.Checksum}

	var existing MigrationReport
	err := m.markers().FindOne(ctx, bson.M{"snapshot_checksum": snap.Checksum}).Decode(&existing)
	if err == nil {
		existing.AlreadyApplied = true
		return &existing, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("checking migration marker: %w", err)
	}

	// Stable iteration order keeps logs and partial-failure behavior
	// reproducible across runs.
	legacyIDs := make([]string, 0, len(snap.Tenants))
	for id := range snap.Tenants {
		legacyIDs = append(legacyIDs, id)
	}
	sort.Strings(legacyIDs)

	for _, legacyID := range legacyIDs {
		st := snap.Tenants[legacyID]
		tenant, created, err := m.importTenant(ctx, st)
		if err != nil {
			return report, fmt.Errorf("tenant %q: %w", st.CompanyDomain, err)
		}
		if created {
			report.TenantsCreated++
		} else {
			report.TenantsUpdated++
		}

		imported, skipped, err := m.importDocuments(ctx, tenant, snap.Documents[legacyID])
		if err != nil {
			return report, fmt.Errorf("documents for %q: %w", st.CompanyDomain, err)
		}
		report.DocumentsImported += imported
		report.DocumentsSkipped += skipped

		if st, ok := snap.Stats[legacyID]; ok {
			if err := m.mergeStats(ctx, tenant.TenantID, st); err != nil {
				return report, fmt.Errorf("stats for %q: %w", tenant.CompanyDomain, err)
			}
			report.StatsMerged++
		}
	}

	report.CompletedAt = time.Now().UTC()
	if _, err := m.markers().InsertOne(ctx, report); err != nil {
		return report, fmt.Errorf("writing migration marker: %w", err)
	}
	return report, nil
}

// importTenant creates the tenant when its domain is unknown. When the domain
// already exists the profile fields are refreshed but the live api_key is
// kept: rotating credentials is never a side effect of migration.
func (m *Migrator) importTenant(ctx context.Context, st SnapshotTenant) (*models.Tenant, bool, error) {
	existing, err := m.tenants.GetByDomain(ctx, st.CompanyDomain)
	if err == nil {
		set := MergeTenantSnapshot(existing, st)
		updated, err := m.tenants.Update(ctx, existing.TenantID, set)
		if err != nil {
			return nil, false, err
		}
		return updated, false, nil
	}
	if err != models.ErrNotFound {
		return nil, false, err
	}

	now := time.Now().UTC()
	tenant, err := NewTenantFromSnapshot(st, now)
	if err != nil {
		return nil, false, err
	}
	if err := m.tenants.Insert(ctx, tenant); err != nil {
		return nil, false, err
	}
	return tenant, true, nil
}

// NewTenantFromSnapshot builds a tenant record from a legacy export entry.
// Missing fields fall back the same way registration does; a missing api_key
// gets a freshly generated one.
func NewTenantFromSnapshot(st SnapshotTenant, now time.Time) (*models.Tenant, error) {
	plan := st.Plan
	if _, ok := models.DefaultPlanLimits[plan]; !ok {
		plan = models.PlanBasic
	}
	limits := models.DefaultPlanLimits[plan]

	status := st.Status
	if status != models.TenantActive && status != models.TenantSuspended {
		status = models.TenantActive
	}

	apiKey := st.APIKey
	if !utils.IsTenantKey(apiKey) {
		fresh, err := utils.GenerateAPIKey()
		if err != nil {
			return nil, err
		}
		apiKey = fresh
	}

	createdAt := ParseSnapshotTime(st.CreatedAt)
	if createdAt.IsZero() {
		createdAt = now
	}

	tenant := &models.Tenant{
		TenantID:         models.TenantSlug(st.CompanyDomain),
		CompanyName:      st.CompanyName,
		CompanyDomain:    st.CompanyDomain,
		CompanyEmail:     st.CompanyEmail,
		CompanyPhone:     st.CompanyPhone,
		APIKey:           apiKey,
		Status:           status,
		Plan:             plan,
		MaxDocuments:     limits.MaxDocuments,
		MaxQueriesPerDay: limits.MaxQueriesPerDay,
		Settings: models.TenantSettings{
			AIPersonality: st.AIPersonality,
			ResponseStyle: st.ResponseStyle,
		},
		CreatedAt: createdAt,
		UpdatedAt: now,
	}
	return tenant, nil
}

// MergeTenantSnapshot computes the update set for an existing tenant. Only
// profile fields move; tenant_id, api_key, plan limits and status stay as the
// live system has them.
func MergeTenantSnapshot(existing *models.Tenant, st SnapshotTenant) bson.M {
	set := bson.M{}
	if st.CompanyName != "" && st.CompanyName != existing.CompanyName {
		set["company_name"] = st.CompanyName
	}
	if st.CompanyEmail != "" && st.CompanyEmail != existing.CompanyEmail {
		set["company_email"] = st.CompanyEmail
	}
	if st.CompanyPhone != "" && st.CompanyPhone != existing.CompanyPhone {
		set["company_phone"] = st.CompanyPhone
	}
	if st.AIPersonality != "" && st.AIPersonality != existing.Settings.AIPersonality {
		set["settings.ai_personality"] = st.AIPersonality
	}
	if st.ResponseStyle != "" && st.ResponseStyle != existing.Settings.ResponseStyle {
		set["settings.response_style"] = st.ResponseStyle
	}
	return set
}

// importDocuments ingests snapshot documents that the tenant does not already
// have, keyed by filename. Already-present filenames are skipped untouched.
func (m *Migrator) importDocuments(ctx context.Context, tenant *models.Tenant, docs []SnapshotDocument) (imported, skipped int, err error) {
	if len(docs) == 0 {
		return 0, 0, nil
	}

	existing, err := m.docs.List(ctx, tenant.TenantID)
	if err != nil {
		return 0, 0, err
	}
	have := make(map[string]bool, len(existing))
	for _, d := range existing {
		have[d.Filename] = true
	}

	for _, sd := range docs {
		if have[sd.Filename] {
			skipped++
			continue
		}
		doc, records, err := m.buildDocument(tenant.TenantID, sd)
		if err != nil {
			return imported, skipped, fmt.Errorf("document %q: %w", sd.Filename, err)
		}
		if err := m.docs.Ingest(ctx, doc, records); err != nil {
			return imported, skipped, fmt.Errorf("document %q: %w", sd.Filename, err)
		}
		if err := m.stats.RecordDocument(ctx, tenant.TenantID, doc.ContentType, 1); err != nil {
			return imported, skipped, fmt.Errorf("document %q: %w", sd.Filename, err)
		}
		have[sd.Filename] = true
		imported++
	}
	return imported, skipped, nil
}

func (m *Migrator) buildDocument(tenantID string, sd SnapshotDocument) (*models.Document, []models.ChunkRecord, error) {
	chunks, err := m.chunk(sd.Content)
	if err != nil {
		return nil, nil, err
	}

	uploadedAt := ParseSnapshotTime(sd.UploadedAt)
	if uploadedAt.IsZero() {
		uploadedAt = time.Now().UTC()
	}
	contentType := sd.ContentType
	if contentType == "" {
		contentType = "text/plain"
	}

	// The embedded copy is compressed like a fresh upload; retrieval rows
	// keep plain text.
	stored := chunks
	if m.compress != nil {
		stored, err = m.compress(chunks)
		if err != nil {
			return nil, nil, err
		}
	}

	doc := &models.Document{
		DocumentID:  uuid.New().String(),
		TenantID:    tenantID,
		Filename:    sd.Filename,
		ContentType: contentType,
		Status:      models.StatusCompleted,
		ChunkCount:  len(chunks),
		CharCount:   len(sd.Content),
		Chunks:      stored,
		UploadedAt:  uploadedAt,
	}

	records := make([]models.ChunkRecord, len(chunks))
	for i, c := range chunks {
		records[i] = models.ChunkRecord{
			ChunkID:    c.ChunkID,
			TenantID:   tenantID,
			DocumentID: doc.DocumentID,
			Filename:   doc.Filename,
			Order:      c.Order,
			StartIndex: c.StartIndex,
			EndIndex:   c.EndIndex,
			Text:       c.Text,
			UploadedAt: uploadedAt,
		}
	}
	return doc, records, nil
}

// mergeStats folds snapshot counters into the live record without ever
// shrinking live counters: the result takes the maximum of each side.
func (m *Migrator) mergeStats(ctx context.Context, tenantID string, st SnapshotStats) error {
	live, err := m.stats.Get(ctx, tenantID)
	if err != nil {
		return err
	}
	merged := MergeUsageSnapshot(live, st)
	_, err = m.stats.col().UpdateOne(ctx, bson.M{"_id": tenantID},
		bson.M{"$set": bson.M{
			"total_documents": merged.TotalDocuments,
			"total_queries":   merged.TotalQueries,
			"daily":           merged.Daily,
			"popular_queries": merged.PopularQueries,
			"updated_at":      time.Now().UTC(),
		}},
		options.Update().SetUpsert(true))
	return err
}

// MergeUsageSnapshot combines live and snapshot counters. Counters take the
// larger value per key; popular tables merge by query with summed counts.
func MergeUsageSnapshot(live *models.UsageStat, st SnapshotStats) *models.UsageStat {
	out := &models.UsageStat{
		TenantID:       live.TenantID,
		TotalDocuments: live.TotalDocuments,
		TotalQueries:   live.TotalQueries,
		Daily:          map[string]int64{},
		LastQueryAt:    live.LastQueryAt,
		DocumentTypes:  live.DocumentTypes,
	}
	if st.TotalDocuments > out.TotalDocuments {
		out.TotalDocuments = st.TotalDocuments
	}
	if st.TotalQueries > out.TotalQueries {
		out.TotalQueries = st.TotalQueries
	}
	for day, n := range live.Daily {
		out.Daily[day] = n
	}
	for day, n := range st.Daily {
		if n > out.Daily[day] {
			out.Daily[day] = n
		}
	}

	byQuery := map[string]models.PopularQuery{}
	for _, q := range live.PopularQueries {
		byQuery[q.Query] = q
	}
	for _, sq := range st.PopularQueries {
		entry, ok := byQuery[sq.Query]
		if !ok {
			byQuery[sq.Query] = models.PopularQuery{
				Query:    sq.Query,
				Count:    sq.Count,
				LastSeen: ParseSnapshotTime(sq.LastSeen),
			}
			continue
		}
		entry.Count += sq.Count
		if seen := ParseSnapshotTime(sq.LastSeen); seen.After(entry.LastSeen) {
			entry.LastSeen = seen
		}
		byQuery[sq.Query] = entry
	}
	for _, q := range byQuery {
		out.PopularQueries = append(out.PopularQueries, q)
	}
	out.PopularQueries = TopQueries(out.PopularQueries)
	return out
}
