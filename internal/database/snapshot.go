package database

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Snapshot file names as produced by the legacy export.
const (
	SnapshotTenantsFile   = "tenants.json"
	SnapshotDocumentsFile = "tenant_documents.json"
	SnapshotStatsFile     = "tenant_stats.json"
)

// SnapshotTenant is one tenant record as serialized by the legacy system.
type SnapshotTenant struct {
	CompanyName   string `json:"company_name"`
	CompanyDomain string `json:"company_domain"`
	CompanyEmail  string `json:"company_email"`
	CompanyPhone  string `json:"company_phone"`
	APIKey        string `json:"api_key"`
	Plan          string `json:"plan"`
	Status        string `json:"status"`
	AIPersonality string `json:"ai_personality"`
	ResponseStyle string `json:"response_style"`
	CreatedAt     string `json:"created_at"`
}

// SnapshotDocument carries raw extracted text; the import re-chunks it with
// the current chunking configuration.
type SnapshotDocument struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
	UploadedAt  string `json:"uploaded_at"`
}

type SnapshotStats struct {
	TotalDocuments int              `json:"total_documents"`
	TotalQueries   int64            `json:"total_queries"`
	Daily          map[string]int64 `json:"daily"`
	PopularQueries []SnapshotQuery  `json:"popular_queries"`
}

type SnapshotQuery struct {
	Query    string `json:"query"`
	Count    int    `json:"count"`
	LastSeen string `json:"last_seen"`
}

// Snapshot is the parsed legacy export, keyed by legacy tenant id.
type Snapshot struct {
	Tenants   map[string]SnapshotTenant
	Documents map[string][]SnapshotDocument
	Stats     map[string]SnapshotStats
	Checksum  string
}

// LoadSnapshot reads the three export files from dir. tenants.json is
// required; the other two files may be absent. The checksum covers the raw
// bytes of every file present, in fixed order.
func LoadSnapshot(dir string) (*Snapshot, error) {
	snap := &Snapshot{
		Tenants:   map[string]SnapshotTenant{},
		Documents: map[string][]SnapshotDocument{},
		Stats:     map[string]SnapshotStats{},
	}

	hash := sha256.New()

	tenantBytes, err := os.ReadFile(filepath.Join(dir, SnapshotTenantsFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", SnapshotTenantsFile, err)
	}
	if err := json.Unmarshal(tenantBytes, &snap.Tenants); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", SnapshotTenantsFile, err)
	}
	hash.Write(tenantBytes)

	if docBytes, err := os.ReadFile(filepath.Join(dir, SnapshotDocumentsFile)); err == nil {
		if err := json.Unmarshal(docBytes, &snap.Documents); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", SnapshotDocumentsFile, err)
		}
		hash.Write(docBytes)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", SnapshotDocumentsFile, err)
	}

	if statBytes, err := os.ReadFile(filepath.Join(dir, SnapshotStatsFile)); err == nil {
		if err := json.Unmarshal(statBytes, &snap.Stats); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", SnapshotStatsFile, err)
		}
		hash.Write(statBytes)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", SnapshotStatsFile, err)
	}

	snap.Checksum = hex.EncodeToString(hash.Sum(nil))
	return snap, nil
}

// ParseSnapshotTime accepts the timestamp layouts the legacy exporter used.
// A zero time means the field was absent or unparseable.
func ParseSnapshotTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
