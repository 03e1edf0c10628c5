package services

import (
	"context"
	"fmt"
	"time"

	"docqa-platform/internal/logger"
	"docqa-platform/internal/telemetry"
	"docqa-platform/models"

	"github.com/google/uuid"
)

// DocumentService owns the ingestion pipeline: quota check, text extraction,
// chunking, compression and the atomic write of document plus index rows.
type DocumentService struct {
	docs      DocumentStore
	stats     StatsStore
	extractor *Extractor
	chunker   *Chunker
	cache     *ChunkCache
	metrics   *telemetry.Metrics
}

func NewDocumentService(docs DocumentStore, stats StatsStore, extractor *Extractor, chunker *Chunker, cache *ChunkCache, metrics *telemetry.Metrics) *DocumentService {
	return &DocumentService{
		docs:      docs,
		stats:     stats,
		extractor: extractor,
		chunker:   chunker,
		cache:     cache,
		metrics:   metrics,
	}
}

// Chunker exposes the configured chunker, shared with the snapshot importer.
func (s *DocumentService) Chunker() *Chunker {
	return s.chunker
}

func (s *DocumentService) checkQuota(ctx context.Context, tenant *models.Tenant) error {
	count, err := s.docs.Count(ctx, tenant.TenantID)
	if err != nil {
		return err
	}
	if count >= int64(tenant.MaxDocuments) {
		return fmt.Errorf("%w: document limit %d reached", models.ErrQuotaExceeded, tenant.MaxDocuments)
	}
	return nil
}

// Upload ingests a document synchronously: the response carries the final
// chunk count and the document is immediately retrievable.
func (s *DocumentService) Upload(ctx context.Context, tenant *models.Tenant, filename, contentType string, content []byte) (*models.UploadResponse, error) {
	if err := s.checkQuota(ctx, tenant); err != nil {
		return nil, err
	}

	text, err := s.extractor.Extract(contentType, content)
	if err != nil {
		return nil, err
	}

	doc, records, err := s.buildDocument(tenant.TenantID, filename, contentType, text, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.docs.Ingest(ctx, doc, records); err != nil {
		return nil, err
	}
	s.afterIngest(ctx, tenant.TenantID, contentType, len(records))

	logger.Info("document ingested",
		"tenant_id", tenant.TenantID,
		"document_id", doc.DocumentID,
		"filename", filename,
		"chunks", doc.ChunkCount)

	return &models.UploadResponse{
		DocumentID: doc.DocumentID,
		Filename:   filename,
		Status:     doc.Status,
		ChunkCount: doc.ChunkCount,
	}, nil
}

// CreatePending reserves a document row for an asynchronous upload. The row
// counts toward quota immediately; retrieval ignores it until completion.
func (s *DocumentService) CreatePending(ctx context.Context, tenant *models.Tenant, filename, contentType string) (*models.Document, error) {
	if err := s.checkQuota(ctx, tenant); err != nil {
		return nil, err
	}

	doc := &models.Document{
		DocumentID:  uuid.New().String(),
		TenantID:    tenant.TenantID,
		Filename:    filename,
		ContentType: contentType,
		Status:      models.StatusPending,
		UploadedAt:  time.Now().UTC(),
	}
	if err := s.docs.InsertPending(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// CompletePending runs extraction and indexing for a pending document. On
// extraction failure the row flips to failed with the reason recorded.
func (s *DocumentService) CompletePending(ctx context.Context, tenantID, documentID, filename, contentType string, content []byte) error {
	text, err := s.extractor.Extract(contentType, content)
	if err != nil {
		if failErr := s.docs.Fail(ctx, tenantID, documentID, err.Error()); failErr != nil {
			logger.Error("failed to mark document failed",
				"tenant_id", tenantID, "document_id", documentID, "error", failErr)
		}
		return err
	}

	doc, records, err := s.buildDocument(tenantID, filename, contentType, text, time.Now().UTC())
	if err != nil {
		return err
	}
	doc.DocumentID = documentID
	for i := range records {
		records[i].DocumentID = documentID
	}

	if err := s.docs.Complete(ctx, doc, records); err != nil {
		return err
	}
	s.afterIngest(ctx, tenantID, contentType, len(records))

	logger.Info("async document completed",
		"tenant_id", tenantID, "document_id", documentID, "chunks", doc.ChunkCount)
	return nil
}

// FailPending marks a pending document failed with the reason.
func (s *DocumentService) FailPending(ctx context.Context, tenantID, documentID, reason string) error {
	return s.docs.Fail(ctx, tenantID, documentID, reason)
}

func (s *DocumentService) buildDocument(tenantID, filename, contentType, text string, uploadedAt time.Time) (*models.Document, []models.ChunkRecord, error) {
	chunks, err := s.chunker.Chunk(text)
	if err != nil {
		return nil, nil, err
	}

	documentID := uuid.New().String()
	records := make([]models.ChunkRecord, len(chunks))
	for i, c := range chunks {
		records[i] = models.ChunkRecord{
			ChunkID:    c.ChunkID,
			TenantID:   tenantID,
			DocumentID: documentID,
			Filename:   filename,
			Order:      c.Order,
			StartIndex: c.StartIndex,
			EndIndex:   c.EndIndex,
			Text:       c.Text,
			UploadedAt: uploadedAt,
		}
	}

	stored, err := CompressChunksForStorage(chunks)
	if err != nil {
		return nil, nil, err
	}

	doc := &models.Document{
		DocumentID:  documentID,
		TenantID:    tenantID,
		Filename:    filename,
		ContentType: contentType,
		Status:      models.StatusCompleted,
		ChunkCount:  len(chunks),
		CharCount:   len(text),
		Chunks:      stored,
		UploadedAt:  uploadedAt,
	}
	return doc, records, nil
}

func (s *DocumentService) afterIngest(ctx context.Context, tenantID, contentType string, chunks int) {
	s.cache.Invalidate(ctx, tenantID)
	if err := s.stats.RecordDocument(ctx, tenantID, contentType, 1); err != nil {
		logger.Warn("failed to record document stats", "tenant_id", tenantID, "error", err)
	}
	s.metrics.RecordIngest(ctx, tenantID, chunks)
}

// List returns the tenant's documents, newest first.
func (s *DocumentService) List(ctx context.Context, tenantID string) ([]models.Document, error) {
	return s.docs.List(ctx, tenantID)
}

// Get returns one document with its chunk texts restored.
func (s *DocumentService) Get(ctx context.Context, tenantID, documentID string) (*models.Document, error) {
	doc, err := s.docs.Get(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	chunks, err := DecompressChunksForRetrieval(doc.Chunks)
	if err != nil {
		return nil, err
	}
	doc.Chunks = chunks
	return doc, nil
}

// Delete removes the document and its index rows, then adjusts counters and
// drops the tenant's cached chunks.
func (s *DocumentService) Delete(ctx context.Context, tenantID, documentID string) error {
	doc, err := s.docs.Delete(ctx, tenantID, documentID)
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, tenantID)
	if err := s.stats.RecordDocument(ctx, tenantID, doc.ContentType, -1); err != nil {
		logger.Warn("failed to record document stats", "tenant_id", tenantID, "error", err)
	}
	logger.Info("document deleted", "tenant_id", tenantID, "document_id", documentID)
	return nil
}
