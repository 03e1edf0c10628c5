package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"docqa-platform/internal/logger"
	"docqa-platform/models"
	"docqa-platform/services"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const TaskDocumentIngest = "document:ingest"

// DocumentIngestPayload identifies a pending document and the staged file
// holding its raw bytes.
type DocumentIngestPayload struct {
	TenantID    string `json:"tenant_id"`
	DocumentID  string `json:"document_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	FilePath    string `json:"file_path"`
}

// NewDocumentIngestTask builds the asynq task for a staged upload.
func NewDocumentIngestTask(payload DocumentIngestPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(
		TaskDocumentIngest,
		data,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("ingest"),
	), nil
}

// TaskProcessor handles queued ingestion on the worker side.
type TaskProcessor struct {
	documents *services.DocumentService
}

func NewTaskProcessor(documents *services.DocumentService) *TaskProcessor {
	return &TaskProcessor{documents: documents}
}

// Register mounts the handlers on an asynq mux.
func (p *TaskProcessor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskDocumentIngest, p.ProcessDocumentIngest)
}

// ProcessDocumentIngest runs extraction and indexing for a staged upload and
// removes the staged file afterwards. Domain failures (empty document) mark
// the row failed and do not retry; transient storage errors retry.
func (p *TaskProcessor) ProcessDocumentIngest(ctx context.Context, t *asynq.Task) error {
	var payload DocumentIngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	logger.Info("processing document ingest task",
		"tenant_id", payload.TenantID,
		"document_id", payload.DocumentID,
		"filename", payload.Filename)

	content, err := os.ReadFile(payload.FilePath)
	if err != nil {
		failErr := p.documents.FailPending(ctx, payload.TenantID, payload.DocumentID, "staged file unreadable")
		if failErr != nil {
			logger.Error("failed to mark document failed", "document_id", payload.DocumentID, "error", failErr)
		}
		return fmt.Errorf("reading staged file: %v: %w", err, asynq.SkipRetry)
	}

	err = p.documents.CompletePending(ctx, payload.TenantID, payload.DocumentID, payload.Filename, payload.ContentType, content)
	if err != nil {
		if errors.Is(err, models.ErrEmptyDocument) {
			// Already marked failed by the service.
			os.Remove(payload.FilePath)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	if err := os.Remove(payload.FilePath); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove staged file", "path", payload.FilePath, "error", err)
	}
	return nil
}

// RedisOpt builds the asynq connection options from the same REDIS_URL
// setting the rest of the app uses: either a redis:// / rediss:// URL or a
// plain host:port with separate password and db.
func RedisOpt(redisAddr, redisPassword string, redisDB int) asynq.RedisClientOpt {
	if strings.HasPrefix(redisAddr, "redis://") || strings.HasPrefix(redisAddr, "rediss://") {
		if parsed, err := redis.ParseURL(redisAddr); err == nil {
			return asynq.RedisClientOpt{
				Network:   parsed.Network,
				Addr:      parsed.Addr,
				Username:  parsed.Username,
				Password:  parsed.Password,
				DB:        parsed.DB,
				TLSConfig: parsed.TLSConfig,
			}
		}
	}
	return asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	}
}

// Client wraps the asynq producer used by the upload handler.
type Client struct {
	client *asynq.Client
}

func NewClient(redisAddr, redisPassword string, redisDB int) *Client {
	return &Client{client: asynq.NewClient(RedisOpt(redisAddr, redisPassword, redisDB))}
}

// EnqueueDocumentIngest queues processing for a staged upload.
func (c *Client) EnqueueDocumentIngest(ctx context.Context, payload DocumentIngestPayload) (string, error) {
	task, err := NewDocumentIngestTask(payload)
	if err != nil {
		return "", err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
