package routes

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"docqa-platform/internal/logger"
	"docqa-platform/internal/queue"
	"docqa-platform/middleware"
	"docqa-platform/models"
	"docqa-platform/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SetupDocumentRoutes mounts the per-tenant document endpoints. Every route
// passes RequireTenant, so a tenant key only ever reaches its own documents.
func SetupDocumentRoutes(router *gin.Engine, deps Deps, access *middleware.AccessControl) {
	docs := router.Group("/tenants/:tenant_id/documents")
	docs.Use(access.Authenticate())
	docs.Use(middleware.RateLimitMiddleware(deps.Redis, deps.Config))
	docs.Use(access.RequireTenant("tenant_id"))
	if deps.Config.TracingEnabled {
		docs.Use(middleware.EnrichTrace())
	}

	docs.POST("", func(c *gin.Context) {
		tenant := middleware.CurrentTenant(c)

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "Multipart field 'file' is required", nil)
			return
		}
		defer file.Close()

		if header.Size > deps.Config.MaxFileSize {
			utils.RespondWithBadRequest(c, "File exceeds the maximum upload size", gin.H{
				"max_file_size": deps.Config.MaxFileSize,
			})
			return
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		// Large uploads go through the queue; the response carries the
		// pending document id and the task id for polling.
		if header.Size > deps.Config.AsyncUploadThreshold && deps.Queue != nil {
			resp, err := stageAsyncUpload(c, deps, tenant, header.Filename, contentType, file)
			if err != nil {
				utils.RespondWithAppError(c, err)
				return
			}
			c.JSON(http.StatusAccepted, resp)
			return
		}

		content, err := io.ReadAll(io.LimitReader(file, deps.Config.MaxFileSize+1))
		if err != nil {
			utils.RespondWithBadRequest(c, "Failed to read upload", nil)
			return
		}

		resp, err := deps.Documents.Upload(c.Request.Context(), tenant, header.Filename, contentType, content)
		if err != nil {
			utils.RespondWithAppError(c, err)
			return
		}
		c.JSON(http.StatusCreated, resp)
	})

	docs.GET("", func(c *gin.Context) {
		tenant := middleware.CurrentTenant(c)
		list, err := deps.Documents.List(c.Request.Context(), tenant.TenantID)
		if err != nil {
			utils.RespondWithAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"documents": list, "count": len(list)})
	})

	docs.GET("/:document_id", func(c *gin.Context) {
		tenant := middleware.CurrentTenant(c)
		doc, err := deps.Documents.Get(c.Request.Context(), tenant.TenantID, c.Param("document_id"))
		if err != nil {
			utils.RespondWithAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, doc)
	})

	docs.DELETE("/:document_id", func(c *gin.Context) {
		tenant := middleware.CurrentTenant(c)
		if err := deps.Documents.Delete(c.Request.Context(), tenant.TenantID, c.Param("document_id")); err != nil {
			utils.RespondWithAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "document removed"})
	})
}

// stageAsyncUpload writes the payload to the staging directory, reserves a
// pending document row and queues the ingest task.
func stageAsyncUpload(c *gin.Context, deps Deps, tenant *models.Tenant, filename, contentType string, file io.Reader) (*models.UploadResponse, error) {
	doc, err := deps.Documents.CreatePending(c.Request.Context(), tenant, filename, contentType)
	if err != nil {
		return nil, err
	}

	stagingDir := filepath.Join(deps.Config.FileStorageDir, tenant.TenantID)
	if err := os.MkdirAll(stagingDir, 0o750); err != nil {
		return nil, err
	}
	stagedPath := filepath.Join(stagingDir, doc.DocumentID+"-"+uuid.NewString())

	out, err := os.Create(stagedPath)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(out, io.LimitReader(file, deps.Config.MaxFileSize+1)); err != nil {
		out.Close()
		os.Remove(stagedPath)
		return nil, err
	}
	if err := out.Close(); err != nil {
		os.Remove(stagedPath)
		return nil, err
	}

	taskID, err := deps.Queue.EnqueueDocumentIngest(c.Request.Context(), queue.DocumentIngestPayload{
		TenantID:    tenant.TenantID,
		DocumentID:  doc.DocumentID,
		Filename:    filename,
		ContentType: contentType,
		FilePath:    stagedPath,
	})
	if err != nil {
		os.Remove(stagedPath)
		if failErr := deps.Documents.FailPending(c.Request.Context(), tenant.TenantID, doc.DocumentID, "enqueue failed"); failErr != nil {
			logger.Error("failed to mark document failed", "document_id", doc.DocumentID, "error", failErr)
		}
		return nil, err
	}

	return &models.UploadResponse{
		DocumentID: doc.DocumentID,
		Filename:   filename,
		Status:     models.StatusPending,
		Message:    "document accepted for processing",
		TaskID:     taskID,
	}, nil
}
