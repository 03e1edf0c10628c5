package utils

import (
	"errors"
	"net/http"

	"docqa-platform/models"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standardized error envelope.
type ErrorResponse struct {
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// RespondWithError sends a standardized error response.
func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
	})
}

// RespondWithAppError maps a service error to its HTTP status and stable
// error code. Internal detail never leaves the process; only the kind and a
// human-readable message do.
func RespondWithAppError(c *gin.Context, err error) {
	kind := models.ErrorKind(err)
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, models.ErrInvalidCredential):
		status, message = http.StatusUnauthorized, "Invalid or missing credential"
	case errors.Is(err, models.ErrForbidden):
		status, message = http.StatusForbidden, "Not permitted for this tenant"
	case errors.Is(err, models.ErrNotFound):
		status, message = http.StatusNotFound, "Resource not found"
	case errors.Is(err, models.ErrDuplicateTenant):
		status, message = http.StatusConflict, "A tenant with this domain already exists"
	case errors.Is(err, models.ErrQuotaExceeded):
		status, message = http.StatusTooManyRequests, "Plan quota exceeded"
	case errors.Is(err, models.ErrEmptyDocument):
		status, message = http.StatusBadRequest, "Document contains no extractable text"
	case errors.Is(err, models.ErrStorageUnavailable):
		status, message = http.StatusServiceUnavailable, "Storage temporarily unavailable"
	case errors.Is(err, models.ErrGenerationUnavailable):
		status, message = http.StatusBadGateway, "Answer generation temporarily unavailable"
	}

	RespondWithError(c, status, kind, message, nil)
}

// RespondWithBadRequest sends a 400 Bad Request error.
func RespondWithBadRequest(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, "bad_request", message, details)
}

// RespondWithUnauthorized sends a 401 Unauthorized error.
func RespondWithUnauthorized(c *gin.Context, message string) {
	RespondWithError(c, http.StatusUnauthorized, "invalid_credential", message, nil)
}

// RespondWithForbidden sends a 403 Forbidden error.
func RespondWithForbidden(c *gin.Context, message string) {
	RespondWithError(c, http.StatusForbidden, "forbidden", message, nil)
}
