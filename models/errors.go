package models

import "errors"

// Stable error kinds surfaced across the service boundary. Handlers map these
// to HTTP codes; internal storage/provider detail never crosses the tenant
// boundary, only the kind and its message.
var (
	ErrInvalidCredential     = errors.New("invalid_credential")
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("not_found")
	ErrDuplicateTenant       = errors.New("duplicate_tenant")
	ErrQuotaExceeded         = errors.New("quota_exceeded")
	ErrEmptyDocument         = errors.New("empty_document")
	ErrStorageUnavailable    = errors.New("storage_unavailable")
	ErrGenerationUnavailable = errors.New("generation_unavailable")
)

// ErrorKind returns the machine-readable code for a wrapped error, or
// "internal_error" when the error does not map to a known kind.
func ErrorKind(err error) string {
	for _, kind := range []error{
		ErrInvalidCredential,
		ErrForbidden,
		ErrNotFound,
		ErrDuplicateTenant,
		ErrQuotaExceeded,
		ErrEmptyDocument,
		ErrStorageUnavailable,
		ErrGenerationUnavailable,
	} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "internal_error"
}
