package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrQuotaExceeded   = errors.New("storage quota exceeded")
	ErrInvalidPriority = errors.New("invalid priority: must be critical, high, or normal")
	ErrMissingData     = errors.New("event data must be present")
	ErrBatchEmpty      = errors.New("batch must contain at least one event")
	ErrBatchTooLarge   = errors.New("batch exceeds maximum of 1000 events")
)
