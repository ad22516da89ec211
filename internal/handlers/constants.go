package handlers

const (
	RequestIDHeader = "X-Request-ID"

	ErrInvalidRequestBody  = "Invalid request body"
	ErrInvalidShareToken   = "Invalid share token"
	ErrTooManyRequests     = "Too many requests"
	ErrInternalServerError = "Internal server error"
	ErrExportFailed        = "Export failed"

	maxRequestBody = 64 << 10
	maxImportBody  = 16 << 20
)
