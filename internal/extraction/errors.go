package extraction

import "errors"

var (
	// ErrQueueNotConfigured is returned when the async path is requested
	// but no queue client is wired.
	ErrQueueNotConfigured = errors.New("job queue not configured")
)

const (
	errorCodeLLMTimeout     = "LLM_TIMEOUT"
	errorCodeSchemaMismatch = "LLM_SCHEMA_MISMATCH"
	errorCodeStorage        = "STORAGE_ERROR"
	errorCodeInternal       = "INTERNAL_ERROR"
)
