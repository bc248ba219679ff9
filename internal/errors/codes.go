// Package errors provides structured error handling for recall.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Cache and disk I/O errors
//   - 3XX: Embedding provider errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryCache indicates cache-document read/write errors.
	CategoryCache Category = "CACHE"
	// CategoryProvider indicates embedding-provider errors.
	CategoryProvider Category = "PROVIDER"
	// CategoryValidation indicates precondition violations.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates an unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed but the process can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Configuration errors (1XX). Precondition violations: surfaced
	// synchronously, never retried.
	ErrCodeConfigInvalid       = "ERR_101_CONFIG_INVALID"
	ErrCodeChunkParams         = "ERR_102_CHUNK_PARAMS"
	ErrCodeProviderCredentials = "ERR_103_PROVIDER_CREDENTIALS"

	// Cache errors (2XX). Recoverable: a failed load means "no usable
	// cache", a failed save is logged and the next burst retries.
	ErrCodeCacheRead    = "ERR_201_CACHE_READ"
	ErrCodeCacheWrite   = "ERR_202_CACHE_WRITE"
	ErrCodeCacheInvalid = "ERR_203_CACHE_INVALID"

	// Provider errors (3XX). Network, auth, rate-limit, or malformed
	// responses from an embedding call.
	ErrCodeProviderRequest   = "ERR_301_PROVIDER_REQUEST"
	ErrCodeProviderResponse  = "ERR_302_PROVIDER_RESPONSE"
	ErrCodeProviderRateLimit = "ERR_303_PROVIDER_RATE_LIMIT"

	// Validation errors (4XX).
	ErrCodeDimensionMismatch = "ERR_401_DIMENSION_MISMATCH"
	ErrCodeInvalidInput      = "ERR_402_INVALID_INPUT"

	// Internal errors (5XX).
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode derives the category from the code's numeric block.
func categoryFromCode(code string) Category {
	if len(code) < 5 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryCache
	case '3':
		return CategoryProvider
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode derives the default severity for a code.
func severityFromCode(code string) Severity {
	switch categoryFromCode(code) {
	case CategoryConfig, CategoryValidation:
		return SeverityFatal
	case CategoryCache:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// isRetryableCode reports whether operations failing with this code may
// be retried. Only transient provider failures qualify.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeProviderRequest, ErrCodeProviderRateLimit:
		return true
	default:
		return false
	}
}
