package errors

import (
	"errors"
	"fmt"
)

// RecallError is the structured error type for recall.
// It carries enough context for logging, classification, and retry
// decisions without string matching.
type RecallError struct {
	// Code is the unique error code (e.g., "ERR_301_PROVIDER_REQUEST").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Cache, Provider, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error, if any.
	Cause error

	// Retryable indicates if the failed operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *RecallError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *RecallError) Unwrap() error {
	return e.Cause
}

// Is matches by code so that errors.Is works with RecallError targets.
func (e *RecallError) Is(target error) bool {
	if t, ok := target.(*RecallError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *RecallError) WithDetail(key, value string) *RecallError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a RecallError with the given code and message.
// Category, severity, and the retryable flag are derived from the code.
func New(code string, message string, cause error) *RecallError {
	return &RecallError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a RecallError from an existing error.
// Returns nil when err is nil.
func Wrap(code string, err error) *RecallError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration error: invalid chunking parameters,
// a provider selected without required credentials, or a malformed config
// file. Fails fast, before any I/O.
func ConfigError(message string, cause error) *RecallError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ChunkParamsError creates a config error for invalid chunking parameters.
func ChunkParamsError(message string) *RecallError {
	return New(ErrCodeChunkParams, message, nil)
}

// ProviderError creates an error for a failed embedding call, carrying the
// underlying cause.
func ProviderError(message string, cause error) *RecallError {
	return New(ErrCodeProviderRequest, message, cause)
}

// CacheError creates an error for a failed cache-document read or write.
func CacheError(code string, message string, cause error) *RecallError {
	return New(code, message, cause)
}

// DimensionMismatch creates a validation error for a similarity comparison
// between vectors of different dimensionality.
func DimensionMismatch(expected, got int) *RecallError {
	return New(ErrCodeDimensionMismatch,
		fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", expected, got), nil).
		WithDetail("expected", fmt.Sprintf("%d", expected)).
		WithDetail("got", fmt.Sprintf("%d", got))
}

// IsCode reports whether err (or anything in its chain) carries the code.
func IsCode(err error, code string) bool {
	var re *RecallError
	for ; err != nil; err = errors.Unwrap(err) {
		if errors.As(err, &re) && re.Code == code {
			return true
		}
	}
	return false
}

// IsCategory reports whether err carries the given category.
func IsCategory(err error, cat Category) bool {
	var re *RecallError
	if errors.As(err, &re) {
		return re.Category == cat
	}
	return false
}

// IsRetryable reports whether the failed operation may be retried.
func IsRetryable(err error) bool {
	var re *RecallError
	if errors.As(err, &re) {
		return re.Retryable
	}
	return false
}

// GetCode extracts the error code, or "" when err is not a RecallError.
func GetCode(err error) string {
	var re *RecallError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
