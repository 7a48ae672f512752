package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrNotReady         = errors.New("job not done or unknown")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrConcurrencyLimit = errors.New("provider concurrency limit exceeded")
)

// ConcurrencyLimitCode is the provider error code returned when the account
// already has the maximum number of jobs in flight.
const ConcurrencyLimitCode = "RequestLimitExceeded.JobNumExceed"

// ValidationError reports bad or missing client input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError is a small helper for the common case.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ProviderError wraps any failure reported by, or while talking to, the
// remote generation provider.
type ProviderError struct {
	Code      string
	Message   string
	RequestID string
	Err       error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("provider: %s: %s", e.Code, e.Message)
	case e.Message != "":
		return "provider: " + e.Message
	case e.Err != nil:
		return "provider: " + e.Err.Error()
	default:
		return "provider: unknown error"
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is lets callers test errors.Is(err, ErrConcurrencyLimit).
func (e *ProviderError) Is(target error) bool {
	if target != ErrConcurrencyLimit {
		return false
	}
	return strings.Contains(e.Code, ConcurrencyLimitCode) || strings.Contains(e.Message, ConcurrencyLimitCode)
}

// DownloadError reports a transport failure while fetching a remote image or
// result asset.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }
