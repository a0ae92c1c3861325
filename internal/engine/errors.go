// internal/engine/errors.go
package engine

import (
	"context"
	"errors"
	"fmt"
)

// Common engine errors
var (
	ErrNoURL           = errors.New("no resolvable link")
	ErrBrowserNotFound = errors.New("chrome browser not found")
	ErrBrowserClosed   = errors.New("browser is closed")
	ErrTimeout         = errors.New("navigation timeout")
	ErrInvalidURL      = errors.New("invalid URL")
	ErrParseError      = errors.New("failed to parse rendered page")
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	ErrCodeNavigation ErrorCode = "NAVIGATION"
	ErrCodeExtraction ErrorCode = "EXTRACTION"
	ErrCodeInput      ErrorCode = "INPUT"
)

// EngineError wraps errors with additional context
type EngineError struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Retry      bool
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// Is checks if the error matches the target
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// NewEngineError creates a new EngineError
func NewEngineError(code ErrorCode, message string, err error) *EngineError {
	return &EngineError{
		Code:       code,
		Message:    message,
		Underlying: err,
		Retry:      false,
		Details:    make(map[string]interface{}),
	}
}

// Temporary reports whether another attempt may succeed
func (e *EngineError) Temporary() bool {
	return e.Retry
}

// WithRetry marks the error as retryable
func (e *EngineError) WithRetry() *EngineError {
	e.Retry = true
	return e
}

// WithDetail adds a detail to the error
func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	e.Details[key] = value
	return e
}

// NavigationError reports a failed render: timeout, network failure or an
// unreachable host. Timeouts and network failures are retryable.
func NavigationError(url string, err error) *EngineError {
	e := NewEngineError(ErrCodeNavigation, "navigation failed", err).WithDetail("url", url)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout) {
		e.Message = "navigation timed out"
		e.Retry = true
	}
	return e
}

// ExtractionError reports a failure while querying or parsing a rendered DOM.
func ExtractionError(stage string, err error) *EngineError {
	return NewEngineError(ErrCodeExtraction, stage, err)
}

// FatalInputError reports an unreadable record collection. It is the only
// error that aborts a batch.
func FatalInputError(path string, err error) *EngineError {
	return NewEngineError(ErrCodeInput, "cannot read record collection", err).WithDetail("path", path)
}

// IsCode reports whether err carries code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}

// IsRetryable reports whether err was marked retryable.
func IsRetryable(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee) && ee.Retry
}
