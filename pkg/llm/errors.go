package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies generation failures for retry decisions.
type ErrorType int8

const (
	// Retryable error types.

	// ErrorTypeRateLimit represents rate limiting and quota exhaustion (429).
	ErrorTypeRateLimit ErrorType = iota
	// ErrorTypeTransient represents transient failures (5xx, connection reset).
	ErrorTypeTransient
	// ErrorTypeTimeout represents a deadline breach on the provider call.
	ErrorTypeTimeout
	// ErrorTypeEmptyResponse represents an HTTP 200 with no content.
	ErrorTypeEmptyResponse

	// Non-retryable error types.

	// ErrorTypeAuth represents authentication failures (401/403).
	ErrorTypeAuth
	// ErrorTypeBadPrompt represents malformed or rejected requests.
	ErrorTypeBadPrompt
	// ErrorTypeUnknown is the default for unclassified errors.
	ErrorTypeUnknown
)

// String returns the string representation of the error type.
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeEmptyResponse:
		return "empty_response"
	case ErrorTypeAuth:
		return "auth"
	case ErrorTypeBadPrompt:
		return "bad_prompt"
	case ErrorTypeUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// Retryable reports whether errors of this type may be retried under a
// backoff policy.
func (et ErrorType) Retryable() bool {
	switch et {
	case ErrorTypeRateLimit, ErrorTypeTransient, ErrorTypeTimeout, ErrorTypeEmptyResponse:
		return true
	default:
		return false
	}
}

// Error is a classified provider failure.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a classified error without a cause.
func NewError(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// WrapError classifies err under the given type.
func WrapError(t ErrorType, message string, err error) *Error {
	return &Error{Type: t, Message: message, Cause: err}
}

// TypeOf returns the classification of err, classifying raw errors on the
// fly when no *Error is present in the chain.
func TypeOf(err error) ErrorType {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Type
	}
	return classify(err)
}

// classify maps raw SDK and transport errors onto error types by message
// inspection, mirroring the status-code families each provider reports.
func classify(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "quota"):
		return ErrorTypeRateLimit
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "deadline exceeded"):
		return ErrorTypeTimeout
	case strings.Contains(msg, "500"),
		strings.Contains(msg, "502"),
		strings.Contains(msg, "503"),
		strings.Contains(msg, "504"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "broken pipe"),
		strings.Contains(msg, "overloaded"):
		return ErrorTypeTransient
	case strings.Contains(msg, "401"),
		strings.Contains(msg, "403"),
		strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "forbidden"),
		strings.Contains(msg, "api key"):
		return ErrorTypeAuth
	case strings.Contains(msg, "400"),
		strings.Contains(msg, "bad request"),
		strings.Contains(msg, "invalid request"):
		return ErrorTypeBadPrompt
	case strings.Contains(msg, "empty response"):
		return ErrorTypeEmptyResponse
	default:
		return ErrorTypeUnknown
	}
}

// Classify wraps a raw error into a typed *Error. Already-typed errors are
// returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var lerr *Error
	if errors.As(err, &lerr) {
		return err
	}
	return WrapError(classify(err), "provider call failed", err)
}
