// Package errors provides the error taxonomy used across Emerald.
// Every failure on the report path is classified into a Kind so callers can
// log and count it before degrading to the fallback report.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// =============================================================================
// Base Error Types
// =============================================================================

// Error is the base error type for all Emerald errors.
type Error struct {
	// Kind indicates the category of error
	Kind Kind

	// Op is the operation being performed (e.g., "gemini.GenerateContent")
	Op string

	// Message is a human-readable description
	Message string

	// Err is the underlying error
	Err error
}

// Kind represents the kind/category of error.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindRateLimit
	KindTimeout
	KindNetwork
	KindServer
	KindMalformedResponse
	KindSchemaViolation
	KindBlocked
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindRateLimit:
		return "rate_limit"
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindMalformedResponse:
		return "malformed_response"
	case KindSchemaViolation:
		return "schema_violation"
	case KindBlocked:
		return "blocked"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error renders "op: message: cause", omitting empty parts.
func (e *Error) Error() string {
	parts := make([]string, 0, 3)
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// =============================================================================
// API Error
// =============================================================================

// APIError is the error envelope returned by the generative model API:
//
//	{"error": {"code": 400, "message": "...", "status": "INVALID_ARGUMENT"}}
type APIError struct {
	// StatusCode is the HTTP status code
	StatusCode int `json:"code"`

	// Status is the canonical API status (e.g. "RESOURCE_EXHAUSTED")
	Status string `json:"status"`

	// Message is the error message from the API
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Status, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("%s: %s", http.StatusText(e.StatusCode), e.Message)
}

// Kind classifies the API error by its HTTP status, then by the canonical
// status string when the code alone is inconclusive.
func (e *APIError) Kind() Kind {
	if k := FromStatus(e.StatusCode); k != KindUnknown {
		return k
	}
	switch e.Status {
	case "INVALID_ARGUMENT", "FAILED_PRECONDITION", "OUT_OF_RANGE":
		return KindInvalidInput
	case "UNAUTHENTICATED":
		return KindAuthentication
	case "PERMISSION_DENIED":
		return KindAuthorization
	case "NOT_FOUND":
		return KindNotFound
	case "RESOURCE_EXHAUSTED":
		return KindRateLimit
	case "DEADLINE_EXCEEDED":
		return KindTimeout
	case "UNAVAILABLE", "INTERNAL", "UNKNOWN":
		return KindServer
	}
	return KindUnknown
}

// =============================================================================
// Constructors
// =============================================================================

// E constructs an Error from the given arguments.
// Arguments can be: Kind, string (Op or Message), error.
func E(args ...interface{}) error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Kind:
			e.Kind = a
		case string:
			if e.Op == "" {
				e.Op = a
			} else {
				e.Message = a
			}
		case error:
			e.Err = a
		}
	}
	return e
}

// Wrap wraps an error with additional context.
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: GetKind(err), Err: err}
}

// FromStatus maps an HTTP status code to a Kind.
func FromStatus(code int) Kind {
	switch {
	case code == http.StatusBadRequest:
		return KindInvalidInput
	case code == http.StatusUnauthorized:
		return KindAuthentication
	case code == http.StatusForbidden:
		return KindAuthorization
	case code == http.StatusNotFound:
		return KindNotFound
	case code == http.StatusRequestTimeout, code == http.StatusGatewayTimeout:
		return KindTimeout
	case code == http.StatusTooManyRequests:
		return KindRateLimit
	case code >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// =============================================================================
// Error Checkers
// =============================================================================

// GetKind returns the Kind of the error, or KindUnknown.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindUnknown {
		return e.Kind
	}
	if apiErr, ok := IsAPIError(err); ok {
		return apiErr.Kind()
	}
	return KindUnknown
}

// IsAPIError checks if err is an APIError and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsResponseError reports whether the remote call succeeded but its content
// could not be used.
func IsResponseError(err error) bool {
	switch GetKind(err) {
	case KindMalformedResponse, KindSchemaViolation, KindBlocked:
		return true
	}
	return false
}

// =============================================================================
// Common Errors
// =============================================================================

var (
	// ErrMissingAPIKey is returned when the model credential is missing.
	ErrMissingAPIKey = &Error{Kind: KindAuthentication, Message: "API key is required"}

	// ErrNoCandidates is returned when the model produced no candidate.
	ErrNoCandidates = &Error{Kind: KindBlocked, Message: "model returned no candidates"}

	// ErrEmptyResponse is returned when the first candidate carries no text.
	ErrEmptyResponse = &Error{Kind: KindMalformedResponse, Message: "model returned empty text"}
)
