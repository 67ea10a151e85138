package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindUnknown, "unknown"},
		{KindInvalidInput, "invalid_input"},
		{KindAuthentication, "authentication"},
		{KindAuthorization, "authorization"},
		{KindNotFound, "not_found"},
		{KindRateLimit, "rate_limit"},
		{KindTimeout, "timeout"},
		{KindNetwork, "network"},
		{KindServer, "server"},
		{KindMalformedResponse, "malformed_response"},
		{KindSchemaViolation, "schema_violation"},
		{KindBlocked, "blocked"},
		{KindInternal, "internal"},
		{Kind(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("Kind.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "op and message and err",
			err:      &Error{Op: "gemini.GenerateContent", Message: "request failed", Err: fmt.Errorf("connection refused")},
			expected: "gemini.GenerateContent: request failed: connection refused",
		},
		{
			name:     "op and err",
			err:      &Error{Op: "gemini.GenerateContent", Err: fmt.Errorf("connection refused")},
			expected: "gemini.GenerateContent: connection refused",
		},
		{
			name:     "op and message",
			err:      &Error{Op: "report.Decode", Message: "missing field"},
			expected: "report.Decode: missing field",
		},
		{
			name:     "message and err",
			err:      &Error{Message: "request failed", Err: fmt.Errorf("connection refused")},
			expected: "request failed: connection refused",
		},
		{
			name:     "message only",
			err:      &Error{Message: "request failed"},
			expected: "request failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_UnwrapAndIs(t *testing.T) {
	inner := fmt.Errorf("dial tcp: refused")
	err := E(KindNetwork, "gemini.GenerateContent", "http request", inner)

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
	if !errors.Is(err, &Error{Kind: KindNetwork}) {
		t.Error("errors.Is should match on Kind")
	}
	if errors.Is(err, &Error{Kind: KindTimeout}) {
		t.Error("errors.Is should not match a different Kind")
	}
}

func TestAPIError(t *testing.T) {
	err := &APIError{StatusCode: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED", Message: "quota exceeded"}

	want := "[RESOURCE_EXHAUSTED] Too Many Requests: quota exceeded"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if err.Kind() != KindRateLimit {
		t.Errorf("Kind() = %v, want %v", err.Kind(), KindRateLimit)
	}

	bare := &APIError{StatusCode: http.StatusInternalServerError, Message: "boom"}
	if got := bare.Error(); got != "Internal Server Error: boom" {
		t.Errorf("Error() = %q", got)
	}
}

func TestAPIError_KindFromStatusString(t *testing.T) {
	tests := []struct {
		status string
		want   Kind
	}{
		{"RESOURCE_EXHAUSTED", KindRateLimit},
		{"UNAUTHENTICATED", KindAuthentication},
		{"PERMISSION_DENIED", KindAuthorization},
		{"DEADLINE_EXCEEDED", KindTimeout},
		{"INVALID_ARGUMENT", KindInvalidInput},
		{"UNAVAILABLE", KindServer},
		{"SOMETHING_NEW", KindUnknown},
	}
	for _, tt := range tests {
		err := &APIError{StatusCode: http.StatusTeapot, Status: tt.status}
		if got := err.Kind(); got != tt.want {
			t.Errorf("Kind(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		code int
		want Kind
	}{
		{http.StatusBadRequest, KindInvalidInput},
		{http.StatusUnauthorized, KindAuthentication},
		{http.StatusForbidden, KindAuthorization},
		{http.StatusNotFound, KindNotFound},
		{http.StatusRequestTimeout, KindTimeout},
		{http.StatusGatewayTimeout, KindTimeout},
		{http.StatusTooManyRequests, KindRateLimit},
		{http.StatusInternalServerError, KindServer},
		{http.StatusServiceUnavailable, KindServer},
		{http.StatusTeapot, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			if got := FromStatus(tt.code); got != tt.want {
				t.Errorf("FromStatus(%d) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestGetKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", fmt.Errorf("plain"), KindUnknown},
		{"typed", E(KindTimeout, "op"), KindTimeout},
		{"api error", &APIError{StatusCode: http.StatusUnauthorized}, KindAuthentication},
		{"wrapped api error", fmt.Errorf("outer: %w", &APIError{StatusCode: http.StatusBadGateway}), KindServer},
		{"wrap keeps kind", Wrap(E(KindSchemaViolation, "decode"), "insights.Request"), KindSchemaViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetKind(tt.err); got != tt.want {
				t.Errorf("GetKind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "op") != nil {
		t.Error("Wrap(nil) should return nil")
	}

	err := Wrap(fmt.Errorf("inner"), "gemini.GenerateContent")
	if err.Error() != "gemini.GenerateContent: inner" {
		t.Errorf("Wrap() = %q", err.Error())
	}
}

func TestIsResponseError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrEmptyResponse, true},
		{ErrNoCandidates, true},
		{E("op", KindSchemaViolation, "missing score"), true},
		{E("op", KindTimeout, "deadline"), false},
		{&APIError{StatusCode: http.StatusTooManyRequests}, false},
		{ErrMissingAPIKey, false},
	}
	for _, tt := range tests {
		if got := IsResponseError(tt.err); got != tt.want {
			t.Errorf("IsResponseError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
