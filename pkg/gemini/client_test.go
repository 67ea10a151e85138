package gemini

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/exploopio/emerald/pkg/errors"
	"github.com/exploopio/emerald/pkg/metrics"
)

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	c, err := New(context.Background(), append([]Option{WithBaseURL(baseURL), WithAPIKey("k")}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew_WithoutKey(t *testing.T) {
	c, err := New(context.Background())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.HasAPIKey() {
		t.Error("HasAPIKey() = true for empty config")
	}
}

func TestGenerateContent_Success(t *testing.T) {
	var gotPath, gotKey, gotBody string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [
					{"text": "thinking...", "thought": true},
					{"text": "{\"score\":"},
					{"text": "10}"}
				]},
				"groundingMetadata": {"groundingChunks": [{"web": {"uri": "https://nvd.nist.gov", "title": "NVD"}}]}
			}],
			"usageMetadata": {"totalTokenCount": 42},
			"modelVersion": "gemini-3-flash-preview"
		}`))
	}))
	defer server.Close()

	mc := metrics.NewInMemoryCollector()
	c := newTestClient(t, server.URL, WithAPIKey("secret"), WithMetrics(mc))

	cfg := &genai.GenerateContentConfig{
		Tools:            []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		ResponseMIMEType: MIMETypeJSON,
		ResponseSchema:   &genai.Schema{Type: genai.TypeObject},
	}
	resp, err := c.GenerateContent(context.Background(), "", genai.Text("hello"), cfg)
	if err != nil {
		t.Fatalf("GenerateContent() error = %v", err)
	}

	if want := "/" + APIVersion + "/models/" + DefaultModel + ":generateContent"; !strings.HasSuffix(gotPath, want) {
		t.Errorf("path = %q, want suffix %q", gotPath, want)
	}
	if gotKey != "secret" {
		t.Errorf("api key header = %q", gotKey)
	}
	for _, field := range []string{"googleSearch", "responseMimeType", "responseSchema", "hello"} {
		if !strings.Contains(gotBody, field) {
			t.Errorf("request body missing %q: %s", field, gotBody)
		}
	}

	if got := ResponseText(resp); got != `{"score":10}` {
		t.Errorf("ResponseText() = %q", got)
	}
	chunks := FirstCandidate(resp).GroundingMetadata.GroundingChunks
	if len(chunks) != 1 || chunks[0].Web == nil || chunks[0].Web.Title != "NVD" || chunks[0].Web.URI != "https://nvd.nist.gov" {
		t.Errorf("grounding chunks = %+v", chunks)
	}

	host := strings.TrimPrefix(server.URL, "http://")
	if got := mc.GetCounter(metrics.HTTPRequestsTotal.Name, "method", "POST", "host", host, "status", "200"); got != 1 {
		t.Errorf("http requests counter = %v, want 1", got)
	}
}

func TestGenerateContent_MissingAPIKey(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	c, err := New(context.Background(), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = c.GenerateContent(context.Background(), "", genai.Text("x"), nil)

	if got := errors.GetKind(err); got != errors.KindAuthentication {
		t.Errorf("error kind = %v, want authentication", got)
	}
	if called {
		t.Error("no request should be sent without a key")
	}
}

func TestGenerateContent_NoContents(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	_, err := c.GenerateContent(context.Background(), "m", nil, nil)
	if got := errors.GetKind(err); got != errors.KindInvalidInput {
		t.Errorf("kind = %v, want invalid_input", got)
	}
}

func TestGenerateContent_ErrorStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind errors.Kind
		wantMsg  string
	}{
		{
			name:     "bad key",
			status:   http.StatusBadRequest,
			body:     `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`,
			wantKind: errors.KindInvalidInput,
			wantMsg:  "API key not valid",
		},
		{
			name:     "quota",
			status:   http.StatusTooManyRequests,
			body:     `{"error":{"code":429,"message":"Resource exhausted","status":"RESOURCE_EXHAUSTED"}}`,
			wantKind: errors.KindRateLimit,
			wantMsg:  "Resource exhausted",
		},
		{
			name:     "forbidden",
			status:   http.StatusForbidden,
			body:     `{"error":{"code":403,"message":"denied","status":"PERMISSION_DENIED"}}`,
			wantKind: errors.KindAuthorization,
		},
		{
			name:     "server",
			status:   http.StatusServiceUnavailable,
			body:     `upstream connect error`,
			wantKind: errors.KindServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := newTestClient(t, server.URL)
			_, err := c.GenerateContent(context.Background(), "m", genai.Text("x"), nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.GetKind(err); got != tt.wantKind {
				t.Errorf("kind = %v, want %v (%v)", got, tt.wantKind, err)
			}
			apiErr, ok := errors.IsAPIError(err)
			if !ok {
				t.Fatalf("error %v does not wrap an APIError", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if tt.wantMsg != "" && apiErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestGenerateContent_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.GenerateContent(context.Background(), "m", genai.Text("x"), nil)
	if got := errors.GetKind(err); got != errors.KindMalformedResponse {
		t.Errorf("kind = %v, want malformed_response (%v)", got, err)
	}
}

func TestGenerateContent_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := newTestClient(t, server.URL, WithTimeout(50*time.Millisecond))
	_, err := c.GenerateContent(context.Background(), "m", genai.Text("x"), nil)
	if got := errors.GetKind(err); got != errors.KindTimeout {
		t.Errorf("kind = %v, want timeout (%v)", got, err)
	}
}

func TestGenerateContent_ContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	c := newTestClient(t, server.URL)
	_, err := c.GenerateContent(ctx, "m", genai.Text("x"), nil)
	if got := errors.GetKind(err); got != errors.KindTimeout {
		t.Errorf("kind = %v, want timeout (%v)", got, err)
	}
}

func TestGenerateContent_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	mc := metrics.NewInMemoryCollector()
	c := newTestClient(t, addr, WithMetrics(mc))
	_, err := c.GenerateContent(context.Background(), "m", genai.Text("x"), nil)
	if got := errors.GetKind(err); got != errors.KindNetwork {
		t.Errorf("kind = %v, want network (%v)", got, err)
	}

	host := strings.TrimPrefix(addr, "http://")
	if got := mc.GetCounter(metrics.HTTPRequestsTotal.Name, "method", "POST", "host", host, "status", "error"); got < 1 {
		t.Errorf("failed request not counted: %v", got)
	}
}

func TestClassifyError(t *testing.T) {
	const op = "gemini.test"

	expired, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want errors.Kind
	}{
		{"api error value", context.Background(), fmt.Errorf("send: %w", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}), errors.KindRateLimit},
		{"api error pointer", context.Background(), &genai.APIError{Code: 401, Status: "UNAUTHENTICATED"}, errors.KindAuthentication},
		{"already classified", context.Background(), errors.E("inner", errors.KindBlocked, "no"), errors.KindBlocked},
		{"context deadline", expired, fmt.Errorf("send: %w", context.DeadlineExceeded), errors.KindTimeout},
		{"transport", context.Background(), &url.Error{Op: "Post", URL: "http://x", Err: fmt.Errorf("connection refused")}, errors.KindNetwork},
		{"decode", context.Background(), fmt.Errorf("unmarshal response: invalid character '<'"), errors.KindMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.GetKind(ClassifyError(tt.ctx, op, tt.err)); got != tt.want {
				t.Errorf("kind = %v, want %v", got, tt.want)
			}
		})
	}

	if ClassifyError(context.Background(), op, nil) != nil {
		t.Error("nil error should stay nil")
	}
}

func TestResponseText(t *testing.T) {
	if ResponseText(nil) != "" || FirstCandidate(nil) != nil || BlockReason(nil) != "" {
		t.Error("nil response should yield empty text and no candidate")
	}

	empty := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}
	if ResponseText(empty) != "" {
		t.Error("candidate without content should yield empty text")
	}

	blocked := &genai.GenerateContentResponse{PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety}}
	if BlockReason(blocked) != "SAFETY" {
		t.Errorf("BlockReason() = %q", BlockReason(blocked))
	}
}
