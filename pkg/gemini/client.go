// Package gemini wraps the Google Gen AI SDK for the generateContent calls
// Emerald makes, adding credential checks, error classification and request
// metrics.
package gemini

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"net/url"
	"time"

	"google.golang.org/genai"

	"github.com/exploopio/emerald/pkg/core"
	"github.com/exploopio/emerald/pkg/errors"
	"github.com/exploopio/emerald/pkg/metrics"
)

const (
	// DefaultBaseURL is the public Gemini endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/"

	// APIVersion is the path version used for generateContent.
	APIVersion = "v1beta"

	// DefaultModel is the model used when none is configured.
	DefaultModel = "gemini-3-flash-preview"

	// DefaultTimeout bounds a single call.
	DefaultTimeout = 60 * time.Second

	// MIMETypeJSON asks the model for a JSON-only answer.
	MIMETypeJSON = "application/json"
)

// Client calls the Gemini API through the SDK. A Client built without an
// API key never sends requests.
type Client struct {
	models  *genai.Models
	logger  core.Logger
	metrics metrics.Collector
}

// Config holds client configuration.
type Config struct {
	BaseURL string        `yaml:"base_url" json:"base_url"`
	APIKey  string        `yaml:"api_key" json:"-"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// DefaultConfig returns default client config.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

type options struct {
	cfg        Config
	httpClient *http.Client
	logger     core.Logger
	metrics    metrics.Collector
}

// Option configures a Client.
type Option func(*options)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		if baseURL != "" {
			o.cfg.BaseURL = baseURL
		}
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(o *options) {
		o.cfg.APIKey = key
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.cfg.Timeout = timeout
		}
	}
}

// WithHTTPClient sets the base HTTP client. Its transport is wrapped for
// metrics; its Timeout is replaced by the configured one.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l core.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m metrics.Collector) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// New builds a client. An empty API key is accepted; calls then fail with
// errors.ErrMissingAPIKey.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	const op = "gemini.New"

	o := &options{
		cfg:     *DefaultConfig(),
		logger:  &core.NopLogger{},
		metrics: &metrics.NopCollector{},
	}
	for _, opt := range opts {
		opt(o)
	}

	c := &Client{logger: o.logger, metrics: o.metrics}
	if o.cfg.APIKey == "" {
		return c, nil
	}

	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     o.cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: instrument(o.httpClient, o.cfg.Timeout, o.metrics),
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    o.cfg.BaseURL,
			APIVersion: APIVersion,
		},
	})
	if err != nil {
		return nil, errors.E(op, errors.KindInvalidInput, err)
	}
	c.models = sdk.Models
	return c, nil
}

// HasAPIKey reports whether the client can make calls.
func (c *Client) HasAPIKey() bool {
	return c.models != nil
}

// GenerateContent sends one generateContent call. An empty model selects
// DefaultModel. Errors are *errors.Error values classified by kind.
func (c *Client) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	const op = "gemini.GenerateContent"

	if c.models == nil {
		return nil, errors.E(op, errors.KindAuthentication, errors.ErrMissingAPIKey)
	}
	if len(contents) == 0 {
		return nil, errors.E(op, errors.KindInvalidInput, "no contents")
	}
	if model == "" {
		model = DefaultModel
	}

	resp, err := c.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		err = ClassifyError(ctx, op, err)
		c.logger.Debug("[gemini] %s failed: %v", model, err)
		return nil, err
	}

	if resp.UsageMetadata != nil {
		c.logger.Debug("[gemini] %s used %d tokens", model, resp.UsageMetadata.TotalTokenCount)
	}
	return resp, nil
}

// ClassifyError maps an SDK or transport error to an *errors.Error. Errors
// that already carry a kind keep it.
func ClassifyError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.GetKind(err) != errors.KindUnknown {
		return errors.Wrap(err, op)
	}

	if apiErr, ok := asAPIError(err); ok {
		e := &errors.APIError{
			StatusCode: apiErr.Code,
			Status:     apiErr.Status,
			Message:    apiErr.Message,
		}
		return errors.E(op, e.Kind(), e)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if ctxErr == context.DeadlineExceeded {
			return errors.E(op, errors.KindTimeout, err)
		}
		return errors.E(op, errors.KindNetwork, "request canceled", err)
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.E(op, errors.KindTimeout, err)
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.E(op, errors.KindTimeout, err)
	}
	var urlErr *url.Error
	if stderrors.As(err, &urlErr) || netErr != nil {
		return errors.E(op, errors.KindNetwork, err)
	}

	// The SDK reports undecodable bodies as plain wrapped errors.
	return errors.E(op, errors.KindMalformedResponse, err)
}

func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	var apiPtr *genai.APIError
	if stderrors.As(err, &apiPtr) && apiPtr != nil {
		return *apiPtr, true
	}
	return genai.APIError{}, false
}
