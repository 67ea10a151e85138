// Package ipdetect discovers the caller's public IP address.
package ipdetect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/exploopio/emerald/pkg/core"
)

const (
	// DefaultURL answers {"ip": "..."}.
	DefaultURL = "https://api.ipify.org?format=json"

	// DefaultFallbackIP is returned when detection fails.
	DefaultFallbackIP = "104.198.214.223"

	DefaultTimeout = 5 * time.Second
)

// Resolver detects the public IP of this host.
type Resolver struct {
	url        string
	fallbackIP string
	httpClient *http.Client
	logger     core.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithURL overrides the lookup endpoint.
func WithURL(u string) Option {
	return func(r *Resolver) {
		if u != "" {
			r.url = u
		}
	}
}

// WithFallbackIP sets the address returned when detection fails.
func WithFallbackIP(ip string) Option {
	return func(r *Resolver) {
		if ip != "" {
			r.fallbackIP = ip
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *Resolver) {
		if hc != nil {
			r.httpClient = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l core.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		url:        DefaultURL,
		fallbackIP: DefaultFallbackIP,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     &core.NopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Detect returns the public IP, or the fallback IP on any failure.
func (r *Resolver) Detect(ctx context.Context) string {
	ip, err := r.lookup(ctx)
	if err != nil {
		r.logger.Warn("[ipdetect] using fallback IP %s: %v", r.fallbackIP, err)
		return r.fallbackIP
	}
	return ip
}

func (r *Resolver) lookup(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var body struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	ip := strings.TrimSpace(body.IP)
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("invalid ip %q", body.IP)
	}
	return ip, nil
}
