// Package insights turns an IP and its open ports into a SecurityReport by
// asking a search-grounded generative model, and falls back to a static
// report whenever that fails.
package insights

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/exploopio/emerald/pkg/core"
	"github.com/exploopio/emerald/pkg/errors"
	"github.com/exploopio/emerald/pkg/gemini"
	"github.com/exploopio/emerald/pkg/metrics"
	"github.com/exploopio/emerald/pkg/report"
)

// Grounding citation placeholders.
const (
	DefaultSourceTitle = "Security Intelligence Source"
	DefaultSourceURI   = "#"
)

// DefaultPorts is the port list every scan reports on.
var DefaultPorts = []int{22, 23, 80, 443}

// Generator is the remote model. *gemini.Client implements it, as does the
// SDK's *genai.Models.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var (
	_ Generator = (*gemini.Client)(nil)
	_ Generator = (*genai.Models)(nil)
)

// Requester produces security reports.
type Requester struct {
	gen     Generator
	model   string
	logger  core.Logger
	metrics metrics.Collector
}

// Config configures a Requester backed by the Gemini API.
type Config struct {
	APIKey  string        `yaml:"api_key" json:"-"`
	Model   string        `yaml:"model" json:"model"`
	BaseURL string        `yaml:"base_url" json:"base_url"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// Option configures a Requester.
type Option func(*Requester)

// WithModel selects the model name.
func WithModel(model string) Option {
	return func(r *Requester) {
		if model != "" {
			r.model = model
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l core.Logger) Option {
	return func(r *Requester) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m metrics.Collector) Option {
	return func(r *Requester) {
		if m != nil {
			r.metrics = m
		}
	}
}

// New creates a Requester around gen.
func New(gen Generator, opts ...Option) *Requester {
	r := &Requester{
		gen:     gen,
		model:   gemini.DefaultModel,
		logger:  &core.NopLogger{},
		metrics: &metrics.NopCollector{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewFromConfig builds the Gemini client from cfg and wraps it. The
// credential is taken from cfg only.
func NewFromConfig(ctx context.Context, cfg *Config, opts ...Option) (*Requester, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	r := New(nil, append([]Option{WithModel(cfg.Model)}, opts...)...)
	client, err := gemini.New(ctx,
		gemini.WithBaseURL(cfg.BaseURL),
		gemini.WithAPIKey(cfg.APIKey),
		gemini.WithTimeout(cfg.Timeout),
		gemini.WithLogger(r.logger),
		gemini.WithMetrics(r.metrics),
	)
	if err != nil {
		return nil, errors.Wrap(err, "insights.NewFromConfig")
	}
	r.gen = client
	return r, nil
}

// Model returns the configured model name.
func (r *Requester) Model() string {
	return r.model
}

// GetSecurityInsights returns the model's report for ip, or the fallback
// report if anything on the model path fails. It never returns nil.
func (r *Requester) GetSecurityInsights(ctx context.Context, ports []int, ip string) *report.SecurityReport {
	start := time.Now()

	rep, err := r.Request(ctx, ports, ip)
	if err != nil {
		reason := errors.GetKind(err).String()
		log := core.WithField(r.logger, "ip", ip)
		if errors.IsResponseError(err) {
			log.Warn("[insights] model answer rejected, using fallback report (%s): %v", reason, err)
		} else {
			log.Warn("[insights] model unavailable, using fallback report (%s): %v", reason, err)
		}

		r.metrics.CounterInc(metrics.ReportFallbacksTotal.Name, "reason", reason)
		r.observe(metrics.SourceFallback, start)
		return Fallback(ports, ip)
	}

	r.observe(metrics.SourceModel, start)
	return rep
}

func (r *Requester) observe(source string, start time.Time) {
	r.metrics.CounterInc(metrics.ReportsTotal.Name, "source", source)
	r.metrics.HistogramObserve(metrics.ReportDuration.Name, time.Since(start).Seconds(), "source", source)
}

// Request performs the model call and strictly decodes its answer. Errors
// are *errors.Error values classified by kind.
func (r *Requester) Request(ctx context.Context, ports []int, ip string) (rep *report.SecurityReport, err error) {
	const op = "insights.Request"

	if r.gen == nil {
		return nil, errors.E(op, errors.KindInternal, "no generator configured")
	}

	defer func() {
		if p := recover(); p != nil {
			rep = nil
			err = errors.E(op, errors.KindInternal, fmt.Sprintf("generator panic: %v", p))
		}
	}()

	resp, err := r.gen.GenerateContent(ctx, r.model, genai.Text(BuildPrompt(ports, ip)), buildConfig())
	if err != nil {
		return nil, gemini.ClassifyError(ctx, op, err)
	}

	cand := gemini.FirstCandidate(resp)
	if cand == nil {
		if reason := gemini.BlockReason(resp); reason != "" {
			return nil, errors.E(op, errors.KindBlocked, "prompt blocked: "+reason)
		}
		return nil, errors.E(op, errors.KindBlocked, errors.ErrNoCandidates)
	}

	text := gemini.ResponseText(resp)
	if text == "" {
		return nil, errors.E(op, errors.KindMalformedResponse, errors.ErrEmptyResponse)
	}

	rep, err = report.Decode([]byte(text))
	if err != nil {
		kind := errors.KindSchemaViolation
		var pe *report.ParseError
		if stderrors.As(err, &pe) && pe.Syntax {
			kind = errors.KindMalformedResponse
		}
		return nil, errors.E(op, kind, err)
	}

	rep.Sources = sourcesFrom(cand.GroundingMetadata)
	return rep, nil
}

// sourcesFrom maps grounding chunks to citations, substituting placeholders
// for missing or empty titles and URIs.
func sourcesFrom(md *genai.GroundingMetadata) []report.Source {
	if md == nil {
		return []report.Source{}
	}
	sources := make([]report.Source, 0, len(md.GroundingChunks))
	for _, chunk := range md.GroundingChunks {
		src := report.Source{Title: DefaultSourceTitle, URI: DefaultSourceURI}
		if chunk != nil && chunk.Web != nil {
			if chunk.Web.Title != "" {
				src.Title = chunk.Web.Title
			}
			if chunk.Web.URI != "" {
				src.URI = chunk.Web.URI
			}
		}
		sources = append(sources, src)
	}
	return sources
}
