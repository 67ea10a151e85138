// Package dashboard serves the Emerald HTTP API: scan requests, target
// detection, the static protection guide and history, health probes and
// Prometheus metrics.
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/exploopio/emerald/pkg/config"
	"github.com/exploopio/emerald/pkg/core"
	"github.com/exploopio/emerald/pkg/health"
	"github.com/exploopio/emerald/pkg/metrics"
	"github.com/exploopio/emerald/pkg/report"
)

// InsightSource produces a report for ip. *insights.Requester implements it.
type InsightSource interface {
	GetSecurityInsights(ctx context.Context, ports []int, ip string) *report.SecurityReport
}

// TargetResolver detects the default scan target. *ipdetect.Resolver
// implements it.
type TargetResolver interface {
	Detect(ctx context.Context) string
}

// Server is the dashboard API.
type Server struct {
	cfg      config.ServerConfig
	ports    []int
	mode     string
	insights InsightSource
	resolver TargetResolver
	health   *health.Handler
	metrics  metrics.Collector
	logger   core.Logger
	limiter  *rate.Limiter

	engine *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithHealth sets the health handler served on /healthz, /readyz, /health.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) {
		if h != nil {
			s.health = h
		}
	}
}

// WithMetrics sets the collector. Its Handler is served on /metrics when
// metrics are enabled.
func WithMetrics(m metrics.Collector) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l core.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds the server and its routes.
func New(cfg *config.Config, src InsightSource, resolver TargetResolver, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.Default()
	}

	s := &Server{
		cfg:      cfg.Server,
		ports:    append([]int(nil), cfg.Scan.Ports...),
		mode:     cfg.Scan.DefaultMode,
		insights: src,
		resolver: resolver,
		health:   health.NewHandler(),
		metrics:  &metrics.NopCollector{},
		logger:   &core.NopLogger{},
	}
	if s.mode == "" {
		s.mode = config.ModeQuick
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cfg.ScansPerMinute > 0 {
		burst := s.cfg.ScanBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.cfg.ScansPerMinute)), burst)
	}

	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.requestMetrics())

	r.GET("/healthz", gin.WrapH(s.health.LivenessHandler()))
	r.GET("/readyz", gin.WrapH(s.health.ReadinessHandler()))
	r.GET("/health", gin.WrapH(s.health.HealthHandler()))
	if s.cfg.Metrics {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := r.Group("/api/v1")
	if s.cfg.Compression {
		api.Use(compressResponse())
	}
	api.POST("/scans", s.rateLimit(), s.createScan)
	api.GET("/target", s.getTarget)
	api.GET("/protection-guide", s.getProtectionGuide)
	api.GET("/history", s.getHistory)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "not found", Code: "not_found"})
	})

	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on the configured address until ctx is canceled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.engine,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[dashboard] listening on %s", s.cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.health.SetReady(false)

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("[dashboard] shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
