package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusConfig configures a PrometheusCollector.
type PrometheusConfig struct {
	// Registry to register into. Nil creates one with the Go runtime and
	// process collectors.
	Registry *prometheus.Registry

	// RegisterDefaultMetrics registers everything in Definitions().
	RegisterDefaultMetrics bool
}

// series is a registered metric and the label names it expects.
type series struct {
	def       Definition
	counter   *prometheus.CounterVec
	histogram *prometheus.HistogramVec
}

// PrometheusCollector exports metrics through a Prometheus registry.
// Names that were never registered are ignored.
type PrometheusCollector struct {
	registry *prometheus.Registry

	mu     sync.RWMutex
	series map[string]*series
}

// NewPrometheusCollector creates a collector. Like MustRegister, it panics
// if the default metrics cannot be registered, which only happens when the
// registry already holds a conflicting metric.
func NewPrometheusCollector(cfg *PrometheusConfig) *PrometheusCollector {
	if cfg == nil {
		cfg = &PrometheusConfig{}
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	c := &PrometheusCollector{
		registry: registry,
		series:   make(map[string]*series),
	}
	if cfg.RegisterDefaultMetrics {
		if err := c.Register(Definitions()...); err != nil {
			panic(err)
		}
	}
	return c
}

// Register adds metrics to the registry. Registering a name twice is a no-op.
func (c *PrometheusCollector) Register(defs ...Definition) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, def := range defs {
		if _, ok := c.series[def.Name]; ok {
			continue
		}

		s := &series{def: def}
		var col prometheus.Collector
		switch def.Kind {
		case KindCounter:
			s.counter = prometheus.NewCounterVec(prometheus.CounterOpts{Name: def.Name, Help: def.Help}, def.Labels)
			col = s.counter
		case KindHistogram:
			buckets := def.Buckets
			if len(buckets) == 0 {
				buckets = prometheus.DefBuckets
			}
			s.histogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    def.Name,
				Help:    def.Help,
				Buckets: buckets,
			}, def.Labels)
			col = s.histogram
		default:
			return fmt.Errorf("metric %s: unsupported kind %q", def.Name, def.Kind)
		}

		if err := c.registry.Register(col); err != nil {
			return fmt.Errorf("register %s: %w", def.Name, err)
		}
		c.series[def.Name] = s
	}
	return nil
}

func (c *PrometheusCollector) lookup(name string) *series {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.series[name]
}

// labels maps pairs onto the definition's label names. Missing labels are
// empty and unknown ones dropped, so a bad call never panics.
func (s *series) labels(pairs []string) prometheus.Labels {
	given := labelMap(pairs)
	out := make(prometheus.Labels, len(s.def.Labels))
	for _, name := range s.def.Labels {
		out[name] = given[name]
	}
	return out
}

func (c *PrometheusCollector) CounterInc(name string, labels ...string) {
	s := c.lookup(name)
	if s == nil || s.counter == nil {
		return
	}
	if m, err := s.counter.GetMetricWith(s.labels(labels)); err == nil {
		m.Inc()
	}
}

func (c *PrometheusCollector) HistogramObserve(name string, value float64, labels ...string) {
	s := c.lookup(name)
	if s == nil || s.histogram == nil {
		return
	}
	if m, err := s.histogram.GetMetricWith(s.labels(labels)); err == nil {
		m.Observe(value)
	}
}

// Handler serves the registry in the Prometheus text or OpenMetrics format.
func (c *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry returns the underlying registry.
func (c *PrometheusCollector) Registry() *prometheus.Registry {
	return c.registry
}

var _ Collector = (*PrometheusCollector)(nil)
