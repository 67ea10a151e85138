// Package metrics records report acquisition, outbound model traffic and
// dashboard requests. Collectors take labels as alternating name/value
// pairs; pair order does not matter.
package metrics

import (
	"net/http"
	"sort"
	"strings"
	"sync"
)

// Collector records Emerald metrics.
type Collector interface {
	CounterInc(name string, labels ...string)
	HistogramObserve(name string, value float64, labels ...string)

	// Handler serves the exposition endpoint.
	Handler() http.Handler
}

// Kind is the Prometheus metric type of a Definition.
type Kind string

const (
	KindCounter   Kind = "counter"
	KindHistogram Kind = "histogram"
)

// Definition describes one exported metric.
type Definition struct {
	Name    string
	Kind    Kind
	Help    string
	Labels  []string
	Buckets []float64
}

// Label values for ReportsTotal and ReportDuration.
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

var (
	ReportsTotal = Definition{
		Name:   "emerald_reports_total",
		Kind:   KindCounter,
		Help:   "Security reports produced, by source",
		Labels: []string{"source"},
	}
	ReportFallbacksTotal = Definition{
		Name:   "emerald_report_fallbacks_total",
		Kind:   KindCounter,
		Help:   "Reports replaced by the fallback assessment, by error kind",
		Labels: []string{"reason"},
	}
	ReportDuration = Definition{
		Name:    "emerald_report_duration_seconds",
		Kind:    KindHistogram,
		Help:    "Time to produce a report, by source",
		Labels:  []string{"source"},
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 90},
	}

	HTTPRequestsTotal = Definition{
		Name:   "emerald_http_requests_total",
		Kind:   KindCounter,
		Help:   "Outbound HTTP requests to the model API",
		Labels: []string{"method", "host", "status"},
	}
	HTTPRequestDuration = Definition{
		Name:    "emerald_http_request_duration_seconds",
		Kind:    KindHistogram,
		Help:    "Outbound HTTP request latency",
		Labels:  []string{"method", "host"},
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}

	DashboardRequestsTotal = Definition{
		Name:   "emerald_dashboard_requests_total",
		Kind:   KindCounter,
		Help:   "Dashboard API requests served",
		Labels: []string{"method", "route", "status"},
	}
)

// Definitions returns every metric Emerald exports.
func Definitions() []Definition {
	return []Definition{
		ReportsTotal,
		ReportFallbacksTotal,
		ReportDuration,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		DashboardRequestsTotal,
	}
}

// labelMap turns name/value pairs into a map. A trailing name without a
// value is dropped.
func labelMap(labels []string) map[string]string {
	m := make(map[string]string, len(labels)/2)
	for i := 0; i+1 < len(labels); i += 2 {
		m[labels[i]] = labels[i+1]
	}
	return m
}

// NopCollector discards everything.
type NopCollector struct{}

func (NopCollector) CounterInc(string, ...string)                {}
func (NopCollector) HistogramObserve(string, float64, ...string) {}
func (NopCollector) Handler() http.Handler                       { return http.NotFoundHandler() }

// InMemoryCollector keeps values in maps so tests can assert on them.
type InMemoryCollector struct {
	mu           sync.RWMutex
	counters     map[string]float64
	observations map[string][]float64
}

// NewInMemoryCollector creates an empty InMemoryCollector.
func NewInMemoryCollector() *InMemoryCollector {
	c := &InMemoryCollector{}
	c.Reset()
	return c
}

// key renders name{a=1,b=2} with labels sorted by name.
func key(name string, labels []string) string {
	m := labelMap(labels)
	if len(m) == 0 {
		return name
	}
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, k := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k + "=" + m[k])
	}
	b.WriteByte('}')
	return b.String()
}

func (c *InMemoryCollector) CounterInc(name string, labels ...string) {
	c.mu.Lock()
	c.counters[key(name, labels)]++
	c.mu.Unlock()
}

func (c *InMemoryCollector) HistogramObserve(name string, value float64, labels ...string) {
	k := key(name, labels)
	c.mu.Lock()
	c.observations[k] = append(c.observations[k], value)
	c.mu.Unlock()
}

func (c *InMemoryCollector) Handler() http.Handler { return http.NotFoundHandler() }

// Reset clears all recorded values.
func (c *InMemoryCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters = make(map[string]float64)
	c.observations = make(map[string][]float64)
}

// GetCounter returns a counter value.
func (c *InMemoryCollector) GetCounter(name string, labels ...string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counters[key(name, labels)]
}

// GetObservations returns the values observed for a histogram series.
func (c *InMemoryCollector) GetObservations(name string, labels ...string) []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]float64(nil), c.observations[key(name, labels)]...)
}

var (
	_ Collector = NopCollector{}
	_ Collector = (*InMemoryCollector)(nil)
)
