package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestInMemoryCollector(t *testing.T) {
	c := NewInMemoryCollector()

	c.CounterInc(ReportsTotal.Name, "source", SourceModel)
	c.CounterInc(ReportsTotal.Name, "source", SourceModel)
	c.CounterInc(ReportsTotal.Name, "source", SourceFallback)

	if got := c.GetCounter(ReportsTotal.Name, "source", SourceModel); got != 2 {
		t.Errorf("model count = %v, want 2", got)
	}
	if got := c.GetCounter(ReportsTotal.Name, "source", SourceFallback); got != 1 {
		t.Errorf("fallback count = %v, want 1", got)
	}

	c.HistogramObserve(HTTPRequestDuration.Name, 0.2, "method", "POST", "host", "example.com")
	c.HistogramObserve(HTTPRequestDuration.Name, 0.4, "host", "example.com", "method", "POST")
	if got := c.GetObservations(HTTPRequestDuration.Name, "method", "POST", "host", "example.com"); len(got) != 2 {
		t.Errorf("observations = %v, want 2 regardless of label order", got)
	}

	c.Reset()
	if got := c.GetCounter(ReportsTotal.Name, "source", SourceModel); got != 0 {
		t.Errorf("after Reset = %v", got)
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		labels []string
		want   string
	}{
		{nil, "m"},
		{[]string{"b", "2", "a", "1"}, "m{a=1,b=2}"},
		{[]string{"a", "1", "dangling"}, "m{a=1}"},
	}
	for _, tt := range tests {
		if got := key("m", tt.labels); got != tt.want {
			t.Errorf("key(%v) = %q, want %q", tt.labels, got, tt.want)
		}
	}
}

func TestNopCollector(t *testing.T) {
	var c Collector = NopCollector{}
	c.CounterInc("x", "a", "b")
	c.HistogramObserve("x", 1)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", rec.Code)
	}
}

func TestDefinitions(t *testing.T) {
	seen := map[string]bool{}
	for _, def := range Definitions() {
		if !strings.HasPrefix(def.Name, "emerald_") {
			t.Errorf("metric %q is not in the emerald namespace", def.Name)
		}
		if seen[def.Name] {
			t.Errorf("duplicate metric %s", def.Name)
		}
		seen[def.Name] = true
		if def.Help == "" {
			t.Errorf("metric %s has no help", def.Name)
		}
		if def.Kind == KindHistogram && len(def.Buckets) == 0 {
			t.Errorf("histogram %s has no buckets", def.Name)
		}
	}
}

func scrape(t *testing.T, c *PrometheusCollector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape Status = %d", rec.Code)
	}
	return rec.Body.String()
}

func TestPrometheusCollector_DefaultMetrics(t *testing.T) {
	c := NewPrometheusCollector(&PrometheusConfig{
		Registry:               prometheus.NewRegistry(),
		RegisterDefaultMetrics: true,
	})

	c.CounterInc(ReportsTotal.Name, "source", SourceFallback)
	c.CounterInc(ReportFallbacksTotal.Name, "reason", "timeout")
	c.HistogramObserve(ReportDuration.Name, 1.2, "source", SourceFallback)
	c.CounterInc(DashboardRequestsTotal.Name, "status", "200", "route", "/api/v1/scans", "method", "POST")
	c.CounterInc("emerald_unknown_total")
	c.HistogramObserve(ReportsTotal.Name, 1)

	body := scrape(t, c)
	for _, want := range []string{
		`emerald_reports_total{source="fallback"} 1`,
		`emerald_report_fallbacks_total{reason="timeout"} 1`,
		`emerald_report_duration_seconds_count{source="fallback"} 1`,
		`emerald_dashboard_requests_total{method="POST",route="/api/v1/scans",status="200"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
	if strings.Contains(body, "emerald_unknown_total") {
		t.Error("unregistered metric was exported")
	}
}

func TestPrometheusCollector_Register(t *testing.T) {
	c := NewPrometheusCollector(nil)

	if err := c.Register(ReportsTotal, ReportsTotal); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := c.Register(Definition{Name: "emerald_bad", Kind: "gauge"}); err == nil {
		t.Error("expected error for unsupported kind")
	}

	c.CounterInc(ReportsTotal.Name, "source", SourceModel, "extra", "ignored")
	body := scrape(t, c)
	if !strings.Contains(body, `emerald_reports_total{source="model"} 1`) {
		t.Errorf("missing counter:\n%s", body)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Error("default registry should include runtime collectors")
	}
}

func TestPrometheusCollector_DefaultMetricsConflictPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: ReportsTotal.Name, Help: "something else"}))

	defer func() {
		if recover() == nil {
			t.Error("expected a panic when default metrics conflict with the registry")
		}
	}()
	NewPrometheusCollector(&PrometheusConfig{Registry: reg, RegisterDefaultMetrics: true})
}
