package gemini

import (
	"net/http"
	"strconv"
	"time"

	"github.com/exploopio/emerald/pkg/metrics"
)

// instrument returns a copy of base whose transport records request counts
// and latency.
func instrument(base *http.Client, timeout time.Duration, m metrics.Collector) *http.Client {
	hc := &http.Client{}
	if base != nil {
		*hc = *base
	}
	if timeout > 0 {
		hc.Timeout = timeout
	}
	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	hc.Transport = &metricsTransport{next: next, metrics: m}
	return hc
}

type metricsTransport struct {
	next    http.RoundTripper
	metrics metrics.Collector
}

func (t *metricsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)

	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	host := req.URL.Host
	t.metrics.CounterInc(metrics.HTTPRequestsTotal.Name, "method", req.Method, "host", host, "status", status)
	t.metrics.HistogramObserve(metrics.HTTPRequestDuration.Name, time.Since(start).Seconds(), "method", req.Method, "host", host)
	return resp, err
}
