package perf

import (
	"log/slog"
	"net/http"
	"time"
)

// Transport is an http.RoundTripper that times calls to the backend API
// and records them as KindUpstream entries.
type Transport struct {
	Base      http.RoundTripper
	Collector *Collector
}

// NewTransport wraps base; a nil base uses http.DefaultTransport.
func NewTransport(base http.RoundTripper, c *Collector) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Collector: c}
}

// RoundTrip implements http.RoundTripper.
// POST: exactly one entry is recorded per call; the Authorization header is never logged
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.Base.RoundTrip(req)
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0

	path := req.Method + " " + req.URL.Path
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if err != nil {
		slog.Warn("upstream_error", "path", path, "duration_ms", durationMs, "error", err)
	} else {
		slog.Debug("upstream", "path", path, "status", status, "duration_ms", durationMs)
	}

	if t.Collector != nil {
		t.Collector.Record(Entry{
			Kind:       KindUpstream,
			Path:       path,
			StatusCode: status,
			DurationMs: durationMs,
			Timestamp:  start,
		})
	}
	return resp, err
}
