package waveflow

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

// Option configures a Gateway at construction time.
type Option func(*Gateway)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(baseURL string) Option {
	return func(g *Gateway) {
		if baseURL != "" {
			g.baseURL = baseURL
		}
	}
}

// WithHTTPClient replaces the default instrumented client. The client is used
// as given; no timeout is imposed on it.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		if client != nil {
			g.client = client
		}
	}
}

// WithLogger sets the structured logger used for call diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetrics records per-call Prometheus metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// WithTracerProvider sets the provider used for call spans. Defaults to the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(g *Gateway) {
		if tp != nil {
			g.tracer = tp.Tracer(instrumentationName)
		}
	}
}

// WithSessionFields replaces DefaultSessionFields.
func WithSessionFields(fields ...string) Option {
	return func(g *Gateway) {
		g.sessionFields = append([]string(nil), fields...)
	}
}

// WithMaxResponseBytes caps how much of a response body is read.
func WithMaxResponseBytes(n int64) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.maxBody = n
		}
	}
}

// WithRateLimit paces calls to at most rps per second with bursts of up to
// burst calls. Calls over the limit wait; a call whose context ends while
// waiting fails with ErrTransport and is never sent. A non-positive rps
// disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(g *Gateway) {
		if rps <= 0 {
			g.limiter = nil
			return
		}
		g.limiter = newTokenBucket(rps, burst)
	}
}
