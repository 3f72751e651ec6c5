package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// AttrSessionID is the span attribute carrying an adopted session identifier.
const AttrSessionID = "waveflow.session.id"

var (
	metricsOnce       sync.Once
	metricsInitErr    error
	callCounter       metric.Int64Counter
	callErrorCounter  metric.Int64Counter
	callTimeoutCount  metric.Int64Counter
	callLatencyMillis metric.Float64Histogram
)

// CallMetrics captures the fields needed to record one gateway call.
type CallMetrics struct {
	Operation  string
	Method     string
	StatusCode int
	// Outcome is "success" or the failure kind, e.g. "api" or "transport".
	Outcome  string
	Duration time.Duration
	TimedOut bool
}

// RecordCallMetrics emits counters and histograms that describe gateway calls.
// It is a no-op until a MeterProvider is installed.
func RecordCallMetrics(ctx context.Context, m CallMetrics) {
	if err := ensureMetrics(); err != nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("waveflow.operation", m.Operation),
		attribute.String("http.request.method", m.Method),
		attribute.String("waveflow.outcome", m.Outcome),
	}
	if m.StatusCode != 0 {
		attrs = append(attrs, attribute.Int("http.response.status_code", m.StatusCode))
	}

	callCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	if m.Duration > 0 {
		callLatencyMillis.Record(ctx, float64(m.Duration)/float64(time.Millisecond), metric.WithAttributes(attrs...))
	}

	if m.Outcome != "" && m.Outcome != "success" {
		callErrorCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if m.TimedOut {
		callTimeoutCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("waveflow.client")

		callCounter, metricsInitErr = meter.Int64Counter(
			"waveflow.client.calls_total",
			metric.WithDescription("Gateway calls partitioned by operation and outcome"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		callErrorCounter, metricsInitErr = meter.Int64Counter(
			"waveflow.client.errors_total",
			metric.WithDescription("Gateway calls that ended in a normalized failure"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		callTimeoutCount, metricsInitErr = meter.Int64Counter(
			"waveflow.client.timeouts_total",
			metric.WithDescription("Gateway calls that exceeded their per-call timeout"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		callLatencyMillis, metricsInitErr = meter.Float64Histogram(
			"waveflow.client.duration_ms",
			metric.WithDescription("Observed gateway call latency"),
			metric.WithUnit("ms"),
		)
	})

	return metricsInitErr
}

// RecordSessionEvent notes on span that the gateway adopted a server-assigned
// session. The identifier is hashed before it is attached.
func RecordSessionEvent(span trace.Span, sessionID, field string) {
	if span == nil || !span.IsRecording() {
		return
	}

	attrs := RedactAttributes(SessionPolicy, []attribute.KeyValue{
		attribute.String(AttrSessionID, sessionID),
		attribute.String("waveflow.session.field", field),
	})

	span.AddEvent("waveflow.session.adopted", trace.WithAttributes(attrs...))
}
