package telemetry

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}

	metrics := map[string]metricdata.Metrics{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			metrics[m.Name] = m
		}
	}
	return metrics
}

func installReader(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		otel.SetMeterProvider(prev)
		ResetMetricsForTest()
	})

	ResetMetricsForTest()
	return reader
}

func TestRecordCallMetrics(t *testing.T) {
	ctx := context.Background()
	reader := installReader(t)

	RecordCallMetrics(ctx, CallMetrics{
		Operation:  "workflows.admin_run",
		Method:     "POST",
		StatusCode: 0,
		Outcome:    "transport",
		Duration:   150 * time.Millisecond,
		TimedOut:   true,
	})

	metrics := collect(t, reader)

	calls, ok := metrics["waveflow.client.calls_total"]
	if !ok {
		t.Fatalf("missing waveflow.client.calls_total metric")
	}
	callData, ok := calls.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("unexpected data type for calls metric")
	}
	if len(callData.DataPoints) != 1 {
		t.Fatalf("expected 1 datapoint, got %d", len(callData.DataPoints))
	}
	if callData.DataPoints[0].Value != 1 {
		t.Fatalf("expected calls count 1, got %d", callData.DataPoints[0].Value)
	}
	if value, ok := callData.DataPoints[0].Attributes.Value(attribute.Key("waveflow.operation")); !ok || value.AsString() != "workflows.admin_run" {
		t.Fatalf("expected waveflow.operation attribute, got %v", value)
	}
	if _, ok := callData.DataPoints[0].Attributes.Value(attribute.Key("http.response.status_code")); ok {
		t.Fatalf("status code attribute must be omitted when no response was received")
	}

	errs, ok := metrics["waveflow.client.errors_total"]
	if !ok {
		t.Fatalf("missing waveflow.client.errors_total metric")
	}
	if errs.Data.(metricdata.Sum[int64]).DataPoints[0].Value != 1 {
		t.Fatalf("expected error count 1")
	}

	timeouts, ok := metrics["waveflow.client.timeouts_total"]
	if !ok {
		t.Fatalf("missing waveflow.client.timeouts_total metric")
	}
	if timeouts.Data.(metricdata.Sum[int64]).DataPoints[0].Value != 1 {
		t.Fatalf("expected timeout count 1")
	}

	hist, ok := metrics["waveflow.client.duration_ms"]
	if !ok {
		t.Fatalf("missing waveflow.client.duration_ms metric")
	}
	histData := hist.Data.(metricdata.Histogram[float64])
	if histData.DataPoints[0].Count != 1 {
		t.Fatalf("expected histogram count 1, got %d", histData.DataPoints[0].Count)
	}
	if histData.DataPoints[0].Sum != 150 {
		t.Fatalf("expected histogram sum 150, got %v", histData.DataPoints[0].Sum)
	}
}

func TestRecordCallMetricsSuccessSkipsErrorCounter(t *testing.T) {
	ctx := context.Background()
	reader := installReader(t)

	RecordCallMetrics(ctx, CallMetrics{
		Operation:  "models.list",
		Method:     "GET",
		StatusCode: 200,
		Outcome:    "success",
		Duration:   5 * time.Millisecond,
	})

	metrics := collect(t, reader)
	if _, ok := metrics["waveflow.client.calls_total"]; !ok {
		t.Fatalf("missing waveflow.client.calls_total metric")
	}
	if m, ok := metrics["waveflow.client.errors_total"]; ok {
		if len(m.Data.(metricdata.Sum[int64]).DataPoints) != 0 {
			t.Fatalf("successful call must not count as an error")
		}
	}
}

func TestRecordSessionEvent(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider()
	tp.RegisterSpanProcessor(recorder)
	tracer := tp.Tracer("test")

	_, span := tracer.Start(context.Background(), "waveflow.call")
	RecordSessionEvent(span, "sess-1234567890", "session_id")
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	events := spans[0].Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 session event, got %d", len(events))
	}
	event := events[0]
	if event.Name != "waveflow.session.adopted" {
		t.Fatalf("unexpected event name %q", event.Name)
	}

	attrs := attribute.NewSet(event.Attributes...)
	value, ok := attrs.Value(attribute.Key(AttrSessionID))
	if !ok {
		t.Fatalf("expected %s attribute", AttrSessionID)
	}
	if value.AsString() == "sess-1234567890" || !strings.HasPrefix(value.AsString(), "[REDACTED:hash:") {
		t.Fatalf("session id must be hashed, got %q", value.AsString())
	}
	if value, ok := attrs.Value(attribute.Key("waveflow.session.field")); !ok || value.AsString() != "session_id" {
		t.Fatalf("expected session field attribute, got %v", value)
	}

	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown tracer provider: %v", err)
	}
}

func TestRecordSessionEventIgnoresNilSpan(t *testing.T) {
	RecordSessionEvent(nil, "sess", "session_id")
}
