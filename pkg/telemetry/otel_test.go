package telemetry

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	collectortrace "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

type traceCollector struct {
	collectortrace.UnimplementedTraceServiceServer

	mu            sync.Mutex
	metadata      []metadata.MD
	resourceSpans []*tracepb.ResourceSpans
}

func startTraceCollector(t *testing.T) (*traceCollector, string) {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	collector := &traceCollector{}
	server := grpc.NewServer()
	collectortrace.RegisterTraceServiceServer(server, collector)
	go func() {
		_ = server.Serve(lis)
	}()
	t.Cleanup(server.Stop)

	return collector, lis.Addr().String()
}

func (c *traceCollector) Export(ctx context.Context, req *collectortrace.ExportTraceServiceRequest) (*collectortrace.ExportTraceServiceResponse, error) {
	md, _ := metadata.FromIncomingContext(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.metadata = append(c.metadata, md)
	c.resourceSpans = append(c.resourceSpans, req.ResourceSpans...)
	return &collectortrace.ExportTraceServiceResponse{}, nil
}

func (c *traceCollector) snapshot() ([]metadata.MD, []*tracepb.ResourceSpans) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]metadata.MD(nil), c.metadata...), append([]*tracepb.ResourceSpans(nil), c.resourceSpans...)
}

func resourceAttrs(rs *tracepb.ResourceSpans) map[string]string {
	out := map[string]string{}
	for _, kv := range rs.GetResource().GetAttributes() {
		out[kv.GetKey()] = kv.GetValue().GetStringValue()
	}
	return out
}

func TestSetupProviderExportsWithHeadersAndResource(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	collector, addr := startTraceCollector(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdown, err := SetupProvider(ctx, Config{
		ServiceName:  "waveflow-cli",
		Endpoint:     addr,
		Environment:  "staging",
		Insecure:     true,
		Headers:      map[string]string{"x-api-key": "collector-secret"},
		ResourceTags: map[string]string{"team": "sdk"},
	})
	require.NoError(t, err)

	_, span := otel.Tracer("waveflow-test").Start(ctx, "waveflow.call")
	span.End()
	require.NoError(t, shutdown(ctx))

	mds, spans := collector.snapshot()
	require.NotEmpty(t, mds)
	assert.Equal(t, []string{"collector-secret"}, mds[0].Get("x-api-key"))

	require.NotEmpty(t, spans)
	attrs := resourceAttrs(spans[0])
	assert.Equal(t, "waveflow-cli", attrs["service.name"])
	assert.Equal(t, "staging", attrs["deployment.environment"])
	assert.Equal(t, "sdk", attrs["team"])
}
