package waveflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentanalytics-tech/waveflow-studio-sdk/internal/redact"
	"github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/telemetry"
)

const (
	// ServiceKeyPrefix marks service-issued keys, which are trusted without a
	// validation round trip.
	ServiceKeyPrefix = "AAAI"

	// UsernameHeader is sent by the profile and publish endpoints.
	UsernameHeader = "Username"

	instrumentationName = "github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/waveflow"
	defaultMaxBody      = 64 << 20
)

// Gateway executes calls against one WaveFlow Studio deployment. The
// credential and base address are fixed at construction; the current session
// is the only mutable state and is safe for concurrent use.
type Gateway struct {
	credential    string
	baseURL       string
	client        *http.Client
	logger        *slog.Logger
	metrics       *Metrics
	tracer        trace.Tracer
	redactor      *redact.Redactor
	sessionFields []string
	maxBody       int64
	session       sessionStore
	limiter       *tokenBucket

	openFile func(path string) (io.ReadCloser, error)
}

// IsServiceKey reports whether credential is a service-issued key.
func IsServiceKey(credential string) bool {
	return strings.HasPrefix(credential, ServiceKeyPrefix)
}

// New resolves credential and returns a ready gateway. Service keys are
// accepted without network activity; any other credential is validated with
// exactly one GET /user, and every failure of that check is reported as
// ErrInvalidCredential with the underlying cause wrapped.
func New(ctx context.Context, credential string, opts ...Option) (*Gateway, error) {
	g := &Gateway{
		credential:    credential,
		baseURL:       DefaultBaseURL,
		client:        &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		logger:        slog.Default(),
		tracer:        otel.GetTracerProvider().Tracer(instrumentationName),
		sessionFields: DefaultSessionFields,
		maxBody:       defaultMaxBody,
		openFile:      osOpen,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.redactor = redact.New(credential)

	if err := g.resolveCredential(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

// BaseURL returns the service address the gateway was built with.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

func (g *Gateway) resolveCredential(ctx context.Context) error {
	if IsServiceKey(g.credential) {
		g.logger.Debug("waveflow: service key accepted without validation")
		return nil
	}

	resp, err := g.do(ctx, &Call{Operation: "credential.validate", Method: http.MethodGet, Path: "/user"}, false)
	if err != nil {
		return &Error{Kind: KindInvalidCredential, Op: "GET /user", Message: "credential could not be validated", Err: err}
	}
	if !credentialAccepted(resp.Object()) {
		return &Error{
			Kind:       KindInvalidCredential,
			Op:         "GET /user",
			Message:    "credential rejected",
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
		}
	}

	g.logger.Debug("waveflow: credential validated")
	return nil
}

func credentialAccepted(obj Object) bool {
	code, ok := embeddedStatus(obj)
	if !ok || code != http.StatusOK {
		return false
	}
	content, ok := obj["content"].(map[string]any)
	if !ok {
		return false
	}
	valid, ok := content["valid"].(bool)
	return ok && valid
}

// Do performs exactly one HTTP exchange and normalizes the result. A
// successful JSON object carrying one of the session fields replaces the
// current session. Calls are never retried.
func (g *Gateway) Do(ctx context.Context, call *Call) (*Response, error) {
	return g.do(ctx, call, true)
}

func (g *Gateway) do(ctx context.Context, call *Call, adopt bool) (*Response, error) {
	if call == nil {
		return nil, Invalid("call is required")
	}
	op := call.operation()
	if err := call.validate(); err != nil {
		return nil, withOp(err, op)
	}

	method := call.method()
	ctx, span := g.tracer.Start(ctx, "waveflow.call",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("waveflow.operation", op),
			attribute.String("http.request.method", method),
			attribute.String("url.path", call.Path),
		),
	)
	defer span.End()

	if g.limiter != nil {
		if err := g.limiter.wait(ctx); err != nil {
			err = &Error{Kind: KindTransport, Op: op, Message: "rate limit wait", Err: err}
			span.RecordError(err)
			span.SetStatus(codes.Error, KindTransport.String())
			return nil, err
		}
	}

	start := time.Now()
	resp, err := g.roundTrip(ctx, call, op, method)
	timedOut := call.Timeout > 0 && errors.Is(err, context.DeadlineExceeded)
	g.record(ctx, span, op, method, resp, err, timedOut, time.Since(start))
	if err != nil {
		return nil, err
	}

	if adopt {
		if id, field := g.adoptSession(resp.Payload); id != "" {
			telemetry.RecordSessionEvent(span, id, field)
		}
	}
	return resp, nil
}

func (g *Gateway) roundTrip(ctx context.Context, call *Call, op, method string) (*Response, error) {
	if call.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, call.Timeout)
		defer cancel()
	}

	var (
		body        io.Reader
		contentType string
	)
	if len(call.Files) > 0 {
		files, err := g.openFiles(call.Files)
		if err != nil {
			return nil, withOp(err, op)
		}
		defer closeFiles(files)

		var wait func()
		body, contentType, wait = multipartBody(call.Form, files)
		defer wait()
	} else {
		var err error
		body, contentType, err = call.encodeBody()
		if err != nil {
			return nil, withOp(err, op)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, buildURL(g.baseURL, call.Path, call.Query), body)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Op: op, Message: "build request", Err: err}
	}
	for name, values := range call.Header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if auth := call.Auth.header(g.credential); auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if call.Session && req.Header.Get(SessionHeader) == "" {
		req.Header.Set(SessionHeader, g.session.ensure())
	}

	httpResp, err := g.client.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: op, Message: "request failed", Err: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, g.maxBody+1))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: op, Message: "read response", StatusCode: httpResp.StatusCode, Err: err}
	}
	if int64(len(data)) > g.maxBody {
		return nil, &Error{
			Kind:       KindTransport,
			Op:         op,
			Message:    fmt.Sprintf("response exceeds %d bytes", g.maxBody),
			StatusCode: httpResp.StatusCode,
		}
	}

	return normalize(op, httpResp.StatusCode, httpResp.Header, data, call.Raw)
}

func (g *Gateway) record(ctx context.Context, span trace.Span, op, method string, resp *Response, err error, timedOut bool, elapsed time.Duration) {
	outcome := "success"
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if err != nil {
		outcome = KindOf(err).String()
		status = StatusCodeOf(err)
	}

	if status != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	span.SetAttributes(attribute.String("waveflow.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}

	telemetry.RecordCallMetrics(ctx, telemetry.CallMetrics{
		Operation:  op,
		Method:     method,
		StatusCode: status,
		Outcome:    outcome,
		Duration:   elapsed,
		TimedOut:   timedOut,
	})
	if g.metrics != nil {
		g.metrics.observe(op, method, outcome, elapsed)
	}

	if err != nil {
		g.logger.Debug("waveflow: call failed",
			"operation", op,
			"method", method,
			"status", status,
			"kind", outcome,
			"error", g.redactor.Redact(err.Error()),
			"duration", elapsed,
		)
		return
	}
	g.logger.Debug("waveflow: call completed",
		"operation", op,
		"method", method,
		"status", status,
		"duration", elapsed,
	)
}
