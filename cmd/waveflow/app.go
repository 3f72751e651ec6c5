package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/agentanalytics-tech/waveflow-studio-sdk/internal/config"
	"github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/logging"
	"github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/studio"
	"github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/telemetry"
	"github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/waveflow"
)

const cliServiceName = "waveflow-cli"

// rootFlags holds the persistent flags. They override the config file and
// the environment only when set explicitly.
type rootFlags struct {
	apiKey       string
	baseURL      string
	configPath   string
	logLevel     string
	logFormat    string
	output       string
	otlpEndpoint string
	otlpInsecure bool
	timeout      time.Duration
}

// app carries per-invocation state shared by all commands.
type app struct {
	stdout io.Writer
	stderr io.Writer

	flags  rootFlags
	cfg    *config.Config
	logger *slog.Logger

	gw     *waveflow.Gateway
	client *studio.Client

	// extra gateway options, used by tests to swap the HTTP client
	gatewayOpts []waveflow.Option

	shutdown func(context.Context) error
	cancel   context.CancelFunc
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, logger: logging.Discard()}
}

// setup resolves configuration, logging and telemetry before any command runs.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flags.configPath)
	if err != nil {
		return err
	}

	f := cmd.Flags()
	if f.Changed("api-key") {
		cfg.APIKey = a.flags.apiKey
	}
	if f.Changed("base-url") {
		cfg.BaseURL = a.flags.baseURL
	}
	if f.Changed("log-level") {
		cfg.LogLevel = a.flags.logLevel
	}
	if f.Changed("log-format") {
		cfg.LogFormat = a.flags.logFormat
	}
	if f.Changed("output") {
		cfg.Output = a.flags.output
	}
	if f.Changed("otlp-endpoint") {
		cfg.OTLPEndpoint = a.flags.otlpEndpoint
	}
	if f.Changed("otlp-insecure") {
		cfg.OTLPInsecure = a.flags.otlpInsecure
	}
	if f.Changed("timeout") {
		cfg.Timeout = a.flags.timeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = logging.NewLogger(logging.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		Output:    a.stderr,
		Secrets:   cfg.Secrets(),
		SecretEnv: []string{config.EnvPrefix + "_API_KEY"},
	})

	ctx := cmd.Context()
	shutdown, err := telemetry.SetupProvider(ctx, cfg.Telemetry(cliServiceName))
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	a.shutdown = shutdown

	if cfg.Timeout > 0 {
		ctx, a.cancel = context.WithTimeout(ctx, cfg.Timeout)
		cmd.SetContext(ctx)
	}
	return nil
}

// close releases the command timeout and flushes telemetry. It is safe to
// call more than once.
func (a *app) close(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.shutdown == nil {
		return nil
	}
	shutdown := a.shutdown
	a.shutdown = nil

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		a.logger.Warn("telemetry shutdown failed", "error", err)
	}
	return nil
}

// studio connects on first use so commands that fail validation never
// touch the network.
func (a *app) studio(ctx context.Context) (*studio.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	if err := a.cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	opts := append(a.cfg.GatewayOptions(), waveflow.WithLogger(a.logger))
	opts = append(opts, a.gatewayOpts...)
	gw, err := waveflow.New(ctx, a.cfg.APIKey, opts...)
	if err != nil {
		return nil, err
	}
	a.gw = gw
	a.client = studio.New(gw)
	return a.client, nil
}

// print writes v in the configured output format. Strings are written as-is.
func (a *app) print(v any) error {
	if s, ok := v.(string); ok {
		_, err := fmt.Fprintln(a.stdout, s)
		return err
	}

	if strings.EqualFold(a.cfg.Output, "yaml") {
		doc, err := yamlDocument(v)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		enc := yaml.NewEncoder(a.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// yamlDocument reshapes v the way the JSON output sees it and turns
// json.Number values into untagged YAML numbers, so large integers print
// digit for digit instead of as quoted strings.
func yamlDocument(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := waveflow.DecodeJSON(data, &generic); err != nil {
		return nil, err
	}
	return yamlNumbers(generic), nil
}

func yamlNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = yamlNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = yamlNumbers(e)
		}
		return t
	case json.Number:
		tag := "!!int"
		if strings.ContainsAny(string(t), ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: string(t)}
	default:
		return v
	}
}

// printResult is the common tail of every command.
func (a *app) printResult(v any, err error) error {
	if err != nil {
		return err
	}
	return a.print(v)
}

// splitPair parses "key=value".
func splitPair(s string) (string, string, error) {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return "", "", fmt.Errorf("expected key=value, got %q", s)
	}
	return k, v, nil
}
