// Package config loads CLI configuration from a YAML file and WAVEFLOW_*
// environment variables. Command-line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/logging"
	"github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/telemetry"
	"github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/waveflow"
)

// EnvPrefix prefixes every environment variable, e.g. WAVEFLOW_API_KEY.
const EnvPrefix = "WAVEFLOW"

const logPrefix = "config:Load"

// Config holds the settings shared by every command.
type Config struct {
	APIKey  string `yaml:"api_key" split_words:"true"`
	BaseURL string `yaml:"base_url" split_words:"true"`

	// Timeout bounds a whole command. Zero means no limit.
	Timeout          time.Duration `yaml:"timeout"`
	MaxResponseBytes int64         `yaml:"max_response_bytes" split_words:"true"`
	SessionFields    []string      `yaml:"session_fields" split_words:"true"`

	// RateLimit paces calls per second; zero disables pacing.
	RateLimit float64 `yaml:"rate_limit" split_words:"true"`
	RateBurst int     `yaml:"rate_burst" split_words:"true"`

	LogLevel  string `yaml:"log_level" split_words:"true"`
	LogFormat string `yaml:"log_format" split_words:"true"`
	Output    string `yaml:"output"`

	OTLPEndpoint string            `yaml:"otlp_endpoint" split_words:"true"`
	OTLPInsecure bool              `yaml:"otlp_insecure" split_words:"true"`
	// OTLPHeaders are sent with every export, e.g. a collector API key.
	// In the environment: WAVEFLOW_OTLP_HEADERS=key:value,key2:value2.
	OTLPHeaders  map[string]string `yaml:"otlp_headers" split_words:"true"`
	Environment  string            `yaml:"environment"`
	ResourceTags map[string]string `yaml:"resource_tags" split_words:"true"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		BaseURL:   waveflow.DefaultBaseURL,
		LogLevel:  "info",
		LogFormat: "text",
		Output:    "json",
	}
}

// Load applies, in increasing precedence, the defaults, the YAML file at path
// (skipped when path is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("%s - environment: %w", logPrefix, err)
	}
	return cfg, nil
}

// loadFile overlays a YAML file. ${VAR} references are expanded first so
// keys need not be stored in the file.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s - failed to read config file: %w", logPrefix, err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), c); err != nil {
		return fmt.Errorf("%s - failed to parse config file: %w", logPrefix, err)
	}
	return nil
}

// Validate checks the settings a command needs before it dials the service.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.BaseURL)
	switch {
	case c.BaseURL == "":
		errs = append(errs, errors.New("base_url is required"))
	case err != nil:
		errs = append(errs, fmt.Errorf("base_url: %w", err))
	case u.Scheme != "http" && u.Scheme != "https", u.Host == "":
		errs = append(errs, fmt.Errorf("base_url %q must be an absolute http(s) URL", c.BaseURL))
	}

	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	if c.MaxResponseBytes < 0 {
		errs = append(errs, errors.New("max_response_bytes must not be negative"))
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		errs = append(errs, errors.New("rate_limit and rate_burst must not be negative"))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("log_format %q must be text or json", c.LogFormat))
	}
	if o := strings.ToLower(c.Output); o != "json" && o != "yaml" {
		errs = append(errs, fmt.Errorf("output %q must be json or yaml", c.Output))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s - invalid configuration: %w", logPrefix, errors.Join(errs...))
	}
	return nil
}

// RequireAPIKey reports a missing credential.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return fmt.Errorf("%s - api key is required: set --api-key, %s_API_KEY or api_key in the config file", logPrefix, EnvPrefix)
	}
	return nil
}

// Telemetry builds the trace exporter settings for service.
func (c *Config) Telemetry(service string) telemetry.Config {
	return telemetry.Config{
		ServiceName:  service,
		Endpoint:     c.OTLPEndpoint,
		Environment:  c.Environment,
		Insecure:     c.OTLPInsecure,
		Headers:      c.OTLPHeaders,
		ResourceTags: c.ResourceTags,
	}
}

// Secrets lists configured values that must never reach a log line.
func (c *Config) Secrets() []string {
	secrets := []string{c.APIKey}
	for _, v := range c.OTLPHeaders {
		secrets = append(secrets, v)
	}
	return secrets
}

// GatewayOptions translates the settings into gateway options.
func (c *Config) GatewayOptions() []waveflow.Option {
	opts := []waveflow.Option{waveflow.WithBaseURL(c.BaseURL)}
	if c.MaxResponseBytes > 0 {
		opts = append(opts, waveflow.WithMaxResponseBytes(c.MaxResponseBytes))
	}
	if len(c.SessionFields) > 0 {
		opts = append(opts, waveflow.WithSessionFields(c.SessionFields...))
	}
	if c.RateLimit > 0 {
		opts = append(opts, waveflow.WithRateLimit(c.RateLimit, c.RateBurst))
	}
	return opts
}
