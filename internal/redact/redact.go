// Package redact scrubs credentials out of strings before they reach logs or
// terminal output.
package redact

import (
	"os"
	"regexp"
	"strings"
)

// Placeholder replaces every redacted value.
const Placeholder = "[REDACTED]"

// Redactor removes known secrets and secret-shaped substrings.
type Redactor struct {
	known    []string
	patterns []*regexp.Regexp
}

// New creates a Redactor that knows the provided secrets. Empty secrets are
// ignored.
func New(secrets ...string) *Redactor {
	known := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if s != "" {
			known = append(known, s)
		}
	}

	return &Redactor{
		known: known,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(Bearer\s+)([a-zA-Z0-9\-\._~+/]+=*)`),
			// api_key and friends inside JSON bodies, e.g. model registrations
			regexp.MustCompile(`("(?:api_key|apiKey|token|secret|password)"\s*:\s*")([^"]*)`),
		},
	}
}

// FromEnv creates a Redactor that knows the values of the named environment
// variables, for example WAVEFLOW_API_KEY.
func FromEnv(keys ...string) *Redactor {
	var secrets []string
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			secrets = append(secrets, val)
		}
	}
	return New(secrets...)
}

// With returns a copy that additionally knows secrets.
func (r *Redactor) With(secrets ...string) *Redactor {
	if r == nil {
		return New(secrets...)
	}
	out := New(append(append([]string(nil), r.known...), secrets...)...)
	return out
}

// Redact replaces secrets in the input string. A nil Redactor returns input
// unchanged.
func (r *Redactor) Redact(input string) string {
	if r == nil {
		return input
	}
	res := input

	for _, secret := range r.known {
		res = strings.ReplaceAll(res, secret, Placeholder)
	}

	for _, re := range r.patterns {
		res = re.ReplaceAllString(res, "${1}"+Placeholder)
	}

	return res
}
