package waveflow

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Call describes one request against the service. At most one of JSON and
// Form/Files may be set; Files alone produce a multipart body.
type Call struct {
	// Operation names the call in logs, spans and metrics. Defaults to Path.
	Operation string

	Method string
	Path   string
	Query  url.Values
	Header http.Header

	JSON  any
	Form  url.Values
	Files []File

	Auth    Auth
	Timeout time.Duration

	// Session attaches the current session (created if absent) as the
	// Sessionid header.
	Session bool

	// Raw skips JSON decoding of 2xx bodies; the bytes are left in Response.Body.
	Raw bool
}

// File is a local file attached to a multipart call.
type File struct {
	Field       string
	Path        string
	Name        string
	ContentType string
}

type authMode int

const (
	authGateway authMode = iota
	authNone
	authToken
)

// Auth is the per-call authorization policy. The zero value sends the
// gateway's own credential.
type Auth struct {
	mode  authMode
	token string
}

// NoAuth sends no Authorization header.
func NoAuth() Auth { return Auth{mode: authNone} }

// BearerToken sends token instead of the gateway credential.
func BearerToken(token string) Auth { return Auth{mode: authToken, token: token} }

func (a Auth) header(credential string) string {
	switch a.mode {
	case authNone:
		return ""
	case authToken:
		return "Bearer " + a.token
	default:
		return "Bearer " + credential
	}
}

func (c *Call) operation() string {
	if c.Operation != "" {
		return c.Operation
	}
	return c.Path
}

func (c *Call) method() string {
	if c.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(c.Method)
}

func (c *Call) validate() error {
	if c.Path == "" {
		return Invalid("path is required")
	}
	if c.JSON != nil && (len(c.Form) > 0 || len(c.Files) > 0) {
		return Invalid("a call carries either a JSON body or form fields, not both")
	}
	for i, f := range c.Files {
		if f.Field == "" {
			return Invalid("file %d: field name is required", i)
		}
		if f.Path == "" {
			return Invalid("file %d: path is required", i)
		}
	}
	return nil
}

// encodeBody returns the request body for JSON and url-encoded calls.
// Multipart bodies are produced by openMultipart.
func (c *Call) encodeBody() (io.Reader, string, error) {
	switch {
	case c.JSON != nil:
		data, err := json.Marshal(c.JSON)
		if err != nil {
			return nil, "", &Error{Kind: KindValidation, Message: "encode json body", Err: err}
		}
		return bytes.NewReader(data), "application/json", nil
	case len(c.Form) > 0:
		return strings.NewReader(c.Form.Encode()), "application/x-www-form-urlencoded", nil
	default:
		return nil, "", nil
	}
}
