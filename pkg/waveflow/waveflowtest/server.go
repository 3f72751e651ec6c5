// Package waveflowtest provides an in-process fake WaveFlow Studio server for
// tests. Every request is recorded, including decoded form fields and
// uploaded files.
package waveflowtest

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Request is a recorded inbound request.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
	Form   url.Values
	Files  []UploadedFile
}

// UploadedFile is one multipart file part.
type UploadedFile struct {
	Field       string
	Filename    string
	ContentType string
	Content     []byte
}

// JSON decodes the recorded body into a generic value.
func (r Request) JSON() map[string]any {
	var out map[string]any
	_ = json.Unmarshal(r.Body, &out)
	return out
}

// File returns the first uploaded file for field.
func (r Request) File(field string) (UploadedFile, bool) {
	for _, f := range r.Files {
		if f.Field == field {
			return f, true
		}
	}
	return UploadedFile{}, false
}

// Server is a recording fake of the service.
type Server struct {
	*httptest.Server

	router chi.Router

	mu       sync.Mutex
	requests []Request
}

// NewServer starts a fake server that is closed when the test ends. Unknown
// routes answer 404 with a FastAPI-style {"detail": "Not Found"} body.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{router: chi.NewRouter()}
	s.router.Use(s.record)
	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusNotFound, map[string]any{"detail": "Not Found"})
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusMethodNotAllowed, map[string]any{"detail": "Method Not Allowed"})
	})

	s.Server = httptest.NewServer(s.router)
	t.Cleanup(s.Close)
	return s
}

// Handle registers h for method and a chi route pattern.
func (s *Server) Handle(method, pattern string, h http.HandlerFunc) {
	s.router.MethodFunc(method, pattern, h)
}

// JSON registers a route answering with a fixed status and JSON body.
func (s *Server) JSON(method, pattern string, status int, body any) {
	s.Handle(method, pattern, func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, status, body)
	})
}

// Raw registers a route answering with a fixed status, content type and body.
func (s *Server) Raw(method, pattern string, status int, contentType, body string) {
	s.Handle(method, pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

// AcceptToken registers GET /user so that token validates and every other
// bearer gets a 401.
func (s *Server) AcceptToken(token string) {
	s.Handle(http.MethodGet, "/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			WriteJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Invalid token"})
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{
			"status_code": 200,
			"content":     map[string]any{"valid": true},
		})
	})
}

// Requests returns a copy of everything recorded so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Last returns the most recent request.
func (s *Server) Last() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// Count returns how many requests hit method and path.
func (s *Server) Count(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// WriteJSON writes body as JSON with status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		rec := Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		}
		rec.Form, rec.Files = parseForm(r.Header.Get("Content-Type"), body)

		s.mu.Lock()
		s.requests = append(s.requests, rec)
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func parseForm(contentType string, body []byte) (url.Values, []UploadedFile) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, nil
	}

	switch {
	case mediaType == "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, nil
		}
		return values, nil
	case strings.HasPrefix(mediaType, "multipart/"):
		values := url.Values{}
		var files []UploadedFile
		mr := multipart.NewReader(bytes.NewReader(body), params["boundary"])
		for {
			part, err := mr.NextPart()
			if err != nil {
				break
			}
			data, _ := io.ReadAll(part)
			if part.FileName() != "" {
				files = append(files, UploadedFile{
					Field:       part.FormName(),
					Filename:    part.FileName(),
					ContentType: part.Header.Get("Content-Type"),
					Content:     data,
				})
				continue
			}
			values.Add(part.FormName(), string(data))
		}
		return values, files
	default:
		return nil, nil
	}
}
