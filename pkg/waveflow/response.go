package waveflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const unknownAPIError = "Unknown API error"

// Object is a decoded JSON object payload.
type Object = map[string]any

// Response is a successful, normalized result. Payload holds the decoded JSON
// body exactly as the service sent it, with numbers kept as json.Number; it is
// nil for raw calls and 204s.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Payload    any
}

// Object returns the payload when it is a JSON object.
func (r *Response) Object() Object {
	if r == nil {
		return nil
	}
	obj, _ := r.Payload.(map[string]any)
	return obj
}

// Decode unmarshals the raw body into v. Numbers decoded into interface
// values are json.Number.
func (r *Response) Decode(v any) error {
	if err := DecodeJSON(r.Body, v); err != nil {
		return &Error{Kind: KindDecode, Message: "decode response", StatusCode: r.StatusCode, Err: err}
	}
	return nil
}

// DecodeJSON unmarshals exactly one JSON value from data into v. Numbers
// stored in interface values are json.Number so integers wider than 53 bits
// survive unchanged. Trailing data after the value is an error.
func DecodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("invalid character after top-level value")
	}
	return nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// normalize maps a raw HTTP exchange onto a Response or an *Error.
func normalize(op string, status int, header http.Header, body []byte, raw bool) (*Response, error) {
	if raw && isSuccess(status) {
		return &Response{StatusCode: status, Header: header, Body: body}, nil
	}
	if status == http.StatusNoContent {
		return &Response{StatusCode: status, Header: header, Body: body}, nil
	}

	var payload any
	if err := DecodeJSON(body, &payload); err != nil {
		if !isSuccess(status) {
			return nil, &Error{
				Kind:       KindTransport,
				Op:         op,
				Message:    fmt.Sprintf("unexpected status %d %s", status, http.StatusText(status)),
				StatusCode: status,
				Body:       body,
				Err:        err,
			}
		}
		return nil, &Error{Kind: KindDecode, Op: op, Message: "unknown server error", StatusCode: status, Err: err}
	}

	if !isSuccess(status) {
		return nil, &Error{
			Kind:       KindAPI,
			Op:         op,
			Message:    ErrorMessage(payload),
			StatusCode: status,
			Body:       body,
		}
	}

	return &Response{StatusCode: status, Header: header, Body: body, Payload: payload}, nil
}

// ErrorMessage extracts the human-readable message from a decoded error body,
// checking detail, then error, then message. Non-string values are rendered
// as compact JSON.
func ErrorMessage(payload any) string {
	obj, ok := payload.(map[string]any)
	if !ok {
		return unknownAPIError
	}
	for _, key := range []string{"detail", "error", "message"} {
		v, present := obj[key]
		if !present || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			return s
		}
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
	return unknownAPIError
}

// CheckEmbeddedStatus reports an ApplicationFailure when a 2xx body does not
// carry status_code 200. The gateway never applies it on its own; call sites
// whose endpoint signals failures this way opt in.
func CheckEmbeddedStatus(resp *Response) error {
	obj := resp.Object()
	code, ok := embeddedStatus(obj)
	if ok && code == http.StatusOK {
		return nil
	}

	msg := "Unknown error"
	if m, ok := obj["message"].(string); ok && m != "" {
		msg = m
	}
	return &Error{Kind: KindApplication, Message: msg, StatusCode: code, Body: resp.Body}
}

func embeddedStatus(obj Object) (int, bool) {
	switch v := obj["status_code"].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	default:
		return 0, false
	}
}
