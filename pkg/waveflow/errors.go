package waveflow

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the gateway can report.
type Kind int

const (
	KindUnknown Kind = iota
	// KindInvalidCredential is only produced while constructing a Gateway.
	KindInvalidCredential
	// KindTransport covers connection, DNS, TLS and timeout failures, and
	// non-2xx responses whose body is not JSON.
	KindTransport
	// KindDecode is a 2xx response whose body is not JSON.
	KindDecode
	// KindAPI is a well-formed JSON error response.
	KindAPI
	// KindValidation is raised before any network activity.
	KindValidation
	// KindApplication is a 2xx response whose embedded status_code reports
	// failure. Only produced by CheckEmbeddedStatus.
	KindApplication
)

// Sentinel errors usable with errors.Is.
var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrTransport         = errors.New("transport failure")
	ErrDecode            = errors.New("decode failure")
	ErrAPI               = errors.New("api error")
	ErrValidation        = errors.New("validation failure")
	ErrApplication       = errors.New("application error")
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCredential:
		return "invalid_credential"
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	case KindAPI:
		return "api"
	case KindValidation:
		return "validation"
	case KindApplication:
		return "application"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidCredential:
		return ErrInvalidCredential
	case KindTransport:
		return ErrTransport
	case KindDecode:
		return ErrDecode
	case KindAPI:
		return ErrAPI
	case KindValidation:
		return ErrValidation
	case KindApplication:
		return ErrApplication
	default:
		return nil
	}
}

// Error is the normalized failure descriptor returned by every gateway
// operation. StatusCode is zero when no HTTP response was received.
type Error struct {
	Kind       Kind
	Op         string
	Message    string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *Error) Error() string {
	prefix := e.Kind.sentinel()
	if prefix == nil {
		prefix = errors.New("waveflow error")
	}

	msg := e.Message
	switch {
	case msg == "" && e.Err != nil:
		msg = e.Err.Error()
	case e.Err != nil:
		msg += ": " + e.Err.Error()
	}

	var s string
	if e.StatusCode != 0 {
		s = fmt.Sprintf("%s (HTTP %d): %s", prefix, e.StatusCode, msg)
	} else {
		s = fmt.Sprintf("%s: %s", prefix, msg)
	}
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel matching the error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// StatusCodeOf returns the HTTP status attached to err, or zero.
func StatusCodeOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// IsInvalidCredential checks if the error came from credential resolution
func IsInvalidCredential(err error) bool { return errors.Is(err, ErrInvalidCredential) }

// IsTransport checks if the error is a transport failure
func IsTransport(err error) bool { return errors.Is(err, ErrTransport) }

// IsDecode checks if the error is a decode failure
func IsDecode(err error) bool { return errors.Is(err, ErrDecode) }

// IsAPI checks if the error is a service-reported API error
func IsAPI(err error) bool { return errors.Is(err, ErrAPI) }

// IsValidation checks if the error is a client-side validation failure
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsApplication checks if the error is an embedded application status failure
func IsApplication(err error) bool { return errors.Is(err, ErrApplication) }

// Invalid builds a ValidationFailure. Domain call sites use it to reject
// arguments before any request is made.
func Invalid(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Require returns a ValidationFailure when value is empty.
func Require(name, value string) error {
	if value == "" {
		return Invalid("%s is required", name)
	}
	return nil
}

func withOp(err error, op string) error {
	if e, ok := err.(*Error); ok && e.Op == "" {
		e.Op = op
	}
	return err
}
