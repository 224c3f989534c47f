package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig = errors.New("configuration not found")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Catalog and artifact failures
	ErrNetwork    = errors.New("network failure")
	ErrParse      = errors.New("parse failure")
	ErrIO         = errors.New("io failure")
	ErrTimeout    = errors.New("operation timed out")
	ErrSuperseded = errors.New("search superseded by a newer query")
	ErrNoCover    = errors.New("book has no cover image")

	// Service errors
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrBookNotFound       = errors.New("book not found")
	ErrRecordNotFound     = errors.New("record not found")

	// Input validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingArgument = errors.New("missing required argument")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidFlag     = errors.New("invalid flag value")
)

// FailureKind classifies a [Failure].
type FailureKind int

const (
	NetworkFailure FailureKind = iota // non-success status or transport error
	ParseFailure                      // malformed body or missing fields
	IOFailure                         // local artifact write failure
)

func (k FailureKind) String() string {
	switch k {
	case NetworkFailure:
		return "network"
	case ParseFailure:
		return "parse"
	case IOFailure:
		return "io"
	default:
		return "unknown"
	}
}

func (k FailureKind) sentinel() error {
	switch k {
	case NetworkFailure:
		return ErrNetwork
	case ParseFailure:
		return ErrParse
	default:
		return ErrIO
	}
}

// Failure is the error reported by the catalog client and the share pipeline.
//
// StatusCode is the HTTP status when one was received and 0 otherwise.
// [errors.Is] matches both the kind's sentinel ([ErrNetwork], [ErrParse], [ErrIO]) and the wrapped cause.
type Failure struct {
	Kind       FailureKind
	StatusCode int
	Message    string
	Err        error
}

// NewFailure builds a [Failure] of the given kind.
func NewFailure(kind FailureKind, status int, msg string, err error) *Failure {
	return &Failure{Kind: kind, StatusCode: status, Message: msg, Err: err}
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("%s failure", f.Kind)
	if f.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, f.StatusCode)
	}
	if f.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, f.Message)
	}
	if f.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, f.Err)
	}
	return msg
}

func (f *Failure) Unwrap() []error {
	if f.Err == nil {
		return []error{f.Kind.sentinel()}
	}
	return []error{f.Kind.sentinel(), f.Err}
}

// AsFailure extracts a [Failure] from err's chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
