// Package model holds algex's two error kinds: NoMatch, caught only by an
// enclosing repetition (for the filter idiom) or an enclosing
// ErrorHandler (to invoke its policy), and never seen past them; and
// user errors, which propagate to the caller unchanged.
package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic checking with errors.Is.
var (
	// ErrNoMatch is the failure signal a template raises when it cannot
	// match data: a literal comparison fails, a repetition sub-template
	// finds zero matches, or a container key is missing for a literal
	// sub-template.
	ErrNoMatch = errors.New("algex: no match")

	// ErrUnbound is a user error: assign encountered a symbol with no
	// binding in known_values.
	ErrUnbound = errors.New("algex: unbound symbol")

	// ErrKeyConflict is a user error: two container keys produced
	// incompatible bindings for the same symbol.
	ErrKeyConflict = errors.New("algex: container key collision")

	// ErrStoreClosed is raised when a caller queries or appends to an
	// intermediate store outside of its documented lifecycle (query
	// before finish, append after finish).
	ErrStoreClosed = errors.New("algex: store is not in the expected lifecycle state")
)

// ErrorCode is a machine-readable error type, for CLI/JSON output.
type ErrorCode string

const (
	ECNone        ErrorCode = ""
	ECNoMatch     ErrorCode = "ERR_NO_MATCH"
	ECUnbound     ErrorCode = "ERR_UNBOUND_SYMBOL"
	ECKeyConflict ErrorCode = "ERR_KEY_CONFLICT"
	ECStore       ErrorCode = "ERR_STORE"
	ECConfig      ErrorCode = "ERR_CONFIG"
	ECUnknown     ErrorCode = "ERR_UNKNOWN"
)

// NoMatchError carries diagnostic context for a NoMatch failure: what the
// template expected and what the data actually was.
type NoMatchError struct {
	Template any
	Data     any
	Reason   string
}

func (e *NoMatchError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("algex: no match: %s", e.Reason)
	}
	return "algex: no match"
}

func (e *NoMatchError) Unwrap() error { return ErrNoMatch }

// NoMatch constructs a *NoMatchError wrapping ErrNoMatch.
func NoMatch(reason string, tmpl, data any) error {
	return &NoMatchError{Template: tmpl, Data: data, Reason: reason}
}

// CodeOf maps an error to its machine-readable ErrorCode for CLI/JSON
// output, falling back to ECUnknown for errors this package doesn't know
// about.
func CodeOf(err error) ErrorCode {
	switch {
	case err == nil:
		return ECNone
	case errors.Is(err, ErrNoMatch):
		return ECNoMatch
	case errors.Is(err, ErrUnbound):
		return ECUnbound
	case errors.Is(err, ErrKeyConflict):
		return ECKeyConflict
	case errors.Is(err, ErrStoreClosed):
		return ECStore
	default:
		return ECUnknown
	}
}
