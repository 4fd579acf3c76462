// Package errors defines the error taxonomy shared across the store, the
// evaluator, and the persistence layer. Kinds are classes of failure, not
// Go types: callers switch on Kind rather than using type assertions.
package errors

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Kind classifies an Error for callers that need to branch on failure mode
// (e.g. mapping to HTTP status classes at an external collaborator).
type Kind int

const (
	// Config covers an invalid or missing persistence target.
	Config Kind = iota
	// Persistence covers a durable-store failure.
	Persistence
	// DataCorruption covers an invariant violated on restore.
	DataCorruption
	// Parse covers a grammar or lexical error, with optional position.
	Parse
	// Execution covers type mismatches, unknown variables, and bad limits.
	Execution
	// Invariant covers an internal inconsistency discovered at runtime.
	Invariant
	// Lock covers a poisoned mutual-exclusion recovery.
	Lock
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "Config"
	case Persistence:
		return "Persistence"
	case DataCorruption:
		return "DataCorruption"
	case Parse:
		return "Parse"
	case Execution:
		return "Execution"
	case Invariant:
		return "Invariant"
	case Lock:
		return "Lock"
	default:
		return "Unknown"
	}
}

// Error is a taxonomy-tagged error. Line/Col are set only for Parse errors
// where a source position is known.
type Error struct {
	Kind    Kind
	Line    int
	Col     int
	message string
	cause   error
}

func (e *Error) Error() string {
	if e.Kind == Parse && e.Line > 0 {
		return fmt.Sprintf("%s error (line %d, column %d): %s", e.Kind, e.Line, e.Col, e.message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.message)
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.cause }

// New creates a Kind-tagged error from a message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, message: message}
}

// Newf creates a Kind-tagged error from a format string.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind to an underlying error, keeping it as the cause
// (annotated with message via github.com/pkg/errors.WithMessage) so it
// stays reachable through Unwrap, errors.Is and errors.As. No stack trace
// is recorded.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, message: message, cause: errors.WithMessage(cause, message)}
}

// AtPosition annotates a Parse error with a source position.
func AtPosition(message string, line, col int) *Error {
	return &Error{Kind: Parse, Line: line, Col: col, message: message}
}

// KindOf reports the Kind of err, or Invariant if err does not carry one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Invariant
}

// Append accumulates independent failures (e.g. one failing statement in an
// otherwise-successful script) into a single *multierror.Error without
// letting one failure mask another.
func Append(into error, err error) error {
	if err == nil {
		return into
	}
	return multierror.Append(into, err)
}
