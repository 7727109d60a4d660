// Package errs provides the coded error type shared by the query engine and the
// temporal analytics layer.
package errs

import (
	stderrs "errors"
	"fmt"
)

// Kind identifies a specific failure. Values are stable and appear in messages.
type Kind string

// All failure kinds raised by tenure.
const (
	KindUnknown         Kind = "unknown"
	KindInvalidArgument Kind = "invalid_argument"
	KindUnknownJoin     Kind = "unknown_join_dependency"
	KindMalformedRow    Kind = "malformed_row"
	KindDuplicatePeriod Kind = "duplicate_period"
	KindOutOfBounds     Kind = "out_of_bounds"
	KindEmptyList       Kind = "empty_list"
	KindNoBounds        Kind = "no_bounds"
)

// Category groups kinds by who is at fault.
type Category uint8

const (
	// CategoryUnknown is for errors that did not originate in tenure.
	CategoryUnknown Category = iota

	// CategoryComposition is raised while assembling a query, before execution.
	CategoryComposition

	// CategoryContract is a data-integrity or caller-contract violation.
	CategoryContract

	// CategoryDegenerate is an input with no sensible default, such as an empty list.
	CategoryDegenerate
)

// String returns the category name used in logs.
func (c Category) String() string {
	switch c {
	case CategoryComposition:
		return "composition"
	case CategoryContract:
		return "contract_violation"
	case CategoryDegenerate:
		return "degenerate_input"
	default:
		return "unknown"
	}
}

// CategoryOf maps a kind to its category.
func CategoryOf(k Kind) Category {
	switch k {
	case KindInvalidArgument, KindUnknownJoin:
		return CategoryComposition
	case KindMalformedRow, KindDuplicatePeriod, KindOutOfBounds:
		return CategoryContract
	case KindEmptyList, KindNoBounds:
		return CategoryDegenerate
	default:
		return CategoryUnknown
	}
}

// Error is the structured error type.
// msg is developer facing; kind is machine facing; op names the operation that failed.
type Error struct {
	orig error
	msg  string
	kind Kind
	op   string
}

// Sentinels for errors.Is. Matching is by kind only.
var (
	ErrInvalidArgument = &Error{kind: KindInvalidArgument}
	ErrUnknownJoin     = &Error{kind: KindUnknownJoin}
	ErrMalformedRow    = &Error{kind: KindMalformedRow}
	ErrDuplicatePeriod = &Error{kind: KindDuplicatePeriod}
	ErrOutOfBounds     = &Error{kind: KindOutOfBounds}
	ErrEmptyList       = &Error{kind: KindEmptyList}
	ErrNoBounds        = &Error{kind: KindNoBounds}
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	s := string(e.kind)
	if e.op != "" {
		s = e.op + ": " + s
	}
	if e.msg != "" {
		s += ": " + e.msg
	}
	if e.orig != nil {
		s += ": " + e.orig.Error()
	}
	return s
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.orig }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.kind == t.kind
}

// Kind returns the failure kind.
func (e *Error) Kind() Kind { return e.kind }

// Category returns the category derived from the kind.
func (e *Error) Category() Category { return CategoryOf(e.kind) }

// Op returns the operation label.
func (e *Error) Op() string { return e.op }

// New returns an error of the given kind raised by op.
func New(kind Kind, op, format string, a ...any) error {
	return &Error{kind: kind, op: op, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns an error of the given kind that wraps orig.
func Wrap(orig error, kind Kind, op, format string, a ...any) error {
	return &Error{kind: kind, op: op, msg: fmt.Sprintf(format, a...), orig: orig}
}

// As unwraps err and returns (*Error, true) if it is one of ours.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf extracts the kind from any error, defaulting to KindUnknown.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.kind
	}
	return KindUnknown
}

// CategoryOfErr extracts the category from any error.
func CategoryOfErr(err error) Category {
	return CategoryOf(KindOf(err))
}
