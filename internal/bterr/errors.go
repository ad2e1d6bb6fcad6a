// Package bterr defines the structured error kinds surfaced by input
// validation and the simulation stages.
package bterr

import (
	"errors"
	"fmt"
)

// Kind identifies one of the fixed validation failure categories. Callers
// should branch on Kind, not on the formatted message.
type Kind string

const (
	KindLengthMismatch          Kind = "LENGTH_MISMATCH"
	KindNonFinitePrice          Kind = "NON_FINITE_PRICE"
	KindTimestampsNotIncreasing Kind = "TIMESTAMPS_NOT_INCREASING"
	KindSignalConflict          Kind = "SIGNAL_CONFLICT"
	KindExpirationInPast        Kind = "EXPIRATION_IN_PAST"
)

// Error is the concrete error type returned by validation and entry
// scanning. Index is the offending bar index, or -1 when the failure is not
// index-local (e.g. a length mismatch).
type Error struct {
	Kind    Kind
	Message string
	Index   int
}

func (e *Error) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: %s (index %d)", e.Kind, e.Message, e.Index)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds an *Error with a printf-style message. Pass index -1 when the
// failure has no single offending bar.
func New(kind Kind, index int, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Index: index}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind == kind
	}
	return false
}
