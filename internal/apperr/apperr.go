// Package apperr defines the engine's error taxonomy (§7 of the schedule
// engine specification) as a small set of sentinel kinds, wrapped the way
// the teacher wraps adapter errors: fmt.Errorf("...: %w", err).
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a domain error without specifying a
// concrete Go type per error site.
type Kind int

const (
	_ Kind = iota
	Validation
	NotFound
	Locked
	Duplicate
	CycleDetected
	ChainDepthExceeded
	CompletionsExist
	LinkedChildrenExist
	AlreadyCancelled
	NonExistentInstance
	CancelledInstance
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "Validation"
	case NotFound:
		return "NotFound"
	case Locked:
		return "Locked"
	case Duplicate:
		return "Duplicate"
	case CycleDetected:
		return "CycleDetected"
	case ChainDepthExceeded:
		return "ChainDepthExceeded"
	case CompletionsExist:
		return "CompletionsExist"
	case LinkedChildrenExist:
		return "LinkedChildrenExist"
	case AlreadyCancelled:
		return "AlreadyCancelled"
	case NonExistentInstance:
		return "NonExistentInstance"
	case CancelledInstance:
		return "CancelledInstance"
	default:
		return "Unknown"
	}
}

// Error is a domain error carrying a Kind alongside its message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.Msg }

// New constructs a new *Error of the given kind.
func New(k Kind, msg string) error {
	return &Error{Kind: k, Msg: msg}
}

// Newf constructs a new *Error of the given kind with a formatted message.
func Newf(k Kind, format string, args ...any) error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// Is reports whether err carries the given Kind, unwrapping as needed.
func Is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
