// Package merrors defines Mission Control's error taxonomy (spec.md §7).
// Errors are plain wrapped errors classified by sentinel kinds so callers
// can branch with errors.Is without string matching.
package merrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error for tool-surface reporting and reconciler
// transition logic.
type Kind string

const (
	Validation          Kind = "validation"
	NotFound            Kind = "not_found"
	PreconditionFailed  Kind = "precondition_failed"
	AdapterError        Kind = "adapter_error"
	CheckpointMismatch  Kind = "checkpoint_mismatch"
	Transient           Kind = "transient"
)

// Error wraps an underlying cause with a Kind and a message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an *Error of the given kind with no underlying cause.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an *Error of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// transientPatterns are stderr/error substrings recognized as safe-to-retry
// per spec.md §7's Transient policy and §4.4's liveness-probe retry rule.
var transientPatterns = []string{
	"pane not found",
	"session not found",
	"no such pane",
	"no such session",
	"no such process",
	"process already finished",
}

// IsTransientText reports whether text matches a well-known transient
// failure pattern (e.g. a liveness probe racing a pane's own teardown).
// Any other text is treated as a genuine error and must propagate
// (spec.md §4.4, §5).
func IsTransientText(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range transientPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
