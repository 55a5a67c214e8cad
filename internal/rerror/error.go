// Package rerror implements the structured error model: a fixed leading
// field layout (id, type, message, near, where, file, line) plus
// category-specific user fields, and the boot-loaded template catalog that
// fills messages from varargs.
package rerror

import (
	"fmt"
	"strings"
)

// Error is a structured runtime error context. Construction is a pure
// function — New never itself fails, matching spec.md §4.12 ("except to
// panic if called before the template table exists").
type Error struct {
	ID      string // symbol, e.g. "zero-divide"
	Type    string // category symbol, e.g. "math"
	Message string // resolved message text, args already substituted
	Near    string // surrounding source excerpt
	Where   []string // backtrace of invoked action labels, outermost first
	File    string
	Line    int

	Fields map[string]any // category-specific user fields
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "** %s Error: %s\n", e.Type, e.Message)
	if e.Near != "" {
		fmt.Fprintf(&sb, "** Near: %s\n", e.Near)
	}
	if len(e.Where) > 0 {
		fmt.Fprintf(&sb, "** Where: %s\n", strings.Join(e.Where, " -> "))
	}
	if e.File != "" {
		fmt.Fprintf(&sb, "** File: %s:%d\n", e.File, e.Line)
	}
	return sb.String()
}

// New builds an error from an explicit id/type/message, with no template
// lookup — used by internal code that already knows exactly what it wants
// to report, and by Catalog.Build once it has filled a template.
func New(id, typ, message string) *Error {
	return &Error{ID: id, Type: typ, Message: message}
}

// WithWhere / WithNear / WithSource attach backtrace context unless already
// set, per spec.md §4.11 step 2 ("populated from the current frame chain
// unless already set").
func (e *Error) WithWhere(where []string) *Error {
	if len(e.Where) == 0 {
		e.Where = where
	}
	return e
}

func (e *Error) WithNear(near string) *Error {
	if e.Near == "" {
		e.Near = near
	}
	return e
}

func (e *Error) WithSource(file string, line int) *Error {
	if e.File == "" {
		e.File, e.Line = file, line
	}
	return e
}

// FromHostError auto-promotes an ordinary Go error into a generic
// "user error" context — the analogue of spec.md §4.11 step 1's
// "a C-string argument auto-promotes to a user error".
func FromHostError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return New("user-error", "user", err.Error())
}

// Unknown is the fallback for a nil cause, per spec.md §4.11 step 1 ("a
// null produces a generic unknown-error").
func Unknown() *Error { return New("unknown-error", "internal", "no error information available") }
