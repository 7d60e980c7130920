// Package vmerrors implements the closed error taxonomy of spec.md §7,
// adapted from the teacher's internal/errors.SentraError (type + message +
// location + call stack) and from original_source/src/reporting.rs's Error
// enum, which is where the exact ten error kinds below come from.
package vmerrors

import (
	"fmt"
	"strings"
)

// Kind is one of the ten error concepts spec.md §7 names.
type Kind string

const (
	KindMatch         Kind = "MatchError"
	KindSig           Kind = "Sig"
	KindUndefinedName Kind = "UndefinedName"
	KindUnreachable   Kind = "UnreachableCase"
	KindNoneCallable  Kind = "NoneCallable"
	KindIllegalSelf   Kind = "IllegalSelfRef"
	KindStacked       Kind = "Stacked"
	KindStackOverflow Kind = "StackOverflow"
	KindBug           Kind = "Bug"
	KindSyncError     Kind = "SyncError"
)

// Span is a source position for diagnostics, carried on tokens, AST nodes,
// and opcodes per SPEC_FULL.md's supplemented source-span feature.
type Span struct {
	File string
	Line int
	Col  int
}

func (s Span) String() string {
	if s.File == "" && s.Line == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Col)
}

// VMError is the single Go type behind every Kind; which fields are
// meaningful depends on Kind, the same way original_source keeps one Error
// enum with per-variant payload structs.
type VMError struct {
	Kind Kind
	Span Span

	// KindSig / KindBug / KindSyncError
	Message string

	// KindUndefinedName
	Name string
	// did-you-mean suggestion, scored with levenshtein against the live
	// scope — SPEC_FULL.md DOMAIN STACK addition.
	Suggestion string

	// KindUnreachableCase
	GlobalName string
	Arity      int

	// KindNoneCallable
	ValueRepr string

	// KindStacked
	Nested []*VMError
}

func (e *VMError) Error() string {
	var b strings.Builder
	loc := e.Span.String()
	switch e.Kind {
	case KindMatch:
		fmt.Fprintf(&b, "no match arm matched the scrutinee")
	case KindSig:
		fmt.Fprintf(&b, "signature mismatch: %s", e.Message)
	case KindUndefinedName:
		fmt.Fprintf(&b, "undefined name %q", e.Name)
		if e.Suggestion != "" {
			fmt.Fprintf(&b, " (did you mean %q?)", e.Suggestion)
		}
	case KindUnreachable:
		fmt.Fprintf(&b, "global %q redefined with arity %d", e.GlobalName, e.Arity)
	case KindNoneCallable:
		fmt.Fprintf(&b, "attempted to call non-function value %s", e.ValueRepr)
	case KindIllegalSelf:
		fmt.Fprintf(&b, "self used outside a valid function body")
	case KindStacked:
		fmt.Fprintf(&b, "call failed:")
		for _, n := range e.Nested {
			fmt.Fprintf(&b, "\n  %s", n.Error())
		}
	case KindStackOverflow:
		fmt.Fprintf(&b, "stack capacity exceeded")
	case KindBug:
		fmt.Fprintf(&b, "internal error: %s", e.Message)
	case KindSyncError:
		fmt.Fprintf(&b, "string table lock unavailable: %s", e.Message)
	default:
		fmt.Fprintf(&b, "unknown error kind %q", e.Kind)
	}
	if loc != "" {
		fmt.Fprintf(&b, " at %s", loc)
	}
	return b.String()
}

func Match(span Span) *VMError { return &VMError{Kind: KindMatch, Span: span} }

func Sig(span Span, message string) *VMError {
	return &VMError{Kind: KindSig, Span: span, Message: message}
}

func UndefinedName(span Span, name string) *VMError {
	return &VMError{Kind: KindUndefinedName, Span: span, Name: name}
}

func UnreachableCase(span Span, name string, arity int) *VMError {
	return &VMError{Kind: KindUnreachable, Span: span, GlobalName: name, Arity: arity}
}

func NoneCallable(span Span, repr string) *VMError {
	return &VMError{Kind: KindNoneCallable, Span: span, ValueRepr: repr}
}

func IllegalSelfRef(span Span) *VMError {
	return &VMError{Kind: KindIllegalSelf, Span: span}
}

// Stacked wraps inner at a call boundary, accumulating a traceback the way
// spec.md §7's propagation policy requires: "the interpreter aborts on
// first error, wrapping it in Stacked at Call boundaries".
func Stacked(span Span, inner ...*VMError) *VMError {
	return &VMError{Kind: KindStacked, Span: span, Nested: inner}
}

func StackOverflow() *VMError { return &VMError{Kind: KindStackOverflow} }

func Bug(reason string) *VMError { return &VMError{Kind: KindBug, Message: reason} }

func SyncError(reason string) *VMError { return &VMError{Kind: KindSyncError, Message: reason} }

// Is reports whether err (or any error it wraps via Stacked) is a VMError of
// kind k. Mirrors the teacher's convention of shallow kind checks rather
// than errors.As chains, since VMError.Nested is itself typed (not the
// generic `error` interface).
func Is(err error, k Kind) bool {
	ve, ok := err.(*VMError)
	if !ok {
		return false
	}
	if ve.Kind == k {
		return true
	}
	for _, n := range ve.Nested {
		if Is(n, k) {
			return true
		}
	}
	return false
}
