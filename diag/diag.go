// Package diag defines the error taxonomy shared by every phase of the Ember
// pipeline and renders errors as annotated source snippets.
//
// Errors fall into four kinds:
//
//	CharacterError       — a single bad character (lexer)
//	TokenError           — a fault attributable to one token
//	RangeError           — a fault spanning a whole expression or statement
//	ImplementationError  — an internal defect; never caused by user input
//
// Phases that report many errors at once (lexer, parser, resolver,
// validator) return them as a List.
package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/metaphox/ember-lang/ast"
)

// Phase names the pipeline stage an error was reported by. It only affects
// the header of the rendered message.
type Phase string

const (
	PhaseSyntax  Phase = "Syntax"
	PhaseResolve Phase = "Resolution"
	PhaseType    Phase = "Type"
	PhaseRuntime Phase = "Runtime"
)

// CharacterError reports a character the lexer could not turn into a token.
type CharacterError struct {
	Char     string
	Line     int
	Col      int
	LineText string
	Msg      string
}

func (e *CharacterError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// TokenError reports a fault attributable to a single token: an undefined
// variable, a bad operand, an illegal break or return.
type TokenError struct {
	Phase Phase
	Token ast.Token
	Msg   string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Token.Line, e.Token.Col, e.Msg)
}

// RangeError reports a fault spanning the tokens First through Last,
// typically a whole syntax tree node.
type RangeError struct {
	Phase Phase
	First ast.Token
	Last  ast.Token
	Msg   string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.First.Line, e.First.Col, e.Msg)
}

// ImplementationError reports an internal inconsistency, e.g. a resolver
// distance that walks past the global scope. It is always fatal.
type ImplementationError struct {
	Msg string
}

func (e *ImplementationError) Error() string {
	return "implementation error: " + e.Msg
}

// ── Constructors ──────────────────────────────────────────────────────────────

// AtToken builds a TokenError.
func AtToken(phase Phase, tok ast.Token, format string, args ...any) *TokenError {
	return &TokenError{Phase: phase, Token: tok, Msg: fmt.Sprintf(format, args...)}
}

// AtNode builds a RangeError covering the whole of n.
func AtNode(phase Phase, n ast.Node, format string, args ...any) *RangeError {
	return &RangeError{Phase: phase, First: n.Start(), Last: n.End(), Msg: fmt.Sprintf(format, args...)}
}

// Internal builds an ImplementationError.
func Internal(format string, args ...any) *ImplementationError {
	return &ImplementationError{Msg: fmt.Sprintf(format, args...)}
}

// IsInternal reports whether err is, or wraps, an ImplementationError.
func IsInternal(err error) bool {
	var ie *ImplementationError
	return errors.As(err, &ie)
}

// ── Batches ───────────────────────────────────────────────────────────────────

// List is a batch of errors reported together by one phase.
type List []error

func (l List) Error() string {
	msgs := make([]string, len(l))
	for i, err := range l {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

// Unwrap exposes the members to errors.Is and errors.As.
func (l List) Unwrap() []error { return l }

// Err returns nil for an empty list and the list itself otherwise, so that
// callers can write `return errs.Err()`.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// Flatten returns the individual errors inside err: the members of a List,
// or err itself.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	var l List
	if errors.As(err, &l) {
		return l
	}
	return []error{err}
}
