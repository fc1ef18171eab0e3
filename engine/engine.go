// Package engine wires the Ember pipeline together:
//
//	source → lexer → parser → resolver → validator → interpreter
//
// A [Program] is one source file taken through the pipeline once. A
// [Session] keeps global state across many inputs, as a REPL needs.
//
// Every error returned by this package is either a [diag.List] or a single
// diagnostic from package diag, ready for [diag.Render].
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/metaphox/ember-lang/ast"
	"github.com/metaphox/ember-lang/diag"
	"github.com/metaphox/ember-lang/interp"
	"github.com/metaphox/ember-lang/lexer"
	"github.com/metaphox/ember-lang/parser"
	"github.com/metaphox/ember-lang/resolver"
	"github.com/metaphox/ember-lang/validator"
)

// ErrIncomplete is wrapped into a compile error when the source ended in
// the middle of a statement.
var ErrIncomplete = errors.New("incomplete input")

// IsIncomplete reports whether err says more input could complete the
// source.
func IsIncomplete(err error) bool {
	return errors.Is(err, ErrIncomplete)
}

// ── Options ───────────────────────────────────────────────────────────────────

type options struct {
	logger *slog.Logger
	stdout io.Writer
}

// Option configures a Program or a Session.
type Option func(*options)

// WithLogger sets the logger that receives debug records at phase
// boundaries. The default discards them.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStdout streams every printed line to w in addition to buffering it.
func WithStdout(w io.Writer) Option {
	return func(o *options) { o.stdout = w }
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.New(discardHandler{})}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) interpOptions() []interp.Option {
	if o.stdout == nil {
		return nil
	}
	return []interp.Option{interp.WithStdout(o.stdout)}
}

// ── Program ───────────────────────────────────────────────────────────────────

// Program is a parsed source file.
type Program struct {
	Name string
	AST  *ast.Program

	opts      options
	locals    resolver.Locals
	validated bool
}

// Compile lexes and parses src. name labels the source in log records.
func Compile(name, src string, opts ...Option) (*Program, error) {
	o := buildOptions(opts)
	prog, err := parse(src)
	if err != nil {
		o.logger.Debug("parse failed", "source", name, "err", err)
		return nil, err
	}
	o.logger.Debug("parsed", "source", name, "statements", len(prog.Statements))
	return &Program{Name: name, AST: prog, opts: o}, nil
}

func parse(src string) (*ast.Program, error) {
	p := parser.New(lexer.New(src))
	prog := p.Parse()
	if err := p.Errors().Err(); err != nil {
		if p.Incomplete() {
			return nil, fmt.Errorf("%w: %w", ErrIncomplete, err)
		}
		return nil, err
	}
	return prog, nil
}

// Validate resolves and type-checks the program. It returns the batch of
// resolution errors, or failing that the batch of type errors.
func (p *Program) Validate() error {
	locals, err := resolver.Resolve(p.AST.Statements)
	if err != nil {
		p.opts.logger.Debug("resolution failed", "source", p.Name, "err", err)
		return err
	}
	p.opts.logger.Debug("resolved", "source", p.Name, "locals", len(locals))

	if err := validator.New(locals).Validate(p.AST.Statements); err != nil {
		p.opts.logger.Debug("validation failed", "source", p.Name, "err", err)
		return err
	}
	p.opts.logger.Debug("validated", "source", p.Name)
	p.locals = locals
	p.validated = true
	return nil
}

// Interpret runs the program, validating it first if that has not been
// done. Every run starts from a fresh global environment, so repeated runs
// print the same output. On a runtime error the output printed before the
// failure is returned with it.
func (p *Program) Interpret() (string, error) {
	if !p.validated {
		if err := p.Validate(); err != nil {
			return "", err
		}
	}
	start := time.Now()
	out, err := interp.New(p.locals, p.opts.interpOptions()...).Interpret(p.AST.Statements)
	p.opts.logger.Debug("interpreted", "source", p.Name, "elapsed", time.Since(start), "ok", err == nil)
	return out, err
}

// ── Session ───────────────────────────────────────────────────────────────────

// Session evaluates a sequence of inputs against shared global scopes.
// Input that fails to parse, resolve or validate leaves the session as it
// was. A runtime error keeps the effects that happened before it, and the
// declarations after the failing statement are forgotten by both the
// validator and the interpreter.
type Session struct {
	opts      options
	locals    resolver.Locals
	validator *validator.Validator
	interp    *interp.Interpreter
	inputs    int
}

// NewSession returns a Session with empty global scopes.
func NewSession(opts ...Option) *Session {
	o := buildOptions(opts)
	locals := make(resolver.Locals)
	return &Session{
		opts:      o,
		locals:    locals,
		validator: validator.New(locals),
		interp:    interp.New(locals, o.interpOptions()...),
	}
}

// Run evaluates one input and returns what it printed.
func (s *Session) Run(src string) (string, error) {
	s.inputs++
	name := fmt.Sprintf("input#%d", s.inputs)

	prog, err := parse(src)
	if err != nil {
		return "", err
	}
	locals, err := resolver.Resolve(prog.Statements)
	if err != nil {
		return "", err
	}

	// The validator defines names as it goes; undo them if the input is
	// rejected so that later inputs do not see half-checked declarations.
	globals := s.validator.Globals()
	snapshot := globals.Clone()
	s.locals.Merge(locals)
	if err := s.validator.Validate(prog.Statements); err != nil {
		globals.Restore(snapshot)
		s.opts.logger.Debug("validation failed", "source", name, "err", err)
		return "", err
	}

	out, err := s.interp.Interpret(prog.Statements)
	s.opts.logger.Debug("interpreted", "source", name, "ok", err == nil)
	if err == nil || diag.IsInternal(err) {
		return out, err
	}

	// Only top-level declarations define globals, and only those before the
	// failing statement ran. Check that prefix again from the snapshot so
	// the static globals match the runtime ones.
	done := s.interp.Completed()
	globals.Restore(snapshot)
	if verr := s.validator.Validate(prog.Statements[:done]); verr != nil {
		return out, diag.Internal("engine: revalidating %d completed statements: %v", done, verr)
	}
	s.opts.logger.Debug("rolled back declarations", "source", name, "completed", done, "total", len(prog.Statements))
	return out, err
}

// ── Logging ───────────────────────────────────────────────────────────────────

// discardHandler drops every record.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
