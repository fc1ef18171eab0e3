// Package interp is Ember's tree-walking evaluator.
//
// The interpreter executes a resolved and validated program. The current
// environment is passed explicitly to every exec and eval call: a block runs
// in one fresh child of the environment it appears in, and a call runs the
// function body directly in one fresh child of the function's closure
// environment, into which the arguments have been bound. Closures therefore
// see the scope they were created in, never the caller's.
//
// Statements report how they finished through a signal (normal, break or
// return) that is kept apart from the error result. Errors are reserved for
// runtime faults and internal defects; evaluation stops at the first one.
//
// Printed lines are buffered. The output gathered before a runtime error is
// still returned alongside it.
package interp

import (
	"errors"
	"io"
	"strings"

	"github.com/metaphox/ember-lang/ast"
	"github.com/metaphox/ember-lang/diag"
	"github.com/metaphox/ember-lang/env"
	"github.com/metaphox/ember-lang/resolver"
)

// Interpreter holds the global environment and the output of a run. The
// global environment persists across calls to Interpret.
type Interpreter struct {
	globals *Env
	locals  resolver.Locals
	output  []string
	stdout  io.Writer

	completed int
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithStdout makes the interpreter also write every printed line to w as
// soon as it is printed.
func WithStdout(w io.Writer) Option {
	return func(in *Interpreter) { in.stdout = w }
}

// New returns an Interpreter that reads scope distances from locals. The
// map is read at evaluation time, so entries merged into it later are seen.
func New(locals resolver.Locals, opts ...Option) *Interpreter {
	in := &Interpreter{globals: env.New[Value](nil), locals: locals}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Globals returns the global environment.
func (in *Interpreter) Globals() *Env {
	return in.globals
}

// Output returns the lines printed by the most recent Interpret call,
// joined by newlines.
func (in *Interpreter) Output() string {
	return strings.Join(in.output, "\n")
}

// Completed returns how many top-level statements the most recent
// Interpret call ran to the end. After a runtime error it is the index of
// the failing statement.
func (in *Interpreter) Completed() int {
	return in.completed
}

// Interpret executes stmts in the global environment. It returns the
// printed output and the first runtime error, if any; on error the output
// holds everything printed before the failure.
func (in *Interpreter) Interpret(stmts []ast.Stmt) (string, error) {
	in.output = in.output[:0]
	in.completed = 0
	for _, s := range stmts {
		sig, err := in.exec(s, in.globals)
		if err != nil {
			return in.Output(), err
		}
		if sig.kind != sigNormal {
			return in.Output(), diag.Internal("interp: %s signal reached the top level", sig)
		}
		in.completed++
	}
	return in.Output(), nil
}

func (in *Interpreter) print(v Value) error {
	line := v.Inspect()
	in.output = append(in.output, line)
	if in.stdout == nil {
		return nil
	}
	_, err := io.WriteString(in.stdout, line+"\n")
	return err
}

// ── Statements ────────────────────────────────────────────────────────────────

func (in *Interpreter) exec(s ast.Stmt, e *Env) (signal, error) {
	switch s := s.(type) {
	case *ast.Blank:
		return normal, nil

	case *ast.Print:
		v, err := in.eval(s.Value, e)
		if err != nil {
			return normal, err
		}
		return normal, in.print(v)

	case *ast.ExprStmt:
		_, err := in.eval(s.Expr, e)
		return normal, err

	case *ast.Let:
		v, err := in.eval(s.Value, e)
		if err != nil {
			return normal, err
		}
		e.Define(s.Name.Literal, v)
		return normal, nil

	case *ast.Block:
		return in.execAll(s.Stmts, env.New(e))

	case *ast.If:
		cond, err := in.truth(s.Cond, e)
		if err != nil {
			return normal, err
		}
		if cond {
			return in.exec(s.Then, e)
		}
		if s.Else != nil {
			return in.exec(s.Else, e)
		}
		return normal, nil

	case *ast.While:
		for {
			cond, err := in.truth(s.Cond, e)
			if err != nil || !cond {
				return normal, err
			}
			sig, err := in.exec(s.Body, e)
			if err != nil {
				return normal, err
			}
			switch sig.kind {
			case sigBreak:
				return normal, nil
			case sigReturn:
				return sig, nil
			}
		}

	case *ast.Break:
		return signal{kind: sigBreak}, nil

	case *ast.Return:
		v := None
		if s.Value != nil {
			var err error
			if v, err = in.eval(s.Value, e); err != nil {
				return normal, err
			}
		}
		return signal{kind: sigReturn, value: v}, nil

	default:
		return normal, diag.Internal("interp: unhandled statement %T", s)
	}
}

// execAll runs list in e and stops at the first statement that does not
// finish normally.
func (in *Interpreter) execAll(list []ast.Stmt, e *Env) (signal, error) {
	for _, s := range list {
		sig, err := in.exec(s, e)
		if err != nil || sig.kind != sigNormal {
			return sig, err
		}
	}
	return normal, nil
}

func (in *Interpreter) truth(cond ast.Expr, e *Env) (bool, error) {
	v, err := in.eval(cond, e)
	if err != nil {
		return false, err
	}
	b, ok := v.(Boolean)
	if !ok {
		return false, diag.Internal("interp: condition evaluated to %T", v)
	}
	return bool(b), nil
}

// ── Variables ─────────────────────────────────────────────────────────────────

func (in *Interpreter) lookup(ref ast.Expr, name ast.Token, e *Env) (Value, error) {
	var (
		v   Value
		err error
	)
	if d, ok := in.locals[ref]; ok {
		v, err = e.GetAt(d, name.Literal)
	} else {
		v, err = in.globals.Get(name.Literal)
	}
	if errors.Is(err, env.ErrUndefined) {
		return nil, diag.AtToken(diag.PhaseRuntime, name, "Undefined variable '%s'.", name.Literal)
	}
	return v, err
}

func (in *Interpreter) assign(ref ast.Expr, name ast.Token, v Value, e *Env) error {
	var err error
	if d, ok := in.locals[ref]; ok {
		err = e.AssignAt(d, name.Literal, v)
	} else {
		err = in.globals.Assign(name.Literal, v)
	}
	if errors.Is(err, env.ErrUndefined) {
		return diag.AtToken(diag.PhaseRuntime, name, "Undefined variable '%s'.", name.Literal)
	}
	return err
}
