// Package validator implements Ember's static type checker.
//
// The validator walks a resolved program once, computing the type of every
// expression over an environment chain of static types that mirrors, scope
// for scope, the chain the interpreter builds at run time. Variable
// references are looked up with the resolver's distances, so the validator
// and the interpreter agree on which declaration a reference denotes.
//
// Errors are batched per top-level statement: the first error inside a
// statement abandons the rest of that statement, and checking resumes with
// the next one. Validate returns the whole batch as a [diag.List].
package validator

import (
	"errors"

	"github.com/metaphox/ember-lang/ast"
	"github.com/metaphox/ember-lang/diag"
	"github.com/metaphox/ember-lang/env"
	"github.com/metaphox/ember-lang/resolver"
	"github.com/metaphox/ember-lang/types"
)

// TypeEnv is the environment chain of static types.
type TypeEnv = env.Environment[types.Type]

// returnFrame tracks one function literal being checked. inferred is set by
// the first return statement found at the function body's own level.
type returnFrame struct {
	expected types.Type
	inferred *types.Type
}

// Validator holds the state of one type-checking pass. The global scope
// persists across calls to Validate, which lets a REPL check its input line
// by line.
type Validator struct {
	locals  resolver.Locals
	globals *TypeEnv

	returns     []*returnFrame
	withinIf    bool
	withinWhile bool
}

// New returns a Validator that reads scope distances from locals.
func New(locals resolver.Locals) *Validator {
	return &Validator{locals: locals, globals: env.New[types.Type](nil)}
}

// Globals returns the global type scope.
func (v *Validator) Globals() *TypeEnv {
	return v.globals
}

// Validate checks every statement and returns one error per failing
// top-level statement, or nil.
func (v *Validator) Validate(stmts []ast.Stmt) error {
	var errs diag.List
	for _, s := range stmts {
		v.returns = v.returns[:0]
		v.withinIf, v.withinWhile = false, false
		if err := v.stmt(s, v.globals); err != nil {
			errs = append(errs, err)
		}
	}
	return errs.Err()
}

// ── Statements ────────────────────────────────────────────────────────────────

func (v *Validator) stmt(s ast.Stmt, e *TypeEnv) error {
	switch s := s.(type) {
	case *ast.Blank:
		return nil

	case *ast.Print:
		_, err := v.expr(s.Value, e)
		return err

	case *ast.ExprStmt:
		_, err := v.expr(s.Expr, e)
		return err

	case *ast.Let:
		return v.let(s, e)

	case *ast.Block:
		return v.stmts(s.Stmts, env.New(e))

	case *ast.If:
		if err := v.condition(s.Cond, e); err != nil {
			return err
		}
		saved := v.withinIf
		v.withinIf = true
		defer func() { v.withinIf = saved }()
		if err := v.stmt(s.Then, e); err != nil {
			return err
		}
		if s.Else != nil {
			return v.stmt(s.Else, e)
		}
		return nil

	case *ast.While:
		if err := v.condition(s.Cond, e); err != nil {
			return err
		}
		saved := v.withinWhile
		v.withinWhile = true
		defer func() { v.withinWhile = saved }()
		return v.stmt(s.Body, e)

	case *ast.Break:
		if !v.withinWhile {
			return diag.AtToken(diag.PhaseType, s.Keyword, "Cannot use 'break' outside of a loop.")
		}
		return nil

	case *ast.Return:
		return v.ret(s, e)

	default:
		return diag.Internal("validator: unhandled statement %T", s)
	}
}

func (v *Validator) stmts(list []ast.Stmt, e *TypeEnv) error {
	for _, s := range list {
		if err := v.stmt(s, e); err != nil {
			return err
		}
	}
	return nil
}

// let checks a declaration. When a hinted initializer is a function literal
// the hint is bound first, so the body may call the function recursively;
// the body only runs once the binding exists. Any other initializer is
// checked against the bindings that exist before the declaration.
func (v *Validator) let(s *ast.Let, e *TypeEnv) error {
	name := s.Name.Literal
	if s.Type == nil {
		t, err := v.expr(s.Value, e)
		if err != nil {
			return err
		}
		return v.bind(s, e, t)
	}

	hint := types.FromExpr(s.Type)
	if _, ok := s.Value.(*ast.FuncLit); ok {
		if err := v.bind(s, e, hint); err != nil {
			return err
		}
	}
	t, err := v.expr(s.Value, e)
	if err != nil {
		return err
	}
	if !types.Equal(hint, t) {
		return diag.AtNode(diag.PhaseType, s,
			"Variable '%s' is declared as '%s' but initialized with '%s'.", name, hint, t)
	}
	return v.bind(s, e, hint)
}

// bind defines the variable of s in e. Redeclaring a name in the same scope
// must keep its type: closures already checked against the old binding
// read the new one.
func (v *Validator) bind(s *ast.Let, e *TypeEnv, t types.Type) error {
	name := s.Name.Literal
	if e.Has(name) {
		old, err := e.Get(name)
		if err != nil {
			return err
		}
		if !types.Equal(old, t) {
			return diag.AtNode(diag.PhaseType, s,
				"Variable '%s' is already declared as '%s' in this scope; cannot redeclare it as '%s'.", name, old, t)
		}
	}
	e.Define(name, t)
	return nil
}

func (v *Validator) condition(cond ast.Expr, e *TypeEnv) error {
	t, err := v.expr(cond, e)
	if err != nil {
		return err
	}
	if !types.Equal(t, types.Bool) {
		return diag.AtNode(diag.PhaseType, cond, "Condition must be 'bool', got '%s'.", t)
	}
	return nil
}

// ret checks a return statement. Only a return at the function body's own
// level (not under if or while) fixes the inferred return type; every other
// return must match the declared type directly.
func (v *Validator) ret(s *ast.Return, e *TypeEnv) error {
	if len(v.returns) == 0 {
		return diag.AtToken(diag.PhaseType, s.Keyword, "Cannot use 'return' outside of a function.")
	}
	t := types.Void
	if s.Value != nil {
		var err error
		if t, err = v.expr(s.Value, e); err != nil {
			return err
		}
	}

	frame := v.returns[len(v.returns)-1]
	if !v.withinIf && !v.withinWhile && frame.inferred == nil {
		frame.inferred = &t
		return nil
	}
	if !types.Equal(t, frame.expected) {
		return diag.AtNode(diag.PhaseType, s,
			"Function must return '%s', but this returns '%s'.", frame.expected, t)
	}
	return nil
}

// ── Lookup ────────────────────────────────────────────────────────────────────

// lookup finds the type bound to name for reference ref: at the resolved
// distance if there is one, otherwise in the global scope.
func (v *Validator) lookup(ref ast.Expr, name ast.Token, e *TypeEnv) (types.Type, error) {
	var (
		t   types.Type
		err error
	)
	if d, ok := v.locals[ref]; ok {
		t, err = e.GetAt(d, name.Literal)
	} else {
		t, err = v.globals.Get(name.Literal)
	}
	if errors.Is(err, env.ErrUndefined) {
		return t, diag.AtToken(diag.PhaseType, name, "Undefined variable '%s'.", name.Literal)
	}
	return t, err
}

func (v *Validator) assignable(ref ast.Expr, name ast.Token, value types.Type, e *TypeEnv) (types.Type, error) {
	target, err := v.lookup(ref, name, e)
	if err != nil {
		return target, err
	}
	if !types.Equal(target, value) {
		return target, diag.AtNode(diag.PhaseType, ref,
			"Cannot assign '%s' to variable '%s' of type '%s'.", value, name.Literal, target)
	}
	return target, nil
}
