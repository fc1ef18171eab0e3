// Package resolver computes, for every variable reference in a program, how
// many scopes separate it from the scope that declares it.
//
// The result is a Locals map from *ast.Variable and *ast.Assign nodes to a
// hop count. A reference with no entry is global and is looked up directly
// in the global scope. The validator and the interpreter consume the same
// map, so both always see the same binding for a given reference.
//
// Scopes are opened for blocks and function literals. A function literal's
// scope holds its parameters, and the statements of its body are resolved
// in that same scope, so parameters are at distance 0 inside the body.
package resolver

import (
	"github.com/metaphox/ember-lang/ast"
	"github.com/metaphox/ember-lang/diag"
)

// Locals maps a variable reference to its scope distance.
type Locals map[ast.Expr]int

// Merge copies every entry of other into l.
func (l Locals) Merge(other Locals) {
	for k, v := range other {
		l[k] = v
	}
}

// scope tracks the names declared in one frame. The value is false while
// the declaration's initializer is being resolved and true afterwards.
type scope map[string]bool

// Resolver walks a program once, maintaining a stack of scopes.
type Resolver struct {
	scopes []scope
	locals Locals
	errors diag.List
}

// New returns a Resolver with an empty scope stack.
func New() *Resolver {
	return &Resolver{locals: make(Locals)}
}

// Resolve is a convenience wrapper that resolves stmts with a fresh Resolver.
func Resolve(stmts []ast.Stmt) (Locals, error) {
	return New().Resolve(stmts)
}

// Resolve resolves every statement and returns the distances recorded so
// far together with the batch of resolution errors.
func (r *Resolver) Resolve(stmts []ast.Stmt) (Locals, error) {
	for _, s := range stmts {
		if err := r.stmt(s); err != nil {
			r.errors = append(r.errors, err)
		}
	}
	return r.locals, r.errors.Err()
}

// ── Scope stack ───────────────────────────────────────────────────────────────

func (r *Resolver) begin() { r.scopes = append(r.scopes, scope{}) }
func (r *Resolver) end()   { r.scopes = r.scopes[:len(r.scopes)-1] }

func (r *Resolver) declare(name string) {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes[len(r.scopes)-1][name] = false
}

func (r *Resolver) define(name string) {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes[len(r.scopes)-1][name] = true
}

// local records the distance of the innermost scope declaring name. With no
// match the reference stays global.
func (r *Resolver) local(e ast.Expr, name string) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name]; ok {
			r.locals[e] = len(r.scopes) - 1 - i
			return
		}
	}
}

// ── Statements ────────────────────────────────────────────────────────────────

func (r *Resolver) stmt(s ast.Stmt) error {
	switch s := s.(type) {
	case *ast.Blank, *ast.Break:
		return nil
	case *ast.Print:
		return r.expr(s.Value)
	case *ast.ExprStmt:
		return r.expr(s.Expr)
	case *ast.Let:
		r.declare(s.Name.Literal)
		if err := r.expr(s.Value); err != nil {
			return err
		}
		r.define(s.Name.Literal)
		return nil
	case *ast.Block:
		r.begin()
		defer r.end()
		return r.stmts(s.Stmts)
	case *ast.If:
		if err := r.expr(s.Cond); err != nil {
			return err
		}
		if err := r.stmt(s.Then); err != nil {
			return err
		}
		if s.Else != nil {
			return r.stmt(s.Else)
		}
		return nil
	case *ast.While:
		if err := r.expr(s.Cond); err != nil {
			return err
		}
		return r.stmt(s.Body)
	case *ast.Return:
		if s.Value != nil {
			return r.expr(s.Value)
		}
		return nil
	default:
		return diag.Internal("resolver: unhandled statement %T", s)
	}
}

func (r *Resolver) stmts(list []ast.Stmt) error {
	for _, s := range list {
		if err := r.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

// ── Expressions ───────────────────────────────────────────────────────────────

func (r *Resolver) expr(e ast.Expr) error {
	switch e := e.(type) {
	case *ast.Literal:
		return nil
	case *ast.Grouping:
		return r.expr(e.Inner)
	case *ast.Unary:
		return r.expr(e.Right)
	case *ast.Binary:
		return r.exprs(e.Left, e.Right)
	case *ast.Logical:
		return r.exprs(e.Left, e.Right)
	case *ast.Variable:
		if n := len(r.scopes); n > 0 {
			if ready, ok := r.scopes[n-1][e.Name.Literal]; ok && !ready {
				return diag.AtToken(diag.PhaseResolve, e.Name,
					"Cannot read local variable '%s' in its own initializer.", e.Name.Literal)
			}
		}
		r.local(e, e.Name.Literal)
		return nil
	case *ast.Assign:
		if err := r.expr(e.Value); err != nil {
			return err
		}
		r.local(e, e.Name.Literal)
		return nil
	case *ast.Call:
		if err := r.expr(e.Callee); err != nil {
			return err
		}
		return r.exprs(e.Args...)
	case *ast.FuncLit:
		r.begin()
		defer r.end()
		for _, p := range e.Params {
			r.declare(p.Name.Literal)
			r.define(p.Name.Literal)
		}
		return r.stmts(e.Body.Stmts)
	case *ast.ArrayLit:
		if e.IsRepeat() {
			return r.exprs(e.Count, e.Fill)
		}
		return r.exprs(e.Elements...)
	case *ast.Index:
		return r.exprs(e.Array, e.Index)
	case *ast.IndexAssign:
		return r.exprs(e.Array, e.Index, e.Value)
	default:
		return diag.Internal("resolver: unhandled expression %T", e)
	}
}

func (r *Resolver) exprs(list ...ast.Expr) error {
	for _, e := range list {
		if err := r.expr(e); err != nil {
			return err
		}
	}
	return nil
}
