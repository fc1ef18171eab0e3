package interp

import (
	"math"

	"github.com/metaphox/ember-lang/ast"
	"github.com/metaphox/ember-lang/diag"
	"github.com/metaphox/ember-lang/env"
)

func (in *Interpreter) eval(x ast.Expr, e *Env) (Value, error) {
	switch x := x.(type) {
	case *ast.Literal:
		switch v := x.Value.(type) {
		case float64:
			return Number(v), nil
		case string:
			return String(v), nil
		case bool:
			return Boolean(v), nil
		}
		return nil, diag.Internal("interp: literal of Go type %T", x.Value)

	case *ast.Grouping:
		return in.eval(x.Inner, e)

	case *ast.Unary:
		return in.unary(x, e)

	case *ast.Binary:
		return in.binary(x, e)

	case *ast.Logical:
		return in.logical(x, e)

	case *ast.Variable:
		return in.lookup(x, x.Name, e)

	case *ast.Assign:
		v, err := in.eval(x.Value, e)
		if err != nil {
			return nil, err
		}
		return v, in.assign(x, x.Name, v, e)

	case *ast.Call:
		return in.call(x, e)

	case *ast.FuncLit:
		return &Function{Decl: x, Closure: e}, nil

	case *ast.ArrayLit:
		return in.array(x, e)

	case *ast.Index:
		arr, i, err := in.element(x.Array, x.Index, e)
		if err != nil {
			return nil, err
		}
		return arr.Elements[i], nil

	case *ast.IndexAssign:
		arr, i, err := in.element(x.Array, x.Index, e)
		if err != nil {
			return nil, err
		}
		v, err := in.eval(x.Value, e)
		if err != nil {
			return nil, err
		}
		arr.Elements[i] = v
		return v, nil

	default:
		return nil, diag.Internal("interp: unhandled expression %T", x)
	}
}

// ── Operators ─────────────────────────────────────────────────────────────────

func (in *Interpreter) unary(x *ast.Unary, e *Env) (Value, error) {
	v, err := in.eval(x.Right, e)
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case Number:
		if x.Op.Type == ast.MINUS {
			return -v, nil
		}
	case Boolean:
		if x.Op.Type == ast.BANG {
			return !v, nil
		}
	}
	return nil, diag.Internal("interp: operator %q applied to %T", x.Op.Literal, v)
}

func (in *Interpreter) binary(x *ast.Binary, e *Env) (Value, error) {
	l, err := in.eval(x.Left, e)
	if err != nil {
		return nil, err
	}
	r, err := in.eval(x.Right, e)
	if err != nil {
		return nil, err
	}

	switch x.Op.Type {
	case ast.EQ:
		return Boolean(l == r), nil
	case ast.NEQ:
		return Boolean(l != r), nil
	case ast.PLUS:
		ln, lok := l.(Number)
		rn, rok := r.(Number)
		if lok && rok {
			return ln + rn, nil
		}
		return String(l.Inspect() + r.Inspect()), nil
	}

	a, aok := l.(Number)
	b, bok := r.(Number)
	if !aok || !bok {
		return nil, diag.Internal("interp: operator %q applied to %T and %T", x.Op.Literal, l, r)
	}
	switch x.Op.Type {
	case ast.MINUS:
		return a - b, nil
	case ast.ASTERISK:
		return a * b, nil
	case ast.SLASH:
		if b == 0 {
			return nil, diag.AtToken(diag.PhaseRuntime, x.Op, "Division by 0.")
		}
		return a / b, nil
	case ast.PERCENT:
		if b == 0 {
			return nil, diag.AtToken(diag.PhaseRuntime, x.Op, "Division by 0.")
		}
		return Number(math.Mod(float64(a), float64(b))), nil
	case ast.LT:
		return Boolean(a < b), nil
	case ast.LTE:
		return Boolean(a <= b), nil
	case ast.GT:
		return Boolean(a > b), nil
	case ast.GTE:
		return Boolean(a >= b), nil
	default:
		return nil, diag.Internal("interp: unknown binary operator %q", x.Op.Literal)
	}
}

// logical short-circuits: the right operand is evaluated only when the left
// one does not decide the result.
func (in *Interpreter) logical(x *ast.Logical, e *Env) (Value, error) {
	left, err := in.truth(x.Left, e)
	if err != nil {
		return nil, err
	}
	if x.Op.Type == ast.OR && left || x.Op.Type == ast.AND && !left {
		return Boolean(left), nil
	}
	right, err := in.truth(x.Right, e)
	if err != nil {
		return nil, err
	}
	return Boolean(right), nil
}

// ── Calls ─────────────────────────────────────────────────────────────────────

// call evaluates the callee and then the arguments left to right, binds
// the arguments in one new child of the closure environment, and runs the
// body's statements directly in it.
func (in *Interpreter) call(x *ast.Call, e *Env) (Value, error) {
	callee, err := in.eval(x.Callee, e)
	if err != nil {
		return nil, err
	}
	fn, ok := callee.(*Function)
	if !ok {
		return nil, diag.Internal("interp: call of non-function %T", callee)
	}
	if len(x.Args) != len(fn.Decl.Params) {
		return nil, diag.Internal("interp: %d arguments for %d parameters", len(x.Args), len(fn.Decl.Params))
	}

	args := make([]Value, len(x.Args))
	for i, arg := range x.Args {
		if args[i], err = in.eval(arg, e); err != nil {
			return nil, err
		}
	}

	scope := env.New(fn.Closure)
	for i, p := range fn.Decl.Params {
		scope.Define(p.Name.Literal, args[i])
	}
	sig, err := in.execAll(fn.Decl.Body.Stmts, scope)
	if err != nil {
		return nil, err
	}
	switch sig.kind {
	case sigReturn:
		return sig.value, nil
	case sigNormal:
		return None, nil
	default:
		return nil, diag.Internal("interp: %s signal reached a call boundary", sig)
	}
}

// ── Arrays ────────────────────────────────────────────────────────────────────

// MaxCapacity is the largest capacity the repeat form of an array literal
// may request.
const MaxCapacity = 1 << 24

// array builds an array literal. In the repeat form the fill expression is
// evaluated once and the same value is stored in every slot.
func (in *Interpreter) array(x *ast.ArrayLit, e *Env) (Value, error) {
	if !x.IsRepeat() {
		elems := make([]Value, len(x.Elements))
		for i, el := range x.Elements {
			v, err := in.eval(el, e)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &Array{Elements: elems}, nil
	}

	count, err := in.eval(x.Count, e)
	if err != nil {
		return nil, err
	}
	n, ok := count.(Number)
	switch {
	case !ok:
		return nil, diag.Internal("interp: array capacity evaluated to %T", count)
	case !integral(n):
		return nil, diag.AtNode(diag.PhaseRuntime, x.Count, "Array capacity must be an integer.")
	case n < 0:
		return nil, diag.AtNode(diag.PhaseRuntime, x.Count, "Array capacity must be non-negative.")
	case n > MaxCapacity:
		return nil, diag.AtNode(diag.PhaseRuntime, x.Count, "Array capacity is too large.")
	}
	fill, err := in.eval(x.Fill, e)
	if err != nil {
		return nil, err
	}
	elems := make([]Value, int(n))
	for i := range elems {
		elems[i] = fill
	}
	return &Array{Elements: elems}, nil
}

// element evaluates the array and index operands of a read or a store and
// checks the index against the array's capacity.
func (in *Interpreter) element(array, index ast.Expr, e *Env) (*Array, int, error) {
	av, err := in.eval(array, e)
	if err != nil {
		return nil, 0, err
	}
	iv, err := in.eval(index, e)
	if err != nil {
		return nil, 0, err
	}
	arr, ok := av.(*Array)
	if !ok {
		return nil, 0, diag.Internal("interp: indexing %T", av)
	}
	n, ok := iv.(Number)
	switch {
	case !ok:
		return nil, 0, diag.Internal("interp: index evaluated to %T", iv)
	case !integral(n):
		return nil, 0, diag.AtNode(diag.PhaseRuntime, index, "Index must be an integer.")
	case n < 0 || n >= Number(len(arr.Elements)):
		return nil, 0, diag.AtNode(diag.PhaseRuntime, index, "Index is out of range.")
	}
	return arr, int(n), nil
}

func integral(n Number) bool {
	f := float64(n)
	return !math.IsInf(f, 0) && f == math.Trunc(f)
}
