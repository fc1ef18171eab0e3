package validator

import (
	"github.com/metaphox/ember-lang/ast"
	"github.com/metaphox/ember-lang/diag"
	"github.com/metaphox/ember-lang/env"
	"github.com/metaphox/ember-lang/types"
)

func (v *Validator) expr(x ast.Expr, e *TypeEnv) (types.Type, error) {
	switch x := x.(type) {
	case *ast.Literal:
		switch x.Value.(type) {
		case float64:
			return types.Num, nil
		case string:
			return types.Str, nil
		case bool:
			return types.Bool, nil
		}
		return types.Void, diag.Internal("validator: literal of Go type %T", x.Value)

	case *ast.Grouping:
		return v.expr(x.Inner, e)

	case *ast.Unary:
		return v.unary(x, e)

	case *ast.Binary:
		return v.binary(x, e)

	case *ast.Logical:
		l, r, err := v.operands(x.Left, x.Right, e)
		if err != nil {
			return l, err
		}
		if !types.Equal(l, types.Bool) || !types.Equal(r, types.Bool) {
			return l, operandError(x.Op, "'bool'", l, r)
		}
		return types.Bool, nil

	case *ast.Variable:
		return v.lookup(x, x.Name, e)

	case *ast.Assign:
		value, err := v.expr(x.Value, e)
		if err != nil {
			return value, err
		}
		return v.assignable(x, x.Name, value, e)

	case *ast.Call:
		return v.call(x, e)

	case *ast.FuncLit:
		return v.function(x, e)

	case *ast.ArrayLit:
		return v.array(x, e)

	case *ast.Index:
		arr, err := v.indexed(x.Array, x.Index, e)
		if err != nil {
			return arr, err
		}
		return *arr.Elem, nil

	case *ast.IndexAssign:
		arr, err := v.indexed(x.Array, x.Index, e)
		if err != nil {
			return arr, err
		}
		value, err := v.expr(x.Value, e)
		if err != nil {
			return value, err
		}
		if !types.Equal(*arr.Elem, value) {
			return value, diag.AtNode(diag.PhaseType, x.Value,
				"Cannot store '%s' in an array of '%s'.", value, arr.Elem)
		}
		return value, nil

	default:
		return types.Void, diag.Internal("validator: unhandled expression %T", x)
	}
}

// operands checks two operand expressions left to right.
func (v *Validator) operands(left, right ast.Expr, e *TypeEnv) (types.Type, types.Type, error) {
	l, err := v.expr(left, e)
	if err != nil {
		return l, types.Void, err
	}
	r, err := v.expr(right, e)
	return l, r, err
}

func operandError(op ast.Token, want string, l, r types.Type) error {
	return diag.AtToken(diag.PhaseType, op,
		"Operands of '%s' must be %s, got '%s' and '%s'.", op.Literal, want, l, r)
}

func (v *Validator) unary(x *ast.Unary, e *TypeEnv) (types.Type, error) {
	t, err := v.expr(x.Right, e)
	if err != nil {
		return t, err
	}
	want := types.Num
	if x.Op.Type == ast.BANG {
		want = types.Bool
	}
	if !types.Equal(t, want) {
		return t, diag.AtToken(diag.PhaseType, x.Op,
			"Operand of '%s' must be '%s', got '%s'.", x.Op.Literal, want, t)
	}
	return want, nil
}

func (v *Validator) binary(x *ast.Binary, e *TypeEnv) (types.Type, error) {
	l, r, err := v.operands(x.Left, x.Right, e)
	if err != nil {
		return l, err
	}
	bothNum := types.Equal(l, types.Num) && types.Equal(r, types.Num)

	switch x.Op.Type {
	case ast.EQ, ast.NEQ:
		if !l.IsPrimitive() || !types.Equal(l, r) {
			return l, operandError(x.Op, "primitives of the same type", l, r)
		}
		return types.Bool, nil

	case ast.LT, ast.LTE, ast.GT, ast.GTE:
		if !bothNum {
			return l, operandError(x.Op, "'num'", l, r)
		}
		return types.Bool, nil

	case ast.MINUS, ast.ASTERISK, ast.SLASH, ast.PERCENT:
		if !bothNum {
			return l, operandError(x.Op, "'num'", l, r)
		}
		return types.Num, nil

	case ast.PLUS:
		// num + num adds; any other mix of num and str concatenates.
		if !numOrStr(l) || !numOrStr(r) {
			return l, operandError(x.Op, "'num' or 'str'", l, r)
		}
		if bothNum {
			return types.Num, nil
		}
		return types.Str, nil

	default:
		return l, diag.Internal("validator: unknown binary operator %q", x.Op.Literal)
	}
}

func numOrStr(t types.Type) bool {
	return t.Kind == types.KindNum || t.Kind == types.KindStr
}

func (v *Validator) call(x *ast.Call, e *TypeEnv) (types.Type, error) {
	callee, err := v.expr(x.Callee, e)
	if err != nil {
		return callee, err
	}
	if callee.Kind != types.KindFunc {
		return callee, diag.AtNode(diag.PhaseType, x.Callee, "Can only call functions, got '%s'.", callee)
	}
	if len(x.Args) != len(callee.Params) {
		return callee, diag.AtNode(diag.PhaseType, x,
			"Expected %d arguments but got %d.", len(callee.Params), len(x.Args))
	}
	for i, arg := range x.Args {
		t, err := v.expr(arg, e)
		if err != nil {
			return t, err
		}
		if !types.Equal(t, callee.Params[i]) {
			return t, diag.AtNode(diag.PhaseType, arg,
				"Argument %d must be '%s', got '%s'.", i+1, callee.Params[i], t)
		}
	}
	return *callee.Ret, nil
}

// function checks a function literal. The body runs in a fresh scope
// holding the parameters, with break and the if/while context reset. The
// return type inferred from the body must equal the declared one.
func (v *Validator) function(fn *ast.FuncLit, e *TypeEnv) (types.Type, error) {
	params := make([]types.Type, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = types.FromExpr(p.Type)
	}
	expected := types.FromExpr(fn.ReturnType)
	frame := &returnFrame{expected: expected}

	savedIf, savedWhile := v.withinIf, v.withinWhile
	v.withinIf, v.withinWhile = false, false
	v.returns = append(v.returns, frame)
	defer func() {
		v.returns = v.returns[:len(v.returns)-1]
		v.withinIf, v.withinWhile = savedIf, savedWhile
	}()

	scope := env.New(e)
	for i, p := range fn.Params {
		scope.Define(p.Name.Literal, params[i])
	}
	if err := v.stmts(fn.Body.Stmts, scope); err != nil {
		return types.Void, err
	}

	inferred := types.Void
	if frame.inferred != nil {
		inferred = *frame.inferred
	}
	if !types.Equal(inferred, expected) {
		return types.Void, diag.AtNode(diag.PhaseType, fn,
			"Function is declared to return '%s' but returns '%s'.", expected, inferred)
	}
	return types.Func(params, expected), nil
}

func (v *Validator) array(x *ast.ArrayLit, e *TypeEnv) (types.Type, error) {
	if x.IsRepeat() {
		count, err := v.expr(x.Count, e)
		if err != nil {
			return count, err
		}
		if !types.Equal(count, types.Num) {
			return count, diag.AtNode(diag.PhaseType, x.Count, "Array capacity must be 'num', got '%s'.", count)
		}
		fill, err := v.expr(x.Fill, e)
		if err != nil {
			return fill, err
		}
		return types.Array(fill), nil
	}

	if len(x.Elements) == 0 {
		return types.Void, diag.AtNode(diag.PhaseType, x,
			"Cannot infer the element type of an empty array; use [0 of value].")
	}
	elem, err := v.expr(x.Elements[0], e)
	if err != nil {
		return elem, err
	}
	for _, el := range x.Elements[1:] {
		t, err := v.expr(el, e)
		if err != nil {
			return t, err
		}
		if !types.Equal(elem, t) {
			return t, diag.AtNode(diag.PhaseType, el,
				"Array elements must share one type: expected '%s', got '%s'.", elem, t)
		}
	}
	return types.Array(elem), nil
}

// indexed checks the array and index operands of a read or a store and
// returns the array type.
func (v *Validator) indexed(array, index ast.Expr, e *TypeEnv) (types.Type, error) {
	arr, idx, err := v.operands(array, index, e)
	if err != nil {
		return arr, err
	}
	if !types.Equal(idx, types.Num) {
		return arr, diag.AtNode(diag.PhaseType, index, "Index must be 'num', got '%s'.", idx)
	}
	if arr.Kind != types.KindArray {
		return arr, diag.AtNode(diag.PhaseType, array, "Can only index arrays, got '%s'.", arr)
	}
	return arr, nil
}
