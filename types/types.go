// Package types defines the static types of Ember values.
//
// A Type is one of
//
//	Num | Str | Bool | Array(Elem) | Func(Params, Ret)
//
// plus the sentinel Void, the "no value" result of a function that does not
// return one. Equality is structural: two array types are equal when their
// element types are, two function types when their parameter lists are
// pairwise equal and their return types are equal.
package types

import (
	"fmt"
	"strings"

	"github.com/metaphox/ember-lang/ast"
)

// Kind tags the variant of a Type.
type Kind int

const (
	KindVoid Kind = iota
	KindNum
	KindStr
	KindBool
	KindArray
	KindFunc
)

// Type is a structural Ember type. The zero value is Void.
type Type struct {
	Kind   Kind
	Elem   *Type  // KindArray
	Params []Type // KindFunc
	Ret    *Type  // KindFunc
}

var (
	Void = Type{Kind: KindVoid}
	Num  = Type{Kind: KindNum}
	Str  = Type{Kind: KindStr}
	Bool = Type{Kind: KindBool}
)

// Array returns the type of arrays holding elem.
func Array(elem Type) Type {
	return Type{Kind: KindArray, Elem: &elem}
}

// Func returns the type of functions taking params and returning ret.
func Func(params []Type, ret Type) Type {
	return Type{Kind: KindFunc, Params: params, Ret: &ret}
}

// Equal reports whether a and b have the same shape.
func Equal(a, b Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindArray:
		return Equal(*a.Elem, *b.Elem)
	case KindFunc:
		if len(a.Params) != len(b.Params) || !Equal(*a.Ret, *b.Ret) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Equal is the method form of the package-level Equal.
func (t Type) Equal(o Type) bool { return Equal(t, o) }

// IsPrimitive reports whether t is Num, Str or Bool.
func (t Type) IsPrimitive() bool {
	switch t.Kind {
	case KindNum, KindStr, KindBool:
		return true
	}
	return false
}

// String renders t in the surface syntax of type hints. Void renders as
// "none", which cannot be written in a hint.
func (t Type) String() string {
	switch t.Kind {
	case KindNum:
		return "num"
	case KindStr:
		return "str"
	case KindBool:
		return "bool"
	case KindArray:
		return "[" + t.Elem.String() + "]"
	case KindFunc:
		params := make([]string, len(t.Params))
		for i, p := range t.Params {
			params[i] = p.String()
		}
		out := fmt.Sprintf("func(%s)", strings.Join(params, ", "))
		if t.Ret.Kind != KindVoid {
			out += " -> " + t.Ret.String()
		}
		return out
	default:
		return "none"
	}
}

// FromExpr converts a parsed type annotation into a Type. A nil annotation
// (an omitted return type) is Void.
func FromExpr(te *ast.TypeExpr) Type {
	switch {
	case te == nil:
		return Void
	case te.Elem != nil:
		return Array(FromExpr(te.Elem))
	case te.IsFn:
		params := make([]Type, len(te.FnParams))
		for i, p := range te.FnParams {
			params[i] = FromExpr(p)
		}
		return Func(params, FromExpr(te.FnReturn))
	}
	switch te.Name {
	case "num":
		return Num
	case "str":
		return Str
	case "bool":
		return Bool
	}
	// The parser only produces the names above.
	return Void
}
