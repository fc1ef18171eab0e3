package interp

import (
	"strconv"
	"strings"

	"github.com/metaphox/ember-lang/ast"
	"github.com/metaphox/ember-lang/env"
)

// Env is the runtime scope chain.
type Env = env.Environment[Value]

// Value is an Ember runtime value.
//
//	Number | String | Boolean | *Function | *Array | None
//
// Primitives are Go values and are copied on assignment and on calls.
// Functions and arrays are pointers and are shared.
type Value interface {
	// Inspect returns the text print writes for the value.
	Inspect() string
}

// ── Primitives ────────────────────────────────────────────────────────────────

type Number float64

func (n Number) Inspect() string { return strconv.FormatFloat(float64(n), 'f', -1, 64) }

type String string

func (s String) Inspect() string { return string(s) }

type Boolean bool

func (b Boolean) Inspect() string { return strconv.FormatBool(bool(b)) }

type none struct{}

func (none) Inspect() string { return "none" }

// None is the result of a call whose body finishes without returning a value.
var None Value = none{}

// ── Functions ─────────────────────────────────────────────────────────────────

// Function is a closure: a function literal plus the environment that was
// current when the literal was evaluated.
type Function struct {
	Decl    *ast.FuncLit
	Closure *Env
}

func (f *Function) Inspect() string {
	names := make([]string, len(f.Decl.Params))
	for i, p := range f.Decl.Params {
		names[i] = p.Name.Literal
	}
	return "<func(" + strings.Join(names, ", ") + ")>"
}

// ── Arrays ────────────────────────────────────────────────────────────────────

// Array is a fixed-capacity sequence. Its capacity is len(Elements), set
// when the array is created and never changed.
type Array struct {
	Elements []Value
}

func (a *Array) Inspect() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, el := range a.Elements {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(el.Inspect())
	}
	b.WriteByte(']')
	return b.String()
}
