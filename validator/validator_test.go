package validator_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/metaphox/ember-lang/diag"
	"github.com/metaphox/ember-lang/parser"
	"github.com/metaphox/ember-lang/resolver"
	"github.com/metaphox/ember-lang/types"
	"github.com/metaphox/ember-lang/validator"
)

// ── Helpers ───────────────────────────────────────────────────────────────────

// check parses, resolves and validates src and returns the validator and its
// error.
func check(t *testing.T, src string) (*validator.Validator, error) {
	t.Helper()
	prog, err := parser.ParseProgram(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	locals, err := resolver.Resolve(prog.Statements)
	if err != nil {
		t.Fatalf("resolve %q: %v", src, err)
	}
	v := validator.New(locals)
	return v, v.Validate(prog.Statements)
}

func expectValid(t *testing.T, src string) *validator.Validator {
	t.Helper()
	v, err := check(t, src)
	if err != nil {
		t.Fatalf("unexpected errors for\n%s\n%v", src, err)
	}
	return v
}

// expectError checks that src fails with exactly one error whose message
// contains want.
func expectError(t *testing.T, src, want string) {
	t.Helper()
	_, err := check(t, src)
	if err == nil {
		t.Fatalf("expected an error for\n%s", src)
	}
	errs := diag.Flatten(err)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), err)
	}
	if diag.IsInternal(errs[0]) {
		t.Fatalf("unexpected implementation error: %v", errs[0])
	}
	if !strings.Contains(errs[0].Error(), want) {
		t.Errorf("error %q does not contain %q", errs[0], want)
	}
}

func globalType(t *testing.T, v *validator.Validator, name string) types.Type {
	t.Helper()
	got, err := v.Globals().Get(name)
	if err != nil {
		t.Fatalf("global %s: %v", name, err)
	}
	return got
}

// ── Accepted programs ─────────────────────────────────────────────────────────

func TestValidate_Accepts(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"arithmetic", `let a = 1 + 2 * 3 - 4 / 5 % 6; print -a;`},
		{"comparison", `let b: bool = 1 < 2 and 2 >= 1 or !(3 == 4);`},
		{"equality of strings", `print 'a' == "a";`},
		{"concatenation", `let s: str = 'n = ' + 1; let t: str = 1 + 'x'; let u: str = 'a' + 'b';`},
		{"block scoping", `let a = 1; { let a = 'shadow'; print a; } print a + 1;`},
		{"if and while", `let i = 0; while i < 3 do { if i == 1 then print i; else print 0; i = i + 1; }`},
		{"break in loop", `while true do { if 1 < 2 then break; }`},
		{"arrays", `let xs = [1, 2, 3]; xs[0] = xs[1] + xs[2]; let ys: [[str]] = [2 of ['a']];`},
		{"array capacity expression", `let n = 3; let xs = [n * 2 of true];`},
		{"array of functions", `let fs = [func(x: num) -> num { return x; }]; print fs[0](1);`},
		{"function call", `let add = func(a: num, b: num) -> num { return a + b; }; print add(1, 2);`},
		{"void function", `let hello = func(name: str) { print 'hi ' + name; }; hello('x');`},
		{"bare return", `let f = func() { return; };`},
		{"nested return", `let abs = func(n: num) -> num { if n < 0 then return -n; return n; };`},
		{"return in loop", `let f = func() -> num { while true do return 1; return 2; };`},
		{"recursion with hint", `let fact: func(num) -> num = func(n: num) -> num { if n < 2 then return 1; return n * fact(n - 1); };`},
		{"closure", `let mk = func() -> func() -> num { let c = 0; return func() -> num { c = c + 1; return c; }; };`},
		{"function values", `let apply = func(f: func(num) -> num, x: num) -> num { return f(x); };`},
		{"print anything", `print [1]; print func() {}; print true;`},
		{"redeclare global", `let a = 1; let a = a + 1; print a + 1;`},
		{"redeclare in block", `{ let a = 'x'; let a = 'y'; print a; }`},
		{"redeclare with hint", `let f = func() -> num { return 1; }; let f: func() -> num = func() -> num { return 2; };`},
		{"shadow with another type", `let a = 1; { let a = 'inner'; print a; }`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			expectValid(t, c.src)
		})
	}
}

// ── Rejected programs ─────────────────────────────────────────────────────────

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"hint mismatch", `let a: num = true;`, "Variable 'a' is declared as 'num' but initialized with 'bool'."},
		{"undefined", `print nope;`, "Undefined variable 'nope'."},
		{"assign mismatch", `let a = 1; a = 'x';`, "Cannot assign 'str' to variable 'a' of type 'num'."},
		{"minus on string", `print 'a' - 1;`, "Operands of '-' must be 'num'"},
		{"comparison on bool", `print true < false;`, "Operands of '<' must be 'num'"},
		{"plus on bool", `print true + 1;`, "Operands of '+' must be 'num' or 'str'"},
		{"equality across types", `print 1 == '1';`, "Operands of '==' must be primitives of the same type"},
		{"equality on arrays", `print [1] == [1];`, "Operands of '==' must be primitives of the same type"},
		{"logical on num", `print 1 and true;`, "Operands of 'and' must be 'bool'"},
		{"unary minus", `print -true;`, "Operand of '-' must be 'num', got 'bool'."},
		{"unary bang", `print !1;`, "Operand of '!' must be 'bool', got 'num'."},
		{"if condition", `if 1 then print 1;`, "Condition must be 'bool', got 'num'."},
		{"while condition", `while 'x' do break;`, "Condition must be 'bool', got 'str'."},
		{"break outside loop", `break;`, "Cannot use 'break' outside of a loop."},
		{"break in if only", `if true then break;`, "Cannot use 'break' outside of a loop."},
		{"break in function in loop", `while true do { let f = func() { break; }; }`, "Cannot use 'break' outside of a loop."},
		{"return outside function", `return 1;`, "Cannot use 'return' outside of a function."},
		{"return outside in block", `{ return; }`, "Cannot use 'return' outside of a function."},
		{"wrong return type", `let f = func() -> num { return 'x'; };`, "Function is declared to return 'num' but returns 'str'."},
		{"missing return", `let f = func() -> num { print 1; };`, "Function is declared to return 'num' but returns 'none'."},
		{"nested wrong return", `let f = func(n: num) -> num { if n < 0 then return 'neg'; return n; };`, "Function must return 'num', but this returns 'str'."},
		{"second return", `let f = func() -> num { return 1; return true; };`, "Function must return 'num', but this returns 'bool'."},
		{"call non-function", `let a = 1; a();`, "Can only call functions, got 'num'."},
		{"arity", `let f = func(a: num) {}; f();`, "Expected 1 arguments but got 0."},
		{"argument type", `let f = func(a: num) {}; f('x');`, "Argument 1 must be 'num', got 'str'."},
		{"mixed array", `let xs = [1, 'a'];`, "Array elements must share one type: expected 'num', got 'str'."},
		{"empty array", `let xs = [];`, "Cannot infer the element type of an empty array"},
		{"capacity type", `let xs = ['3' of 0];`, "Array capacity must be 'num', got 'str'."},
		{"index type", `let xs = [1]; print xs['0'];`, "Index must be 'num', got 'str'."},
		{"index non-array", `let x = 1; print x[0];`, "Can only index arrays, got 'num'."},
		{"store type", `let xs = [1]; xs[0] = 'a';`, "Cannot store 'str' in an array of 'num'."},
		{"nested array mismatch", `let xs: [[num]] = [['a']];`, "Variable 'xs' is declared as '[[num]]' but initialized with '[[str]]'."},
		{"function type mismatch", `let f: func(num) -> num = func(s: str) -> num { return 1; };`, "declared as 'func(num) -> num' but initialized with 'func(str) -> num'."},
		{"recursion without hint", `let f = func(n: num) -> num { return f(n); };`, "Undefined variable 'f'."},
		{"hinted redeclaration reads old binding", `let n = 1; let n: bool = n;`, "Variable 'n' is declared as 'bool' but initialized with 'num'."},
		{"hinted redeclaration as array", `let n = 1; let n: [num] = n;`, "Variable 'n' is declared as '[num]' but initialized with 'num'."},
		{"redeclare global with another type", `let a = 1; let a = 'now a string';`, "Variable 'a' is already declared as 'num' in this scope; cannot redeclare it as 'str'."},
		{"redeclare local with another type", `{ let a = true; let a = [false]; }`, "Variable 'a' is already declared as 'bool' in this scope; cannot redeclare it as '[bool]'."},
		{"redeclare captured variable", `let x = 1; let f = func() -> num { return x; }; let x = 'a';`, "already declared as 'num'"},
		{"redeclare function with hint", `let f = 1; let f: func() -> num = func() -> num { return 2; };`, "Variable 'f' is already declared as 'num' in this scope; cannot redeclare it as 'func() -> num'."},
		{"hinted global own initializer", `let x: num = x;`, "Undefined variable 'x'."},
		{"hint not bound through array of functions", `let fs: [func() -> num] = [func() -> num { return fs[0](); }];`, "Undefined variable 'fs'."},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			expectError(t, c.src, c.want)
		})
	}
}

// ── Batching and state ────────────────────────────────────────────────────────

// TestValidate_OneErrorPerStatement verifies that each failing top-level
// statement contributes exactly one error and that checking continues.
func TestValidate_OneErrorPerStatement(t *testing.T) {
	_, err := check(t, `
let a: num = 'x';
print 1;
print true + true + true;
{ print nope; print nope2; }
`)
	errs := diag.Flatten(err)
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(errs), err)
	}
	for _, e := range errs {
		var te *diag.TokenError
		var re *diag.RangeError
		switch {
		case errors.As(e, &te):
			if te.Phase != diag.PhaseType {
				t.Errorf("phase %s", te.Phase)
			}
		case errors.As(e, &re):
			if re.Phase != diag.PhaseType {
				t.Errorf("phase %s", re.Phase)
			}
		default:
			t.Errorf("unexpected error type %T", e)
		}
	}
}

// TestValidate_ReturnStateResets verifies that a failure inside one function
// does not leak return or loop context into the next statement.
func TestValidate_ReturnStateResets(t *testing.T) {
	_, err := check(t, `
while true do { let f = func() -> num { return 'x'; }; }
return 1;
break;
`)
	if n := len(diag.Flatten(err)); n != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", n, err)
	}
}

func TestValidate_InferredTypes(t *testing.T) {
	v := expectValid(t, `
let n = 1;
let s = 'a' + n;
let xs = [2 of [true]];
let f = func(a: num, b: str) -> [num] { return [a]; };
let g = func() {};
let r = g();
`)
	cases := []struct {
		name string
		want types.Type
	}{
		{"n", types.Num},
		{"s", types.Str},
		{"xs", types.Array(types.Array(types.Bool))},
		{"f", types.Func([]types.Type{types.Num, types.Str}, types.Array(types.Num))},
		{"g", types.Func(nil, types.Void)},
		{"r", types.Void},
	}
	for _, c := range cases {
		if got := globalType(t, v, c.name); !types.Equal(got, c.want) {
			t.Errorf("%s: got %s, want %s", c.name, got, c.want)
		}
	}
}

// TestValidate_GlobalsPersist checks that a second Validate call sees the
// globals defined by the first, which the REPL relies on.
func TestValidate_GlobalsPersist(t *testing.T) {
	locals := make(resolver.Locals)
	v := validator.New(locals)
	for _, src := range []string{`let a = 1;`, `print a + 1;`} {
		prog, err := parser.ParseProgram(src)
		if err != nil {
			t.Fatal(err)
		}
		l, err := resolver.Resolve(prog.Statements)
		if err != nil {
			t.Fatal(err)
		}
		locals.Merge(l)
		if err := v.Validate(prog.Statements); err != nil {
			t.Fatalf("%s: %v", src, err)
		}
	}
}

// TestValidate_ErrorRange checks that a declaration mismatch is reported on
// the whole statement.
func TestValidate_ErrorRange(t *testing.T) {
	_, err := check(t, `let a: num = true;`)
	var re *diag.RangeError
	if !errors.As(err, &re) {
		t.Fatalf("expected *diag.RangeError, got %T", err)
	}
	if re.First.Literal != "let" || re.Last.Literal != ";" {
		t.Errorf("range %q .. %q", re.First.Literal, re.Last.Literal)
	}
}
