package interp_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/metaphox/ember-lang/ast"
	"github.com/metaphox/ember-lang/diag"
	"github.com/metaphox/ember-lang/interp"
	"github.com/metaphox/ember-lang/parser"
	"github.com/metaphox/ember-lang/resolver"
	"github.com/metaphox/ember-lang/validator"
)

// ── Helpers ───────────────────────────────────────────────────────────────────

// prepare parses, resolves and validates src.
func prepare(t *testing.T, src string) ([]ast.Stmt, resolver.Locals) {
	t.Helper()
	prog, err := parser.ParseProgram(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	locals, err := resolver.Resolve(prog.Statements)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := validator.New(locals).Validate(prog.Statements); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return prog.Statements, locals
}

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	stmts, locals := prepare(t, src)
	return interp.New(locals).Interpret(stmts)
}

func expectOutput(t *testing.T, src, want string) {
	t.Helper()
	got, err := run(t, src)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if got != want {
		t.Errorf("output mismatch\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

// expectRuntimeError checks the message of the runtime error and the output
// printed before it.
func expectRuntimeError(t *testing.T, src, msg, wantOut string) {
	t.Helper()
	out, err := run(t, src)
	if err == nil {
		t.Fatalf("expected runtime error %q, got output %q", msg, out)
	}
	if diag.IsInternal(err) {
		t.Fatalf("unexpected implementation error: %v", err)
	}
	var te *diag.TokenError
	var re *diag.RangeError
	switch {
	case errors.As(err, &te):
		if te.Phase != diag.PhaseRuntime || te.Msg != msg {
			t.Errorf("got %s error %q, want runtime %q", te.Phase, te.Msg, msg)
		}
	case errors.As(err, &re):
		if re.Phase != diag.PhaseRuntime || re.Msg != msg {
			t.Errorf("got %s error %q, want runtime %q", re.Phase, re.Msg, msg)
		}
	default:
		t.Fatalf("unexpected error type %T: %v", err, err)
	}
	if out != wantOut {
		t.Errorf("output before failure: got %q, want %q", out, wantOut)
	}
}

// ── Scenarios ─────────────────────────────────────────────────────────────────

func TestScenario_CounterClosure(t *testing.T) {
	expectOutput(t, `
let counterMaker = func() -> func() -> num {
  let c = 0;
  return func() -> num { c = c + 1; return c; };
};
let a = counterMaker();
print a();
print a();
`, "1\n2")
}

func TestScenario_IndexOutOfRange(t *testing.T) {
	expectRuntimeError(t, `print 'before'; print [1, 2, 3][5]; print 'after';`,
		"Index is out of range.", "before")
}

func TestScenario_BreakOutOfLoop(t *testing.T) {
	expectOutput(t, `while true do { break; } print 'done';`, "done")
}

func TestScenario_DivisionByZero(t *testing.T) {
	expectRuntimeError(t, `print 1/0;`, "Division by 0.", "")
}

func TestScenario_RepeatArray(t *testing.T) {
	expectOutput(t, `let arr = [5 of 'a']; print arr[4];`, "a")
}

// ── Semantics ─────────────────────────────────────────────────────────────────

func TestInterpret_Printing(t *testing.T) {
	expectOutput(t, `
print 1;
print 2.5;
print -0.125;
print 3 / 2;
print 1.0 == 1;
print 'text';
print true;
print [1, 2, 3];
print [2 of ['a']];
print func(a: num, b: str) {};
let nothing = func() {};
print nothing();
`, "1\n2.5\n-0.125\n1.5\ntrue\ntext\ntrue\n[1, 2, 3]\n[[a], [a]]\n<func(a, b)>\nnone")
}

func TestInterpret_Arithmetic(t *testing.T) {
	expectOutput(t, `
print 7 % 3;
print -7 % 3;
print 2 + 3 * 4 - 6 / 2;
print (2 + 3) * 4;
print 10 - 2 - 3;
`, "1\n-1\n11\n20\n5")
}

func TestInterpret_Concatenation(t *testing.T) {
	expectOutput(t, `
print 'n = ' + 4;
print 4 + '2';
print 'a' + 'b';
print 1 + 2 + 'x';
`, "n = 4\n42\nab\n3x")
}

func TestInterpret_Comparison(t *testing.T) {
	expectOutput(t, `
print 1 < 2;
print 2 <= 2;
print 3 > 4;
print 'a' == 'a';
print 'a' != 'b';
print true == false;
`, "true\ntrue\nfalse\ntrue\ntrue\nfalse")
}

// TestInterpret_ShortCircuit verifies that the right operand of 'and' and
// 'or' runs only when needed.
func TestInterpret_ShortCircuit(t *testing.T) {
	expectOutput(t, `
let hits = 0;
let hit = func() -> bool { hits = hits + 1; return true; };
print false and hit();
print true or hit();
print true and hit();
print false or hit();
print hits;
`, "false\ntrue\ntrue\ntrue\n2")
}

func TestInterpret_Scoping(t *testing.T) {
	expectOutput(t, `
let a = 'global';
{
  let a = 'outer';
  {
    let a = 'inner';
    print a;
  }
  print a;
}
print a;
`, "inner\nouter\nglobal")
}

// TestInterpret_LexicalScope verifies that a closure sees the binding that
// was visible where it was written, not one declared later.
func TestInterpret_LexicalScope(t *testing.T) {
	expectOutput(t, `
let a = 'global';
{
  let show = func() { print a; };
  show();
  let a = 'block';
  show();
  print a;
}
`, "global\nglobal\nblock")
}

func TestInterpret_WhileAndIf(t *testing.T) {
	expectOutput(t, `
let i = 0;
let evens = 0;
while i < 10 do {
  if i % 2 == 0 then evens = evens + 1;
  else if i == 7 then break;
  i = i + 1;
}
print i;
print evens;
`, "7\n4")
}

func TestInterpret_NestedLoopBreak(t *testing.T) {
	expectOutput(t, `
let out = 0;
let i = 0;
while i < 3 do {
  let j = 0;
  while true do {
    if j == 2 then break;
    j = j + 1;
    out = out + 1;
  }
  i = i + 1;
}
print out;
`, "6")
}

func TestInterpret_ReturnUnwinds(t *testing.T) {
	expectOutput(t, `
let find = func(xs: [num], want: num) -> num {
  let i = 0;
  while i < 3 do {
    { if xs[i] == want then return i; }
    i = i + 1;
  }
  return -1;
};
print find([4, 5, 6], 5);
print find([4, 5, 6], 9);
`, "1\n-1")
}

func TestInterpret_Recursion(t *testing.T) {
	expectOutput(t, `
let fib: func(num) -> num = func(n: num) -> num {
  if n < 2 then return n;
  return fib(n - 1) + fib(n - 2);
};
print fib(15);
`, "610")
}

func TestInterpret_HigherOrder(t *testing.T) {
	expectOutput(t, `
let twice = func(f: func(num) -> num) -> func(num) -> num {
  return func(x: num) -> num { return f(f(x)); };
};
let inc = func(x: num) -> num { return x + 1; };
print twice(inc)(5);
print twice(twice(inc))(0);
`, "7\n4")
}

func TestInterpret_ClosureIsolation(t *testing.T) {
	expectOutput(t, `
let counterMaker = func() -> func() -> num {
  let c = 0;
  return func() -> num { c = c + 1; return c; };
};
let a = counterMaker();
let b = counterMaker();
print a();
print a();
print b();
print a();
`, "1\n2\n1\n3")
}

// TestInterpret_SharedCapture verifies that closures created in the same
// scope share it.
func TestInterpret_SharedCapture(t *testing.T) {
	expectOutput(t, `
let n = 0;
let fs = [2 of func() {}];
{
  let shared = 0;
  fs[0] = func() { shared = shared + 1; };
  fs[1] = func() { n = shared; };
}
fs[0]();
fs[0]();
fs[1]();
print n;
`, "2")
}

func TestInterpret_PrimitivePassByValue(t *testing.T) {
	expectOutput(t, `
let bump = func(n: num, s: str, b: bool) {
  n = n + 1;
  s = s + '!';
  b = !b;
};
let n = 1;
let s = 'hi';
let b = true;
bump(n, s, b);
print n;
print s;
print b;
`, "1\nhi\ntrue")
}

func TestInterpret_ArraysAreShared(t *testing.T) {
	expectOutput(t, `
let fill = func(xs: [num]) { xs[0] = 9; };
let xs = [1, 2];
let ys = xs;
fill(ys);
print xs;
`, "[9, 2]")
}

// TestInterpret_RepeatSharesFill checks that the repeat form evaluates its
// fill once and stores the same value in every slot.
func TestInterpret_RepeatSharesFill(t *testing.T) {
	expectOutput(t, `
let grid = [2 of [0, 0]];
grid[0][1] = 5;
print grid;
let calls = 0;
let next = func() -> num { calls = calls + 1; return calls; };
let xs = [3 of next()];
print xs;
print calls;
`, "[[0, 5], [0, 5]]\n[1, 1, 1]\n1")
}

func TestInterpret_EmptyRepeat(t *testing.T) {
	expectOutput(t, `print [0 of 1];`, "[]")
}

func TestInterpret_AssignmentValue(t *testing.T) {
	expectOutput(t, `
let a = 0;
let b = 0;
a = b = 3;
let xs = [1];
print (xs[0] = 4) + a + b;
`, "10")
}

// ── Runtime errors ────────────────────────────────────────────────────────────

func TestInterpret_RuntimeErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		msg  string
		out  string
	}{
		{"modulo by zero", `print 'x'; print 5 % 0;`, "Division by 0.", "x"},
		{"division in function", `let f = func(d: num) -> num { return 1 / d; }; print f(1); print f(0);`, "Division by 0.", "1"},
		{"negative index", `let xs = [1]; print xs[-1];`, "Index is out of range.", ""},
		{"index at capacity", `let xs = [3 of 0]; xs[3] = 1;`, "Index is out of range.", ""},
		{"fractional index", `let xs = [1, 2]; print xs[0.5];`, "Index must be an integer.", ""},
		{"negative capacity", `let n = -1; let xs = [n of 0];`, "Array capacity must be non-negative.", ""},
		{"fractional capacity", `let xs = [1.5 of 0];`, "Array capacity must be an integer.", ""},
		{"huge capacity", `print 'x'; let a = [1000000000000000000 of 0];`, "Array capacity is too large.", "x"},
		{"capacity beyond int range", `let a = [100000000000000000000000000000 of 0];`, "Array capacity is too large.", ""},
		{"capacity just past limit", `let a = [16777217 of true];`, "Array capacity is too large.", ""},
		{"error inside loop", `let i = 0; while true do { print i; i = i + 1; if i == 2 then print 1 / 0; }`, "Division by 0.", "0\n1"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			expectRuntimeError(t, c.src, c.msg, c.out)
		})
	}
}

// TestInterpret_StopsAtFirstError verifies that nothing after a failing
// statement runs.
func TestInterpret_StopsAtFirstError(t *testing.T) {
	stmts, locals := prepare(t, `let a = 1; print a; print a / 0; a = 2; print a;`)
	in := interp.New(locals)
	out, err := in.Interpret(stmts)
	if err == nil {
		t.Fatal("expected error")
	}
	if out != "1" || in.Output() != "1" {
		t.Errorf("output: %q / %q", out, in.Output())
	}
	if v, _ := in.Globals().Get("a"); v != interp.Number(1) {
		t.Errorf("a = %v, assignment after the error must not run", v)
	}
}

// TestInterpret_SignalsAtTopLevel runs statements the validator would reject
// and checks that the escaping signal is reported as an internal defect.
func TestInterpret_SignalsAtTopLevel(t *testing.T) {
	for _, src := range []string{`break;`, `return 1;`, `{ return; }`} {
		prog, err := parser.ParseProgram(src)
		if err != nil {
			t.Fatal(err)
		}
		locals, _ := resolver.Resolve(prog.Statements)
		_, err = interp.New(locals).Interpret(prog.Statements)
		if !diag.IsInternal(err) {
			t.Errorf("%s: got %v, want an implementation error", src, err)
		}
	}
}

// TestInterpret_BreakAtCallBoundary checks that a break escaping a function
// body is reported as an internal defect rather than ending a caller's loop.
func TestInterpret_BreakAtCallBoundary(t *testing.T) {
	prog, err := parser.ParseProgram(`let f = func() { break; }; while true do f();`)
	if err != nil {
		t.Fatal(err)
	}
	locals, _ := resolver.Resolve(prog.Statements)
	_, err = interp.New(locals).Interpret(prog.Statements)
	if !diag.IsInternal(err) {
		t.Errorf("got %v, want an implementation error", err)
	}
}

// ── Output plumbing ───────────────────────────────────────────────────────────

func TestInterpret_Determinism(t *testing.T) {
	src := `
let acc = '';
let i = 0;
while i < 5 do { acc = acc + i; i = i + 1; }
print acc;
print [i of acc];
`
	first, err := run(t, src)
	if err != nil {
		t.Fatal(err)
	}
	for n := 0; n < 3; n++ {
		again, err := run(t, src)
		if err != nil || again != first {
			t.Fatalf("run %d: got %q (%v), want %q", n, again, err, first)
		}
	}
}

func TestInterpret_WithStdout(t *testing.T) {
	stmts, locals := prepare(t, `print 1; print 'two'; print 1 / 0;`)
	var buf bytes.Buffer
	out, err := interp.New(locals, interp.WithStdout(&buf)).Interpret(stmts)
	if err == nil {
		t.Fatal("expected error")
	}
	if buf.String() != "1\ntwo\n" {
		t.Errorf("streamed %q", buf.String())
	}
	if out != "1\ntwo" {
		t.Errorf("buffered %q", out)
	}
}

// TestInterpret_OutputResetsPerRun checks that each Interpret call reports
// only its own output while globals carry over.
func TestInterpret_OutputResetsPerRun(t *testing.T) {
	locals := make(resolver.Locals)
	in := interp.New(locals)
	for _, c := range []struct{ src, want string }{
		{`let x = 40; print x;`, "40"},
		{`print x + 2;`, "42"},
	} {
		prog, err := parser.ParseProgram(c.src)
		if err != nil {
			t.Fatal(err)
		}
		l, _ := resolver.Resolve(prog.Statements)
		locals.Merge(l)
		out, err := in.Interpret(prog.Statements)
		if err != nil || out != c.want {
			t.Errorf("%s: got %q, %v; want %q", c.src, out, err, c.want)
		}
	}
}

func TestInterpret_Completed(t *testing.T) {
	cases := []struct {
		src  string
		want int
	}{
		{`let a = 1; print a;`, 2},
		{`let a = 1; print a / 0; let b = 2;`, 1},
		{`print [1][1];`, 0},
		{`{ let a = 1; } while false do break; print 1 % 0;`, 2},
	}
	for _, c := range cases {
		stmts, locals := prepare(t, c.src)
		in := interp.New(locals)
		_, _ = in.Interpret(stmts)
		if got := in.Completed(); got != c.want {
			t.Errorf("%s: Completed() = %d, want %d", c.src, got, c.want)
		}
	}
}
