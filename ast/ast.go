// Package ast defines the Abstract Syntax Tree (AST) node types for the Ember language.
//
// Every source construct has a corresponding node type. The hierarchy is:
//
//	Node (interface)
//	  Stmt (interface)
//	    Blank, Print, ExprStmt, Let, Block, If, While, Break, Return
//	  Expr (interface)
//	    Literal, Grouping, Unary, Binary, Logical, Variable, Assign, Call,
//	    FuncLit, ArrayLit, Index, IndexAssign
//
// Both Stmt and Expr are closed: the unexported marker methods keep other
// packages from adding variants, so every pass can switch over the complete
// set of node types.
//
// Every node knows its leftmost and rightmost token (Start and End). They are
// used only for diagnostic ranges.
package ast

import (
	"fmt"
	"strings"
)

// ── Interfaces ────────────────────────────────────────────────────────────────

// Node is the root interface for every element in the Ember AST.
type Node interface {
	// Start returns the leftmost token of the node.
	Start() Token
	// End returns the rightmost token of the node.
	End() Token
	// String returns a compact, human-readable representation of the node.
	// It is intended for debugging and test output, not pretty-printing.
	String() string
}

// Stmt is a Node that is executed for its effect.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is a Node that evaluates to a value.
type Expr interface {
	Node
	exprNode()
}

// ── Top-level program ─────────────────────────────────────────────────────────

// Program is the root AST node produced by the parser.
// An Ember source file is a flat list of top-level statements.
type Program struct {
	Statements []Stmt
}

// String returns all statements, one per line, useful for snapshot testing.
func (p *Program) String() string {
	var b strings.Builder
	for _, s := range p.Statements {
		b.WriteString(s.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// ── Support types ─────────────────────────────────────────────────────────────

// Param represents a single function parameter: name: type.
type Param struct {
	Name Token
	Type *TypeExpr
}

// TypeExpr represents a type annotation in the source.
//
//	num, str, bool          → Name set
//	[num]                   → Elem set
//	func(num, str) -> bool  → IsFn, FnParams, FnReturn (nil = no value)
type TypeExpr struct {
	Name     string
	Elem     *TypeExpr
	IsFn     bool
	FnParams []*TypeExpr
	FnReturn *TypeExpr
	First    Token
	Last     Token
}

func (te *TypeExpr) Start() Token { return te.First }
func (te *TypeExpr) End() Token   { return te.Last }

// String returns the annotation in source form, e.g. "[func(num) -> str]".
func (te *TypeExpr) String() string {
	switch {
	case te == nil:
		return "<none>"
	case te.Elem != nil:
		return "[" + te.Elem.String() + "]"
	case te.IsFn:
		params := make([]string, len(te.FnParams))
		for i, p := range te.FnParams {
			params[i] = p.String()
		}
		out := fmt.Sprintf("func(%s)", strings.Join(params, ", "))
		if te.FnReturn != nil {
			out += " -> " + te.FnReturn.String()
		}
		return out
	default:
		return te.Name
	}
}

// ── Statements ────────────────────────────────────────────────────────────────

// Blank is an empty statement: a lone ';'.
type Blank struct {
	Semi Token
}

func (s *Blank) stmtNode()      {}
func (s *Blank) Start() Token   { return s.Semi }
func (s *Blank) End() Token     { return s.Semi }
func (s *Blank) String() string { return ";" }

// Print writes the printed form of Value to the program output.
//
//	print x + 1;
type Print struct {
	Keyword Token
	Value   Expr
	Semi    Token
}

func (s *Print) stmtNode()      {}
func (s *Print) Start() Token   { return s.Keyword }
func (s *Print) End() Token     { return s.Semi }
func (s *Print) String() string { return fmt.Sprintf("print %s;", s.Value) }

// ExprStmt wraps an expression that appears in statement position.
type ExprStmt struct {
	Expr Expr
	Semi Token
}

func (s *ExprStmt) stmtNode()      {}
func (s *ExprStmt) Start() Token   { return s.Expr.Start() }
func (s *ExprStmt) End() Token     { return s.Semi }
func (s *ExprStmt) String() string { return s.Expr.String() + ";" }

// Let declares a binding in the current scope.
//
//	let x = 42;
//	let name: str = 'Tao';
type Let struct {
	Keyword Token
	Name    Token
	Type    *TypeExpr // optional type hint (nil = inferred)
	Value   Expr
	Semi    Token
}

func (s *Let) stmtNode()    {}
func (s *Let) Start() Token { return s.Keyword }
func (s *Let) End() Token   { return s.Semi }
func (s *Let) String() string {
	if s.Type != nil {
		return fmt.Sprintf("let %s: %s = %s;", s.Name.Literal, s.Type, s.Value)
	}
	return fmt.Sprintf("let %s = %s;", s.Name.Literal, s.Value)
}

// Block is a brace-delimited sequence of statements with its own scope.
type Block struct {
	LBrace Token
	Stmts  []Stmt
	RBrace Token
}

func (s *Block) stmtNode()    {}
func (s *Block) Start() Token { return s.LBrace }
func (s *Block) End() Token   { return s.RBrace }
func (s *Block) String() string {
	var b strings.Builder
	b.WriteString("{ ")
	for _, st := range s.Stmts {
		b.WriteString(st.String())
		b.WriteByte(' ')
	}
	b.WriteString("}")
	return b.String()
}

// If is a conditional statement. Else is nil when absent.
//
//	if x > 0 then print x; else print -x;
type If struct {
	Keyword Token
	Cond    Expr
	Then    Stmt
	Else    Stmt
}

func (s *If) stmtNode()    {}
func (s *If) Start() Token { return s.Keyword }
func (s *If) End() Token {
	if s.Else != nil {
		return s.Else.End()
	}
	return s.Then.End()
}
func (s *If) String() string {
	out := fmt.Sprintf("if %s then %s", s.Cond, s.Then)
	if s.Else != nil {
		out += " else " + s.Else.String()
	}
	return out
}

// While is a conditional loop.
//
//	while i < 10 do i = i + 1;
type While struct {
	Keyword Token
	Cond    Expr
	Body    Stmt
}

func (s *While) stmtNode()      {}
func (s *While) Start() Token   { return s.Keyword }
func (s *While) End() Token     { return s.Body.End() }
func (s *While) String() string { return fmt.Sprintf("while %s do %s", s.Cond, s.Body) }

// Break exits the nearest enclosing loop.
type Break struct {
	Keyword Token
	Semi    Token
}

func (s *Break) stmtNode()      {}
func (s *Break) Start() Token   { return s.Keyword }
func (s *Break) End() Token     { return s.Semi }
func (s *Break) String() string { return "break;" }

// Return leaves the enclosing function. Value is nil for a bare return.
type Return struct {
	Keyword Token
	Value   Expr
	Semi    Token
}

func (s *Return) stmtNode()    {}
func (s *Return) Start() Token { return s.Keyword }
func (s *Return) End() Token   { return s.Semi }
func (s *Return) String() string {
	if s.Value == nil {
		return "return;"
	}
	return fmt.Sprintf("return %s;", s.Value)
}

// ── Expressions ───────────────────────────────────────────────────────────────

// Literal is a number, string or boolean literal. Value holds the decoded
// float64, string or bool.
type Literal struct {
	Token Token
	Value any
}

func (e *Literal) exprNode()    {}
func (e *Literal) Start() Token { return e.Token }
func (e *Literal) End() Token   { return e.Token }
func (e *Literal) String() string {
	if s, ok := e.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return e.Token.Literal
}

// Grouping is a parenthesised expression.
type Grouping struct {
	LParen Token
	Inner  Expr
	RParen Token
}

func (e *Grouping) exprNode()      {}
func (e *Grouping) Start() Token   { return e.LParen }
func (e *Grouping) End() Token     { return e.RParen }
func (e *Grouping) String() string { return fmt.Sprintf("(group %s)", e.Inner) }

// Unary is a prefix expression: -x or !b.
type Unary struct {
	Op    Token
	Right Expr
}

func (e *Unary) exprNode()      {}
func (e *Unary) Start() Token   { return e.Op }
func (e *Unary) End() Token     { return e.Right.End() }
func (e *Unary) String() string { return fmt.Sprintf("(%s %s)", e.Op.Literal, e.Right) }

// Binary is an arithmetic, comparison or equality expression.
type Binary struct {
	Left  Expr
	Op    Token
	Right Expr
}

func (e *Binary) exprNode()    {}
func (e *Binary) Start() Token { return e.Left.Start() }
func (e *Binary) End() Token   { return e.Right.End() }
func (e *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op.Literal, e.Right)
}

// Logical is a short-circuiting 'and' / 'or' expression.
type Logical struct {
	Left  Expr
	Op    Token
	Right Expr
}

func (e *Logical) exprNode()    {}
func (e *Logical) Start() Token { return e.Left.Start() }
func (e *Logical) End() Token   { return e.Right.End() }
func (e *Logical) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op.Literal, e.Right)
}

// Variable is a reference to a named binding.
type Variable struct {
	Name Token
}

func (e *Variable) exprNode()      {}
func (e *Variable) Start() Token   { return e.Name }
func (e *Variable) End() Token     { return e.Name }
func (e *Variable) String() string { return e.Name.Literal }

// Assign stores Value into an existing binding.
//
//	count = count + 1
type Assign struct {
	Name  Token
	Value Expr
}

func (e *Assign) exprNode()      {}
func (e *Assign) Start() Token   { return e.Name }
func (e *Assign) End() Token     { return e.Value.End() }
func (e *Assign) String() string { return fmt.Sprintf("(%s = %s)", e.Name.Literal, e.Value) }

// Call applies a function value to arguments.
type Call struct {
	Callee Expr
	LParen Token
	Args   []Expr
	RParen Token
}

func (e *Call) exprNode()    {}
func (e *Call) Start() Token { return e.Callee.Start() }
func (e *Call) End() Token   { return e.RParen }
func (e *Call) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.Callee, strings.Join(args, ", "))
}

// FuncLit is an anonymous function literal. ReturnType is nil when the
// function returns no value.
//
//	func(x: num) -> num { return x * x; }
type FuncLit struct {
	Func       Token
	Params     []Param
	ReturnType *TypeExpr
	Body       *Block
}

func (e *FuncLit) exprNode()    {}
func (e *FuncLit) Start() Token { return e.Func }
func (e *FuncLit) End() Token   { return e.Body.End() }
func (e *FuncLit) String() string {
	params := make([]string, len(e.Params))
	for i, p := range e.Params {
		params[i] = fmt.Sprintf("%s: %s", p.Name.Literal, p.Type)
	}
	out := fmt.Sprintf("func(%s)", strings.Join(params, ", "))
	if e.ReturnType != nil {
		out += " -> " + e.ReturnType.String()
	}
	return out + " " + e.Body.String()
}

// ArrayLit is an array literal in one of two forms:
//
//	[1, 2, 3]     → Elements set, Count and Fill nil
//	[5 of 'a']    → Count and Fill set, Elements nil
type ArrayLit struct {
	LBracket Token
	Elements []Expr
	Count    Expr
	Fill     Expr
	RBracket Token
}

func (e *ArrayLit) exprNode()    {}
func (e *ArrayLit) Start() Token { return e.LBracket }
func (e *ArrayLit) End() Token   { return e.RBracket }

// IsRepeat reports whether the literal uses the `N of expr` form.
func (e *ArrayLit) IsRepeat() bool { return e.Count != nil }

func (e *ArrayLit) String() string {
	if e.IsRepeat() {
		return fmt.Sprintf("[%s of %s]", e.Count, e.Fill)
	}
	elems := make([]string, len(e.Elements))
	for i, el := range e.Elements {
		elems[i] = el.String()
	}
	return "[" + strings.Join(elems, ", ") + "]"
}

// Index reads one element of an array: arr[i].
type Index struct {
	Array    Expr
	Index    Expr
	RBracket Token
}

func (e *Index) exprNode()      {}
func (e *Index) Start() Token   { return e.Array.Start() }
func (e *Index) End() Token     { return e.RBracket }
func (e *Index) String() string { return fmt.Sprintf("%s[%s]", e.Array, e.Index) }

// IndexAssign stores Value into one element of an array: arr[i] = v.
type IndexAssign struct {
	Array Expr
	Index Expr
	Value Expr
}

func (e *IndexAssign) exprNode()    {}
func (e *IndexAssign) Start() Token { return e.Array.Start() }
func (e *IndexAssign) End() Token   { return e.Value.End() }
func (e *IndexAssign) String() string {
	return fmt.Sprintf("(%s[%s] = %s)", e.Array, e.Index, e.Value)
}
