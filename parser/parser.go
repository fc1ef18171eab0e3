// Package parser implements the Ember recursive-descent parser.
//
// The parser reads a token stream from a [lexer.Lexer] and builds an
// [ast.Program]. Expression parsing uses Pratt (top-down operator precedence)
// so that precedence rules are encoded in a small table rather than a tangle
// of grammar rules.
//
// Usage:
//
//	l := lexer.New(source)
//	p := parser.New(l)
//	prog := p.Parse()
//	if err := p.Errors().Err(); err != nil { ... }
//
// Error recovery: the parser collects errors and continues so that multiple
// problems are reported in a single pass. After an error it skips ahead
// (panic mode) until it has consumed a ';' or the next token starts a new
// statement.
package parser

import (
	"github.com/metaphox/ember-lang/ast"
	"github.com/metaphox/ember-lang/diag"
	"github.com/metaphox/ember-lang/lexer"
)

// ── Operator precedence ───────────────────────────────────────────────────────

// Precedence levels, ordered from lowest to highest.
// Each level must be strictly greater than the previous.
const (
	precLowest     = iota // 0 — starting point
	precAssign            // 1 — = (right associative)
	precOr                // 2 — or
	precAnd               // 3 — and
	precEquals            // 4 — == !=
	precComparison        // 5 — < > <= >=
	precSum               // 6 — + -
	precProduct           // 7 — * / %
	precPrefix            // 8 — -x !x
	precCall              // 9 — f(...) a[i]
)

// tokenPrecedence maps a TokenType to its infix precedence level.
// Tokens not in this map have precLowest.
var tokenPrecedence = map[ast.TokenType]int{
	ast.ASSIGN:   precAssign,
	ast.OR:       precOr,
	ast.AND:      precAnd,
	ast.EQ:       precEquals,
	ast.NEQ:      precEquals,
	ast.LT:       precComparison,
	ast.GT:       precComparison,
	ast.LTE:      precComparison,
	ast.GTE:      precComparison,
	ast.PLUS:     precSum,
	ast.MINUS:    precSum,
	ast.ASTERISK: precProduct,
	ast.SLASH:    precProduct,
	ast.PERCENT:  precProduct,
	ast.LPAREN:   precCall,
	ast.LBRACKET: precCall,
}

// ── Parser ────────────────────────────────────────────────────────────────────

// prefixParseFn parses a prefix (or standalone) expression starting with the
// current token. It returns nil after recording an error.
type prefixParseFn func() ast.Expr

// infixParseFn parses an infix expression given the already-parsed left-hand
// side. It returns nil after recording an error.
type infixParseFn func(left ast.Expr) ast.Expr

// Parser holds all state needed to parse an Ember source file.
// Create one with [New] and call [Parser.Parse].
type Parser struct {
	l      *lexer.Lexer
	cur    ast.Token // current token (the one being examined)
	peek   ast.Token // next token (one-token look-ahead)
	errors diag.List // accumulated parse errors

	// incomplete is set when an error was reported at EOF, i.e. more input
	// could have completed the program.
	incomplete bool

	prefixFns map[ast.TokenType]prefixParseFn
	infixFns  map[ast.TokenType]infixParseFn
}

// New creates a Parser that reads tokens from l.
// It primes the two-token lookahead and registers all parse functions.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:         l,
		prefixFns: make(map[ast.TokenType]prefixParseFn),
		infixFns:  make(map[ast.TokenType]infixParseFn),
	}

	// ── Prefix (nud) functions ────────────────────────────────────────────────
	p.registerPrefix(ast.IDENT, p.parseVariable)
	p.registerPrefix(ast.NUMBER, p.parseLiteral)
	p.registerPrefix(ast.STRING, p.parseLiteral)
	p.registerPrefix(ast.TRUE, p.parseLiteral)
	p.registerPrefix(ast.FALSE, p.parseLiteral)
	p.registerPrefix(ast.MINUS, p.parseUnary)
	p.registerPrefix(ast.BANG, p.parseUnary)
	p.registerPrefix(ast.LPAREN, p.parseGrouping)
	p.registerPrefix(ast.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(ast.FUNC, p.parseFuncLiteral)

	// ── Infix (led) functions ─────────────────────────────────────────────────
	for _, tt := range []ast.TokenType{
		ast.PLUS, ast.MINUS, ast.ASTERISK, ast.SLASH, ast.PERCENT,
		ast.EQ, ast.NEQ, ast.LT, ast.GT, ast.LTE, ast.GTE,
	} {
		p.registerInfix(tt, p.parseBinary)
	}
	p.registerInfix(ast.AND, p.parseLogical)
	p.registerInfix(ast.OR, p.parseLogical)
	p.registerInfix(ast.ASSIGN, p.parseAssign)
	p.registerInfix(ast.LPAREN, p.parseCall)
	p.registerInfix(ast.LBRACKET, p.parseIndex)

	// Prime the lookahead: after two advances, cur = first token, peek = second.
	p.advance()
	p.advance()

	return p
}

// ParseProgram lexes and parses src in one step. The returned error is a
// [diag.List] holding the character errors followed by the parse errors.
func ParseProgram(src string) (*ast.Program, error) {
	p := New(lexer.New(src))
	prog := p.Parse()
	return prog, p.Errors().Err()
}

// Errors returns all lexer and parser errors collected during Parse().
func (p *Parser) Errors() diag.List {
	var all diag.List
	all = append(all, p.l.Errors()...)
	return append(all, p.errors...)
}

// Incomplete reports whether parsing failed only because the input ended
// early. A REPL uses this to ask for a continuation line. Input with lexer
// errors is never incomplete: more lines cannot repair it.
func (p *Parser) Incomplete() bool {
	return p.incomplete && len(p.l.Errors()) == 0
}

// Parse builds and returns the complete AST for the input.
func (p *Parser) Parse() *ast.Program {
	prog := &ast.Program{}
	for !p.curIs(ast.EOF) {
		if s := p.parseStatement(); s != nil {
			prog.Statements = append(prog.Statements, s)
		} else {
			p.synchronize()
		}
		p.advance()
	}
	return prog
}

// ── Internal token management ─────────────────────────────────────────────────

// advance consumes one token from the lexer, shifting peek into cur.
func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

// expect checks that the peek token matches tt. If so it advances and returns
// true; otherwise it records msg at the peek token and returns false.
func (p *Parser) expect(tt ast.TokenType, msg string) bool {
	if p.peek.Type == tt {
		p.advance()
		return true
	}
	p.errorAt(p.peek, msg)
	return false
}

// curIs reports whether the current token has the given type.
func (p *Parser) curIs(tt ast.TokenType) bool { return p.cur.Type == tt }

// peekIs reports whether the peek token has the given type.
func (p *Parser) peekIs(tt ast.TokenType) bool { return p.peek.Type == tt }

// curPrec returns the precedence of the current token.
func (p *Parser) curPrec() int {
	if p, ok := tokenPrecedence[p.cur.Type]; ok {
		return p
	}
	return precLowest
}

// peekPrec returns the precedence of the peek token.
func (p *Parser) peekPrec() int {
	if p, ok := tokenPrecedence[p.peek.Type]; ok {
		return p
	}
	return precLowest
}

// errorAt records a parse error located at tok.
func (p *Parser) errorAt(tok ast.Token, msg string) {
	if tok.Type == ast.EOF {
		p.incomplete = true
		msg += " Reached end of input."
	}
	p.errors = append(p.errors, diag.AtToken(diag.PhaseSyntax, tok, "%s", msg))
}

// registerPrefix registers a prefix parse function for a token type.
func (p *Parser) registerPrefix(tt ast.TokenType, fn prefixParseFn) {
	p.prefixFns[tt] = fn
}

// registerInfix registers an infix parse function for a token type.
func (p *Parser) registerInfix(tt ast.TokenType, fn infixParseFn) {
	p.infixFns[tt] = fn
}

// startsStatement reports whether tt can only begin a new statement, or
// closes the enclosing block. These are the resynchronisation points.
func startsStatement(tt ast.TokenType) bool {
	switch tt {
	case ast.LET, ast.PRINT, ast.IF, ast.WHILE, ast.BREAK, ast.RETURN,
		ast.LBRACE, ast.RBRACE, ast.EOF:
		return true
	}
	return false
}

// synchronize discards tokens after an error until cur is a ';' or '}', or
// the peek token starts a new statement. The caller's advance then lands on
// the first token of the next statement.
func (p *Parser) synchronize() {
	for !p.curIs(ast.EOF) {
		if p.curIs(ast.SEMICOLON) || p.curIs(ast.RBRACE) || startsStatement(p.peek.Type) {
			return
		}
		p.advance()
	}
}

// ── Statement parsing ─────────────────────────────────────────────────────────

// parseStatement dispatches to the appropriate statement parser based on the
// current token. On entry cur is the first token of the statement; on a
// successful return cur is its last token. nil means an error was recorded.
func (p *Parser) parseStatement() ast.Stmt {
	switch p.cur.Type {
	case ast.SEMICOLON:
		return &ast.Blank{Semi: p.cur}
	case ast.PRINT:
		return p.parsePrintStatement()
	case ast.LET:
		return p.parseLetStatement()
	case ast.LBRACE:
		if b := p.parseBlock(); b != nil {
			return b
		}
		return nil
	case ast.IF:
		return p.parseIfStatement()
	case ast.WHILE:
		return p.parseWhileStatement()
	case ast.BREAK:
		tok := p.cur
		if !p.expect(ast.SEMICOLON, "Expected ';' after 'break'.") {
			return nil
		}
		return &ast.Break{Keyword: tok, Semi: p.cur}
	case ast.RETURN:
		return p.parseReturnStatement()
	default:
		return p.parseExpressionStatement()
	}
}

// parsePrintStatement parses `print expr;`.
func (p *Parser) parsePrintStatement() ast.Stmt {
	tok := p.cur // 'print'
	p.advance()
	value := p.parseExpression(precLowest)
	if value == nil || !p.expect(ast.SEMICOLON, "Expected ';' after value.") {
		return nil
	}
	return &ast.Print{Keyword: tok, Value: value, Semi: p.cur}
}

// parseLetStatement parses `let name [: type] = expr;`.
func (p *Parser) parseLetStatement() ast.Stmt {
	tok := p.cur // 'let'

	if !p.expect(ast.IDENT, "Expected variable name.") {
		return nil
	}
	name := p.cur

	// Optional type hint: `: type`
	var hint *ast.TypeExpr
	if p.peekIs(ast.COLON) {
		p.advance() // consume ':'
		p.advance() // move to type start
		if hint = p.parseType(); hint == nil {
			return nil
		}
	}

	if !p.expect(ast.ASSIGN, "Expected '=' after variable name.") {
		return nil
	}
	p.advance() // move past '='

	value := p.parseExpression(precLowest)
	if value == nil || !p.expect(ast.SEMICOLON, "Expected ';' after variable declaration.") {
		return nil
	}
	return &ast.Let{Keyword: tok, Name: name, Type: hint, Value: value, Semi: p.cur}
}

// parseIfStatement parses `if cond then stmt [else stmt]`.
func (p *Parser) parseIfStatement() ast.Stmt {
	tok := p.cur // 'if'
	p.advance()  // move to condition

	cond := p.parseExpression(precLowest)
	if cond == nil || !p.expect(ast.THEN, "Expected 'then' after condition.") {
		return nil
	}
	p.advance()
	then := p.parseStatement()
	if then == nil {
		return nil
	}

	var els ast.Stmt
	if p.peekIs(ast.ELSE) {
		p.advance() // consume 'else'
		p.advance() // move to else branch
		if els = p.parseStatement(); els == nil {
			return nil
		}
	}
	return &ast.If{Keyword: tok, Cond: cond, Then: then, Else: els}
}

// parseWhileStatement parses `while cond do stmt`.
func (p *Parser) parseWhileStatement() ast.Stmt {
	tok := p.cur // 'while'
	p.advance()  // move to condition

	cond := p.parseExpression(precLowest)
	if cond == nil || !p.expect(ast.DO, "Expected 'do' after condition.") {
		return nil
	}
	p.advance()
	body := p.parseStatement()
	if body == nil {
		return nil
	}
	return &ast.While{Keyword: tok, Cond: cond, Body: body}
}

// parseReturnStatement parses `return [expr];`.
func (p *Parser) parseReturnStatement() ast.Stmt {
	tok := p.cur // 'return'
	if p.peekIs(ast.SEMICOLON) {
		p.advance()
		return &ast.Return{Keyword: tok, Semi: p.cur}
	}
	p.advance()
	value := p.parseExpression(precLowest)
	if value == nil || !p.expect(ast.SEMICOLON, "Expected ';' after return value.") {
		return nil
	}
	return &ast.Return{Keyword: tok, Value: value, Semi: p.cur}
}

// parseExpressionStatement parses `expr;`.
func (p *Parser) parseExpressionStatement() ast.Stmt {
	expr := p.parseExpression(precLowest)
	if expr == nil || !p.expect(ast.SEMICOLON, "Expected ';' after expression.") {
		return nil
	}
	return &ast.ExprStmt{Expr: expr, Semi: p.cur}
}

// ── Block parsing ─────────────────────────────────────────────────────────────

// parseBlock parses a brace-delimited block `{ stmts... }`.
// The current token must be '{' on entry; on return cur = '}'.
// Errors inside the block are recorded and recovered from locally so the
// rest of the block is still checked.
func (p *Parser) parseBlock() *ast.Block {
	block := &ast.Block{LBrace: p.cur}
	failed := false
	for !p.peekIs(ast.RBRACE) && !p.peekIs(ast.EOF) {
		p.advance() // move to the first token of the next statement
		if s := p.parseStatement(); s != nil {
			block.Stmts = append(block.Stmts, s)
		} else {
			failed = true
			p.synchronize()
		}
	}
	if !p.expect(ast.RBRACE, "Expected '}' after block.") || failed {
		return nil
	}
	block.RBrace = p.cur
	return block
}

// ── Type parsing ──────────────────────────────────────────────────────────────

// parseType parses a type annotation starting at the current token.
// Handles the primitive names (num, str, bool), array types ([num]) and
// function types (func(num, str) -> bool).
// On return, cur is the last token consumed as part of the type.
func (p *Parser) parseType() *ast.TypeExpr {
	tok := p.cur
	switch tok.Type {
	case ast.NUM, ast.STR, ast.BOOL:
		return &ast.TypeExpr{Name: tok.Literal, First: tok, Last: tok}

	case ast.LBRACKET:
		p.advance() // move to element type
		elem := p.parseType()
		if elem == nil || !p.expect(ast.RBRACKET, "Expected ']' after array element type.") {
			return nil
		}
		return &ast.TypeExpr{Elem: elem, First: tok, Last: p.cur}

	case ast.FUNC:
		if !p.expect(ast.LPAREN, "Expected '(' after 'func'.") {
			return nil
		}
		te := &ast.TypeExpr{IsFn: true, First: tok}
		if p.peekIs(ast.RPAREN) {
			p.advance()
		} else {
			for {
				p.advance() // move to parameter type
				param := p.parseType()
				if param == nil {
					return nil
				}
				te.FnParams = append(te.FnParams, param)
				if !p.peekIs(ast.COMMA) {
					break
				}
				p.advance() // consume ','
			}
			if !p.expect(ast.RPAREN, "Expected ')' after parameter types.") {
				return nil
			}
		}
		te.Last = p.cur
		if p.peekIs(ast.ARROW) {
			p.advance() // consume '->'
			p.advance() // move to return type
			if te.FnReturn = p.parseType(); te.FnReturn == nil {
				return nil
			}
			te.Last = te.FnReturn.Last
		}
		return te

	default:
		p.errorAt(tok, "Expected type.")
		return nil
	}
}

// ── Expression parsing (Pratt) ────────────────────────────────────────────────

// parseExpression is the Pratt parser entry point.
// prec is the minimum binding power of operators the caller will accept.
func (p *Parser) parseExpression(prec int) ast.Expr {
	prefix := p.prefixFns[p.cur.Type]
	if prefix == nil {
		p.errorAt(p.cur, "Expected expression.")
		return nil
	}

	left := prefix()
	for left != nil && !p.peekIs(ast.EOF) && prec < p.peekPrec() {
		infix := p.infixFns[p.peek.Type]
		if infix == nil {
			return left
		}
		p.advance()
		left = infix(left)
	}
	return left
}

// ── Prefix parse functions ────────────────────────────────────────────────────

func (p *Parser) parseVariable() ast.Expr {
	return &ast.Variable{Name: p.cur}
}

// parseLiteral handles numbers, strings, true and false. The lexer has
// already decoded the value.
func (p *Parser) parseLiteral() ast.Expr {
	return &ast.Literal{Token: p.cur, Value: p.cur.Value}
}

// parseUnary handles `-expr` and `!expr`.
func (p *Parser) parseUnary() ast.Expr {
	op := p.cur
	p.advance()
	right := p.parseExpression(precPrefix)
	if right == nil {
		return nil
	}
	return &ast.Unary{Op: op, Right: right}
}

// parseGrouping handles `(expr)`.
func (p *Parser) parseGrouping() ast.Expr {
	lparen := p.cur
	p.advance() // move past '('
	inner := p.parseExpression(precLowest)
	if inner == nil || !p.expect(ast.RPAREN, "Expected ')' after expression.") {
		return nil
	}
	return &ast.Grouping{LParen: lparen, Inner: inner, RParen: p.cur}
}

// parseArrayLiteral handles both array forms:
//
//	[e1, e2, ...]   explicit elements
//	[n of e]        n copies of e
func (p *Parser) parseArrayLiteral() ast.Expr {
	lit := &ast.ArrayLit{LBracket: p.cur}
	if p.peekIs(ast.RBRACKET) {
		p.advance()
		lit.RBracket = p.cur
		return lit
	}
	p.advance() // move to first expression
	first := p.parseExpression(precLowest)
	if first == nil {
		return nil
	}

	if p.peekIs(ast.OF) {
		p.advance() // consume 'of'
		p.advance() // move to fill expression
		fill := p.parseExpression(precLowest)
		if fill == nil {
			return nil
		}
		lit.Count, lit.Fill = first, fill
	} else {
		lit.Elements = []ast.Expr{first}
		for p.peekIs(ast.COMMA) {
			p.advance() // consume ','
			p.advance() // move to next element
			el := p.parseExpression(precLowest)
			if el == nil {
				return nil
			}
			lit.Elements = append(lit.Elements, el)
		}
	}

	if !p.expect(ast.RBRACKET, "Expected ']' after array elements.") {
		return nil
	}
	lit.RBracket = p.cur
	return lit
}

// parseFuncLiteral parses an anonymous function:
//
//	func(x: num, y: num) -> num { return x + y; }
func (p *Parser) parseFuncLiteral() ast.Expr {
	fn := &ast.FuncLit{Func: p.cur}
	if !p.expect(ast.LPAREN, "Expected '(' after 'func'.") {
		return nil
	}
	if p.peekIs(ast.RPAREN) {
		p.advance()
	} else {
		for {
			if !p.expect(ast.IDENT, "Expected parameter name.") {
				return nil
			}
			name := p.cur
			if !p.expect(ast.COLON, "Expected ':' after parameter name.") {
				return nil
			}
			p.advance() // move to type
			typ := p.parseType()
			if typ == nil {
				return nil
			}
			fn.Params = append(fn.Params, ast.Param{Name: name, Type: typ})
			if !p.peekIs(ast.COMMA) {
				break
			}
			p.advance() // consume ','
		}
		if !p.expect(ast.RPAREN, "Expected ')' after parameters.") {
			return nil
		}
	}

	if p.peekIs(ast.ARROW) {
		p.advance() // consume '->'
		p.advance() // move to return type
		if fn.ReturnType = p.parseType(); fn.ReturnType == nil {
			return nil
		}
	}

	if !p.expect(ast.LBRACE, "Expected '{' before function body.") {
		return nil
	}
	if fn.Body = p.parseBlock(); fn.Body == nil {
		return nil
	}
	return fn
}

// ── Infix parse functions ─────────────────────────────────────────────────────

// parseBinary handles arithmetic, comparison and equality operators.
func (p *Parser) parseBinary(left ast.Expr) ast.Expr {
	op := p.cur
	prec := p.curPrec()
	p.advance()
	right := p.parseExpression(prec)
	if right == nil {
		return nil
	}
	return &ast.Binary{Left: left, Op: op, Right: right}
}

// parseLogical handles the short-circuiting `and` and `or`.
func (p *Parser) parseLogical(left ast.Expr) ast.Expr {
	op := p.cur
	prec := p.curPrec()
	p.advance()
	right := p.parseExpression(prec)
	if right == nil {
		return nil
	}
	return &ast.Logical{Left: left, Op: op, Right: right}
}

// parseAssign handles `target = value`. Assignment is right associative, so
// the value is parsed one level below precAssign. Only variables and array
// elements are valid targets.
func (p *Parser) parseAssign(target ast.Expr) ast.Expr {
	eq := p.cur
	p.advance()
	value := p.parseExpression(precAssign - 1)
	if value == nil {
		return nil
	}
	switch t := target.(type) {
	case *ast.Variable:
		return &ast.Assign{Name: t.Name, Value: value}
	case *ast.Index:
		return &ast.IndexAssign{Array: t.Array, Index: t.Index, Value: value}
	default:
		p.errorAt(eq, "Invalid assignment target.")
		return nil
	}
}

// parseCall handles `f(args...)` — triggered when '(' is seen in infix
// position after parsing the callee.
func (p *Parser) parseCall(callee ast.Expr) ast.Expr {
	call := &ast.Call{Callee: callee, LParen: p.cur}
	if p.peekIs(ast.RPAREN) {
		p.advance()
		call.RParen = p.cur
		return call
	}
	for {
		p.advance() // move to argument
		arg := p.parseExpression(precLowest)
		if arg == nil {
			return nil
		}
		call.Args = append(call.Args, arg)
		if !p.peekIs(ast.COMMA) {
			break
		}
		p.advance() // consume ','
	}
	if !p.expect(ast.RPAREN, "Expected ')' after arguments.") {
		return nil
	}
	call.RParen = p.cur
	return call
}

// parseIndex handles `arr[i]` — triggered when '[' is seen in infix position.
func (p *Parser) parseIndex(array ast.Expr) ast.Expr {
	p.advance() // move past '['
	index := p.parseExpression(precLowest)
	if index == nil || !p.expect(ast.RBRACKET, "Expected ']' after index.") {
		return nil
	}
	return &ast.Index{Array: array, Index: index, RBracket: p.cur}
}
