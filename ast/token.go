// Package ast defines the token types and the Token struct used by the Ember lexer and parser.
//
// Tokens are the smallest meaningful units of an Ember source file. Every token carries its
// type, the exact literal text it was scanned from, its decoded literal value, its source
// position (line + column) and the full text of the line it sits on, so that diagnostics can
// be rendered without access to the original source.
// Position is 1-based: the first character of a file is Line 1, Col 1.
package ast

// TokenType identifies the category of a scanned token.
// The zero value (0) is reserved and not a valid token.
type TokenType int

const (
	// ── Special ────────────────────────────────────────────────────────────────

	// ILLEGAL represents a character or sequence the lexer could not recognise.
	// The lexer reports a CharacterError for it and never hands it to the parser.
	ILLEGAL TokenType = iota
	// EOF marks the end of the input stream. The parser stops when it sees EOF.
	EOF

	// ── Literals ───────────────────────────────────────────────────────────────

	// IDENT is an identifier: [a-zA-Z_][a-zA-Z0-9_]*
	IDENT
	// NUMBER is a decimal literal with an optional fraction, e.g. 0, 42, 3.14.
	// Value holds the float64.
	NUMBER
	// STRING is a single- or double-quoted literal, e.g. 'a' or "hello\n".
	// Value holds the decoded string.
	STRING

	// ── Keywords ───────────────────────────────────────────────────────────────

	// LET introduces a binding: let x: num = 42;
	LET
	// PRINT writes the printed form of a value: print x;
	PRINT
	// IF begins a conditional: if x > 0 then print x; else print 0;
	IF
	// THEN separates the condition from the consequence.
	THEN
	// ELSE introduces the alternative branch.
	ELSE
	// WHILE begins a conditional loop: while i < 10 do i = i + 1;
	WHILE
	// DO separates the loop condition from its body.
	DO
	// BREAK exits the nearest enclosing loop.
	BREAK
	// RETURN leaves the enclosing function: return; or return x;
	RETURN
	// FUNC begins a function literal or a function type.
	FUNC
	// OF separates capacity and fill value in a repeat array: [5 of 'a']
	OF
	// AND is the logical-AND operator.
	AND
	// OR is the logical-OR operator.
	OR
	// TRUE is the boolean literal true.
	TRUE
	// FALSE is the boolean literal false.
	FALSE
	// NUM is the number type name.
	NUM
	// STR is the string type name.
	STR
	// BOOL is the boolean type name.
	BOOL

	// ── Operators ──────────────────────────────────────────────────────────────

	PLUS     // +
	MINUS    // -  (binary and unary)
	ASTERISK // *
	SLASH    // /
	PERCENT  // %
	BANG     // !  (logical not)
	EQ       // ==
	NEQ      // !=
	LT       // <
	GT       // >
	LTE      // <=
	GTE      // >=
	ASSIGN   // =
	ARROW    // ->  (function return type)

	// ── Delimiters ─────────────────────────────────────────────────────────────

	LBRACE    // {
	RBRACE    // }
	LPAREN    // (
	RPAREN    // )
	LBRACKET  // [
	RBRACKET  // ]
	COMMA     // ,
	COLON     // :
	SEMICOLON // ;
)

var tokenNames = map[TokenType]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF",
	IDENT: "identifier", NUMBER: "number", STRING: "string",
	LET: "'let'", PRINT: "'print'", IF: "'if'", THEN: "'then'", ELSE: "'else'",
	WHILE: "'while'", DO: "'do'", BREAK: "'break'", RETURN: "'return'",
	FUNC: "'func'", OF: "'of'", AND: "'and'", OR: "'or'",
	TRUE: "'true'", FALSE: "'false'", NUM: "'num'", STR: "'str'", BOOL: "'bool'",
	PLUS: "'+'", MINUS: "'-'", ASTERISK: "'*'", SLASH: "'/'", PERCENT: "'%'",
	BANG: "'!'", EQ: "'=='", NEQ: "'!='", LT: "'<'", GT: "'>'", LTE: "'<='", GTE: "'>='",
	ASSIGN: "'='", ARROW: "'->'",
	LBRACE: "'{'", RBRACE: "'}'", LPAREN: "'('", RPAREN: "')'",
	LBRACKET: "'['", RBRACKET: "']'", COMMA: "','", COLON: "':'", SEMICOLON: "';'",
}

// String returns the name used for tt in parser diagnostics.
func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return "UNKNOWN"
}

// keywords maps the literal text of every Ember keyword to its TokenType.
// The lexer consults this map when it finishes scanning an identifier.
var keywords = map[string]TokenType{
	"let":    LET,
	"print":  PRINT,
	"if":     IF,
	"then":   THEN,
	"else":   ELSE,
	"while":  WHILE,
	"do":     DO,
	"break":  BREAK,
	"return": RETURN,
	"func":   FUNC,
	"of":     OF,
	"and":    AND,
	"or":     OR,
	"true":   TRUE,
	"false":  FALSE,
	"num":    NUM,
	"str":    STR,
	"bool":   BOOL,
}

// LookupIdent checks whether ident is a reserved keyword and returns the
// corresponding TokenType. If ident is not a keyword, IDENT is returned.
func LookupIdent(ident string) TokenType {
	if tt, ok := keywords[ident]; ok {
		return tt
	}
	return IDENT
}

// Token is a single lexical unit produced by the Ember lexer.
//
// Fields:
//   - Type     — the category of this token (see TokenType constants)
//   - Literal  — the exact source text that was scanned (quotes included for strings)
//   - Value    — the decoded literal: float64, string, bool, or nil
//   - Line     — 1-based source line number
//   - Col      — 1-based column of the first character of this token
//   - LineText — the full text of source line Line, without the newline
type Token struct {
	Type     TokenType
	Literal  string
	Value    any
	Line     int
	Col      int
	LineText string
}

// EndCol returns the 1-based column of the last character of the token.
// An empty token (EOF) ends where it starts.
func (t Token) EndCol() int {
	if len(t.Literal) == 0 {
		return t.Col
	}
	return t.Col + len(t.Literal) - 1
}

// String returns a human-readable representation of the token, useful for
// debugging and error messages. It does not replicate the exact Ember source.
func (t Token) String() string {
	if t.Type == EOF {
		return "end of input"
	}
	return t.Literal
}
