// Package lexer implements the Ember language lexer (tokeniser).
//
// The lexer converts an Ember source string into a flat stream of [ast.Token] values.
// Call [New] to create a lexer and then call [Lexer.NextToken] repeatedly until
// you receive a token with Type == [ast.EOF].
//
// Design notes:
//   - Single-pass, character-by-character scanning using a read position cursor.
//   - No global state; every [Lexer] is independent.
//   - Line and column numbers are tracked for every token (1-based), and every
//     token carries the full text of its source line for diagnostics.
//   - Comments (// …) are consumed silently — no token is emitted.
//   - Characters that cannot start a token are reported as
//     [diag.CharacterError] values and skipped, so scanning always continues
//     and all bad characters of a file are reported together.
package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/metaphox/ember-lang/ast"
	"github.com/metaphox/ember-lang/diag"
)

// Lexer holds all state required to tokenise a single Ember source string.
// Create one with [New]; never copy a Lexer after first use.
type Lexer struct {
	input   string   // the full source text
	lines   []string // input split on '\n', for Token.LineText
	pos     int      // current read position (index of ch)
	readPos int      // next read position (pos + 1)
	ch      byte     // current character under examination

	line int // current 1-based line number
	col  int // 1-based column of ch

	errors diag.List
}

// New creates a [Lexer] that tokenises the given input string.
// The lexer is positioned at the first character; call [Lexer.NextToken]
// immediately to begin scanning.
func New(input string) *Lexer {
	l := &Lexer{
		input: input,
		lines: strings.Split(input, "\n"),
		line:  1,
		col:   0,
	}
	l.readChar() // prime: set l.ch = input[0]
	return l
}

// Errors returns the character errors found so far.
func (l *Lexer) Errors() diag.List {
	return l.errors
}

// Tokenize scans the whole input and returns every token up to and
// including EOF, together with the batch of character errors.
func Tokenize(input string) ([]ast.Token, error) {
	l := New(input)
	var toks []ast.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == ast.EOF {
			break
		}
	}
	return toks, l.errors.Err()
}

// NextToken returns the next token from the input.
//
// Whitespace and comments are skipped before each token. When the input is
// exhausted, NextToken returns a token with Type == [ast.EOF] on every
// subsequent call.
func (l *Lexer) NextToken() ast.Token {
	for {
		l.skipWhitespaceAndComments()
		if tok, ok := l.scan(); ok {
			return tok
		}
	}
}

// scan produces one token starting at the current character. It returns
// false after reporting a character error, in which case the offending input
// has been consumed and the caller should scan again.
func (l *Lexer) scan() (ast.Token, bool) {
	startLine, startCol, start := l.line, l.col, l.pos

	var tt ast.TokenType
	switch l.ch {
	// ── End of input ────────────────────────────────────────────────────────
	case 0:
		return l.token(ast.EOF, "", nil, startLine, startCol), true

	// ── String literal ──────────────────────────────────────────────────────
	case '\'', '"':
		return l.readString()

	// ── Single-character tokens ─────────────────────────────────────────────
	case '{':
		tt = ast.LBRACE
	case '}':
		tt = ast.RBRACE
	case '(':
		tt = ast.LPAREN
	case ')':
		tt = ast.RPAREN
	case '[':
		tt = ast.LBRACKET
	case ']':
		tt = ast.RBRACKET
	case ',':
		tt = ast.COMMA
	case ':':
		tt = ast.COLON
	case ';':
		tt = ast.SEMICOLON
	case '+':
		tt = ast.PLUS
	case '*':
		tt = ast.ASTERISK
	case '/':
		tt = ast.SLASH
	case '%':
		tt = ast.PERCENT

	// ── Operators that may be one or two characters ─────────────────────────
	case '-':
		tt = l.either('>', ast.ARROW, ast.MINUS)
	case '=':
		tt = l.either('=', ast.EQ, ast.ASSIGN)
	case '!':
		tt = l.either('=', ast.NEQ, ast.BANG)
	case '<':
		tt = l.either('=', ast.LTE, ast.LT)
	case '>':
		tt = l.either('=', ast.GTE, ast.GT)

	// ── Identifiers, keywords and numbers ───────────────────────────────────
	default:
		if isLetter(l.ch) {
			return l.readIdentifier(), true
		}
		if isDigit(l.ch) {
			return l.readNumber(), true
		}
		l.report(startLine, startCol, string(l.ch), "Unexpected character '%c'.", l.ch)
		l.readChar()
		return ast.Token{}, false
	}

	l.readChar() // advance past the last character of this token
	return l.token(tt, l.input[start:l.pos], nil, startLine, startCol), true
}

// ── Internal helpers ──────────────────────────────────────────────────────────

// readChar advances the lexer by one character.
// When the input is exhausted l.ch is set to 0 (the null byte sentinel for EOF).
// Line and column counters are updated here; col is 1-based.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.col++
}

// peekChar returns the next character without consuming it.
// Returns 0 when the end of input has been reached.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// either consumes next and returns two when the character after the current
// one is next; otherwise it returns one and leaves the cursor in place.
func (l *Lexer) either(next byte, two, one ast.TokenType) ast.TokenType {
	if l.peekChar() == next {
		l.readChar()
		return two
	}
	return one
}

// token builds a token positioned at line/col.
func (l *Lexer) token(tt ast.TokenType, literal string, value any, line, col int) ast.Token {
	return ast.Token{
		Type:     tt,
		Literal:  literal,
		Value:    value,
		Line:     line,
		Col:      col,
		LineText: l.lineText(line),
	}
}

func (l *Lexer) lineText(line int) string {
	if line < 1 || line > len(l.lines) {
		return ""
	}
	return strings.TrimRight(l.lines[line-1], "\r")
}

func (l *Lexer) report(line, col int, char string, format string, args ...any) {
	l.errors = append(l.errors, &diag.CharacterError{
		Char:     char,
		Line:     line,
		Col:      col,
		LineText: l.lineText(line),
		Msg:      fmt.Sprintf(format, args...),
	})
}

// skipWhitespaceAndComments advances past all whitespace characters and any
// line comments (// … \n) before the next meaningful token.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch l.ch {
		case ' ', '\t', '\r', '\n':
			l.readChar()
		case '/':
			if l.peekChar() != '/' {
				return // lone '/' is the division operator
			}
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		default:
			return
		}
	}
}

// readIdentifier scans an identifier or keyword starting at the current position.
// The cursor is left on the first non-identifier character.
func (l *Lexer) readIdentifier() ast.Token {
	startLine, startCol, start := l.line, l.col, l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	literal := l.input[start:l.pos]
	tt := ast.LookupIdent(literal)
	var value any
	switch tt {
	case ast.TRUE:
		value = true
	case ast.FALSE:
		value = false
	}
	return l.token(tt, literal, value, startLine, startCol)
}

// readNumber scans a decimal literal with an optional fraction. A trailing
// '.' without digits after it is not part of the number.
func (l *Lexer) readNumber() ast.Token {
	startLine, startCol, start := l.line, l.col, l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // consume '.'
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	literal := l.input[start:l.pos]
	// A run of digits with at most one '.' always parses.
	value, _ := strconv.ParseFloat(literal, 64)
	return l.token(ast.NUMBER, literal, value, startLine, startCol)
}

// readString scans a string literal delimited by the current quote
// character, which may be ' or ".
//
// Recognised escape sequences: \n  \t  \\  \'  \"
// Any other backslash sequence is kept as-is (backslash + character).
//
// A string not closed before a newline or EOF is reported as a character
// error at its opening quote; the scanned text is discarded.
func (l *Lexer) readString() (ast.Token, bool) {
	startLine, startCol, start := l.line, l.col, l.pos
	quote := l.ch
	l.readChar() // skip opening quote

	var buf []byte
	for {
		switch l.ch {
		case quote:
			l.readChar() // consume closing quote
			return l.token(ast.STRING, l.input[start:l.pos], string(buf), startLine, startCol), true

		case '\\':
			l.readChar() // now l.ch is the escaped character
			switch l.ch {
			case 'n':
				buf = append(buf, '\n')
			case 't':
				buf = append(buf, '\t')
			case '\\', '\'', '"':
				buf = append(buf, l.ch)
			case '\n', 0:
				continue // reported as unterminated below
			default:
				buf = append(buf, '\\', l.ch)
			}
			l.readChar()

		case '\n', 0:
			l.report(startLine, startCol, string(quote), "Unterminated string.")
			return ast.Token{}, false

		default:
			buf = append(buf, l.ch)
			l.readChar()
		}
	}
}

// isLetter reports whether b is a valid identifier-start or identifier-continue
// character. Ember identifiers follow the pattern [a-zA-Z_][a-zA-Z0-9_]*.
func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		b == '_'
}

// isDigit reports whether b is an ASCII decimal digit (0–9).
func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
