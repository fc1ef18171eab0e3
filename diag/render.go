package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/metaphox/ember-lang/ast"
)

// Render formats err as a human-readable report. Errors from the taxonomy
// get a header and an annotated snippet; a List renders each member and
// separates them with a blank line; anything else is returned verbatim.
//
//	Type error at 1:5: Expected 'num', got 'bool'.
//	   1 | let a: num = true;
//	     |     ^^^^^^^^^^^^^^
func Render(err error) string {
	if err == nil {
		return ""
	}
	var l List
	if errors.As(err, &l) {
		parts := make([]string, len(l))
		for i, e := range l {
			parts[i] = Render(e)
		}
		return strings.Join(parts, "\n")
	}

	var (
		ce *CharacterError
		te *TokenError
		re *RangeError
		ie *ImplementationError
	)
	switch {
	case errors.As(err, &ce):
		var b strings.Builder
		fmt.Fprintf(&b, "Syntax error at %d:%d: %s\n", ce.Line, ce.Col, ce.Msg)
		writeUnderline(&b, ce.Line, ce.LineText, ce.Col, ce.Col)
		return b.String()
	case errors.As(err, &te):
		var b strings.Builder
		fmt.Fprintf(&b, "%s error at %d:%d: %s\n", te.Phase, te.Token.Line, te.Token.Col, te.Msg)
		writeUnderline(&b, te.Token.Line, te.Token.LineText, te.Token.Col, te.Token.EndCol())
		return b.String()
	case errors.As(err, &re):
		var b strings.Builder
		fmt.Fprintf(&b, "%s error at %d:%d: %s\n", re.Phase, re.First.Line, re.First.Col, re.Msg)
		writeRange(&b, re.First, re.Last)
		return b.String()
	case errors.As(err, &ie):
		return "Fatal " + ie.Error() + "\n"
	default:
		return err.Error() + "\n"
	}
}

// writeRange underlines the span from the first character of first to the
// last character of last. Three layouts are produced:
//
//	same line         one underline
//	adjacent lines    both lines, each underlined up to the span boundary
//	further apart     first and last line, middle replaced by "..."
func writeRange(b *strings.Builder, first, last ast.Token) {
	if last.Line <= first.Line {
		writeUnderline(b, first.Line, first.LineText, first.Col, last.EndCol())
		return
	}
	writeUnderline(b, first.Line, first.LineText, first.Col, len(first.LineText))
	if last.Line > first.Line+1 {
		b.WriteString("   ...\n")
	}
	writeUnderline(b, last.Line, last.LineText, firstNonSpace(last.LineText), last.EndCol())
}

// writeUnderline writes one numbered source line followed by a caret row
// covering columns from..to (1-based, inclusive).
func writeUnderline(b *strings.Builder, line int, text string, from, to int) {
	if from < 1 {
		from = 1
	}
	if to < from {
		to = from
	}
	fmt.Fprintf(b, "%4d | %s\n", line, text)
	fmt.Fprintf(b, "     | %s%s\n", strings.Repeat(" ", from-1), strings.Repeat("^", to-from+1))
}

func firstNonSpace(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' && s[i] != '\t' {
			return i + 1
		}
	}
	return 1
}
