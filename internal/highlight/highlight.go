// Package highlight renders SQL text with terminal colors.
package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/matviewddl/internal/theme"
)

// Highlighter tokenises SQL text using chroma and renders it with lipgloss
// styles from a theme.
type Highlighter struct {
	lexer chroma.Lexer
}

// New creates a Highlighter that uses the PostgreSQL lexer, falling back to
// the generic SQL lexer.
func New() *Highlighter {
	l := lexers.Get("PostgreSQL")
	if l == nil {
		l = lexers.Get("SQL")
	}
	if l == nil {
		l = lexers.Fallback
	}
	return &Highlighter{lexer: chroma.Coalesce(l)}
}

// Highlight returns sql with each token styled from th. Newlines are emitted
// unstyled so multi-line statements keep their layout. A nil theme returns
// sql unchanged.
func (h *Highlighter) Highlight(sql string, th *theme.Theme) string {
	if th == nil {
		return sql
	}

	iter, err := h.lexer.Tokenise(nil, sql)
	if err != nil {
		return sql
	}

	var b strings.Builder
	b.Grow(len(sql) * 2)

	for _, tok := range iter.Tokens() {
		if tok.Value == "" {
			continue
		}
		style, ok := styleFor(tok.Type, th)
		if !ok {
			b.WriteString(tok.Value)
			continue
		}
		lines := strings.Split(tok.Value, "\n")
		for i, line := range lines {
			if line != "" {
				b.WriteString(style.Render(line))
			}
			if i < len(lines)-1 {
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

func styleFor(tt chroma.TokenType, th *theme.Theme) (lipgloss.Style, bool) {
	switch {
	// KeywordType is a Keyword subtype; give SQL types their own color.
	case tt == chroma.KeywordType:
		return th.SQLType, true
	case tt == chroma.NameFunction || tt == chroma.NameBuiltin:
		return th.SQLFunction, true
	case tt.InCategory(chroma.Keyword):
		return th.SQLKeyword, true
	case tt.InCategory(chroma.Comment):
		return th.SQLComment, true
	case tt.InSubCategory(chroma.LiteralNumber):
		return th.SQLNumber, true
	case tt.InSubCategory(chroma.LiteralString):
		return th.SQLString, true
	case tt.InCategory(chroma.Operator):
		return th.SQLOperator, true
	case tt.InCategory(chroma.Name):
		return th.SQLIdentifier, true
	default:
		return lipgloss.Style{}, false
	}
}
