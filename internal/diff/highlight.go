package diff

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "dracula"

// HighlightedLine is a line split into coloured tokens.
type HighlightedLine struct {
	Tokens []Token
}

// Token is a syntax-highlighted chunk of text.
type Token struct {
	Text  string
	Color string // hex colour, empty for default
}

// Plain returns the concatenated text of all tokens.
func (hl HighlightedLine) Plain() string {
	var b strings.Builder
	for _, t := range hl.Tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

// Language returns the chroma lexer name for a path, or "" when unknown.
// Renderers resolve it once per file and pass it to Highlight.
func Language(path string) string {
	lexer := lexers.Match(filepath.Base(path))
	if lexer == nil {
		if ext := filepath.Ext(path); ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer == nil {
		return ""
	}
	return lexer.Config().Name
}

// Highlight tokenises lines with the named lexer and chroma style. An empty
// or unknown language yields plain lines. The result always has exactly one
// entry per input line.
func Highlight(language string, lines []string, styleName string) []HighlightedLine {
	out := make([]HighlightedLine, len(lines))
	for i, line := range lines {
		out[i] = HighlightedLine{Tokens: []Token{{Text: line}}}
	}
	if language == "" || len(lines) == 0 {
		return out
	}
	lexer := lexers.Get(language)
	if lexer == nil {
		return out
	}

	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, strings.Join(lines, "\n"))
	if err != nil {
		return out
	}
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	for i, toks := range chroma.SplitTokensIntoLines(iterator.Tokens()) {
		if i >= len(out) {
			break
		}
		hl := HighlightedLine{}
		for _, tok := range toks {
			text := strings.TrimSuffix(tok.Value, "\n")
			if text == "" {
				continue
			}
			var color string
			if entry := style.Get(tok.Type); entry.Colour.IsSet() {
				color = entry.Colour.String()
			}
			hl.Tokens = append(hl.Tokens, Token{Text: text, Color: color})
		}
		out[i] = hl
	}
	return out
}
