package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/sprite-ai/smartdiff/internal/diff"
	"github.com/sprite-ai/smartdiff/internal/model"
	"github.com/sprite-ai/smartdiff/internal/render"
)

func fmtScore(v int) string {
	return fmt.Sprintf("%d/%d", v, model.MaxScore)
}

func lineNum(n int) string {
	if n <= 0 {
		return lineNumberStyle.Render("")
	}
	return lineNumberStyle.Render(fmt.Sprintf("%d", n))
}

// highlightTokens renders tokens with their syntax colours.
func highlightTokens(hl diff.HighlightedLine) string {
	var b strings.Builder
	for _, tok := range hl.Tokens {
		if tok.Color != "" {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(tok.Color)).Render(tok.Text))
		} else {
			b.WriteString(tok.Text)
		}
	}
	return b.String()
}

// sectionLines renders one unified-mode file.
func sectionLines(sec render.Section, width int, style string) []string {
	var lines []string
	if sec.File == nil {
		lines = append(lines, emptyStyle.Render("not present in the diff text"))
		return append(lines, annotationLines(sec.Annotation, width)...)
	}
	if sec.File.IsBinary {
		lines = append(lines, emptyStyle.Render("binary file"))
	}

	var content []string
	for _, h := range sec.File.Hunks {
		for _, l := range h.Lines {
			content = append(content, l.Text)
		}
	}
	highlighted := diff.Highlight(sec.Language, content, style)

	maxContent := width - 11
	idx := 0
	for i, h := range sec.File.Hunks {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, hunkHeaderStyle.Render(ansi.Truncate(h.Header, width, "…")))
		for _, l := range h.Lines {
			nums := lineNum(l.OldNum) + " " + lineNum(l.NewNum) + " "
			var body string
			switch l.Kind {
			case diff.Added:
				body = addedLineStyle.Render(ansi.Truncate("+"+l.Text, maxContent, "…"))
			case diff.Deleted:
				body = deletedLineStyle.Render(ansi.Truncate("-"+l.Text, maxContent, "…"))
			default:
				body = ansi.Truncate(" "+highlightTokens(highlighted[idx]), maxContent, "…")
			}
			idx++
			lines = append(lines, nums+body)
		}
	}
	lines = append(lines, "")
	return append(lines, annotationLines(sec.Annotation, width)...)
}

// paneLines renders one side-by-side file as two highlighted columns.
func paneLines(p render.Pane, width int, style string) []string {
	half := (width - 3) / 2
	if half < 10 {
		half = 10
	}
	maxContent := half - 5

	old := diff.Highlight(p.Language, p.Old, style)
	cur := diff.Highlight(p.Language, p.New, style)

	oldTitle := "old"
	if p.IsNewFile {
		oldTitle = "old (new file)"
	}
	lines := []string{
		fitWidth(paneTitleStyle.Render(oldTitle), half) + " │ " + paneTitleStyle.Render("new"),
	}

	n := max(len(old), len(cur))
	for i := 0; i < n; i++ {
		var left, right string
		if i < len(old) {
			left = lineNum(i+1) + " " + ansi.Truncate(highlightTokens(old[i]), maxContent, "…")
		}
		if i < len(cur) {
			right = lineNum(i+1) + " " + ansi.Truncate(highlightTokens(cur[i]), maxContent, "…")
		}
		lines = append(lines, fitWidth(left, half)+" │ "+right)
	}
	lines = append(lines, "")
	return append(lines, annotationLines(p.Annotation, width)...)
}

func fitWidth(s string, width int) string {
	s = ansi.Truncate(s, width, "")
	if w := ansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

// annotationLines renders scores or the error indicator, then suggestions.
func annotationLines(a render.Annotation, width int) []string {
	if !a.Reviewed {
		return []string{emptyStyle.Render("not reviewed")}
	}
	var lines []string
	switch {
	case a.Failed():
		lines = append(lines, errorStyle.Render("Error: ")+ansi.Truncate(a.Error, width-7, "…"))
	case a.Scores != nil:
		lines = append(lines, scoreLine(*a.Scores))
	}
	if len(a.Suggestions) == 0 {
		if !a.Failed() {
			lines = append(lines, emptyStyle.Render("No suggestions."))
		}
		return lines
	}
	lines = append(lines, "", fileHeaderStyle.Render("Suggestions"))
	for _, s := range a.Suggestions {
		for i, wrapped := range strings.Split(ansi.Wordwrap(s, width-4, ""), "\n") {
			prefix := "  • "
			if i > 0 {
				prefix = "    "
			}
			lines = append(lines, prefix+suggestionStyle.Render(wrapped))
		}
	}
	return lines
}

func scoreLine(s model.ScoreSet) string {
	parts := make([]string, 0, 4)
	for _, sc := range s.Labeled() {
		parts = append(parts, scoreBadge(sc.Label, sc.Value))
	}
	return strings.Join(parts, "   ")
}

// snippetLines renders the result of a snippet review.
func snippetLines(fa model.FileAnalysis, width int) []string {
	a := render.Annotate(&model.CorrelatedFile{Analysis: &fa})
	return append([]string{fileHeaderStyle.Render("Snippet review"), ""}, annotationLines(a, width)...)
}
