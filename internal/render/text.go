package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/sprite-ai/smartdiff/internal/model"
)

const minColumn = 10

// Text renders a view as plain text for non-interactive output. Width bounds
// the side-by-side columns; values below a usable minimum are raised.
func Text(v View, width int) string {
	var b strings.Builder
	if v.Empty {
		fmt.Fprintf(&b, "(%s: %s)\n", v.Mode, v.EmptyReason)
		return b.String()
	}

	switch v.Mode {
	case ModeSideBySide:
		for i, p := range v.Panes {
			if i > 0 {
				b.WriteString("\n")
			}
			writePane(&b, p, width)
		}
	default:
		for i, s := range v.Sections {
			if i > 0 {
				b.WriteString("\n")
			}
			writeSection(&b, s)
		}
	}
	return b.String()
}

func writeSection(b *strings.Builder, s Section) {
	if s.File == nil {
		fmt.Fprintf(b, "=== %s (not in diff)\n", s.Path)
	} else {
		fmt.Fprintf(b, "=== %s (+%d -%d)\n", s.File.Name(), s.File.AddedLines, s.File.DeletedLines)
		if s.File.IsBinary {
			b.WriteString("Binary file\n")
		}
		for _, h := range s.File.Hunks {
			b.WriteString(h.Header)
			b.WriteString("\n")
			for _, l := range h.Lines {
				b.WriteString(l.Kind.Marker())
				b.WriteString(l.Text)
				b.WriteString("\n")
			}
		}
	}
	writeAnnotation(b, s.Annotation)
}

func writePane(b *strings.Builder, p Pane, width int) {
	col := (width - 3) / 2
	if col < minColumn {
		col = minColumn
	}

	title := p.Path
	if p.IsNewFile {
		title += " (new file)"
	}
	fmt.Fprintf(b, "=== %s\n", title)
	fmt.Fprintf(b, "%s | %s\n", pad("old", col), "new")
	fmt.Fprintf(b, "%s-+-%s\n", strings.Repeat("-", col), strings.Repeat("-", col))

	n := max(len(p.Old), len(p.New))
	for i := 0; i < n; i++ {
		var left, right string
		if i < len(p.Old) {
			left = p.Old[i]
		}
		if i < len(p.New) {
			right = p.New[i]
		}
		fmt.Fprintf(b, "%s | %s\n", pad(left, col), ansi.Truncate(right, col, "…"))
	}
	writeAnnotation(b, p.Annotation)
}

func pad(s string, width int) string {
	s = ansi.Truncate(s, width, "…")
	if w := ansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

func writeAnnotation(b *strings.Builder, a Annotation) {
	if !a.Reviewed {
		return
	}
	if a.Failed() {
		fmt.Fprintf(b, "Error: %s\n", a.Error)
	} else if a.Scores != nil {
		parts := make([]string, 0, 4)
		for _, sc := range a.Scores.Labeled() {
			parts = append(parts, fmt.Sprintf("%s %d/%d", sc.Label, sc.Value, model.MaxScore))
		}
		fmt.Fprintf(b, "Scores: %s\n", strings.Join(parts, " | "))
	}
	if len(a.Suggestions) > 0 {
		b.WriteString("Suggestions:\n")
		for _, s := range a.Suggestions {
			fmt.Fprintf(b, "  - %s\n", s)
		}
	}
}
