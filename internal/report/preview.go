package report

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// Preview renders the document as styled terminal output.
func Preview(doc Document, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(doc.Content)
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", doc.Name, err)
	}
	return out, nil
}
