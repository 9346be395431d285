// Package report serializes a resolved session into a Markdown document.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sprite-ai/smartdiff/internal/model"
	"github.com/sprite-ai/smartdiff/internal/session"
)

// ErrNothingToExport is returned when the session holds no resolved results.
var ErrNothingToExport = errors.New("nothing to export")

// File names per request kind.
const (
	SnippetFile    = "snippet-review.md"
	RepositoryFile = "repo-review.md"
	CommitDiffFile = "smart-diff-review.md"
)

const sectionSeparator = "\n\n---\n\n"

// Document is a complete export.
type Document struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// FileName returns the export file name for a request kind.
func FileName(kind model.RequestKind) string {
	switch kind {
	case model.KindRepository:
		return RepositoryFile
	case model.KindCommitDiff:
		return CommitDiffFile
	default:
		return SnippetFile
	}
}

// Export renders the session. The output depends only on the session content
// and now; files are written in session order. now is used only by the
// commit-diff header.
func Export(s session.Session, now time.Time) (Document, error) {
	kind, started := s.Kind()
	if !started || s.Status != session.Resolved {
		return Document{}, fmt.Errorf("%w: session is %s", ErrNothingToExport, s.Status)
	}

	var buf bytes.Buffer
	switch kind {
	case model.KindSnippet:
		if s.Snippet == nil {
			return Document{}, fmt.Errorf("%w: no snippet analysis", ErrNothingToExport)
		}
		writeSnippet(&buf, *s.Snippet)
	case model.KindRepository:
		files := analysed(s.Files)
		if len(files) == 0 {
			return Document{}, fmt.Errorf("%w: no files", ErrNothingToExport)
		}
		writeRepository(&buf, files)
	case model.KindCommitDiff:
		files := analysed(s.Files)
		if len(files) == 0 {
			return Document{}, fmt.Errorf("%w: no files", ErrNothingToExport)
		}
		writeCommitDiff(&buf, s.Request.RepositoryURL, now, files)
	default:
		return Document{}, fmt.Errorf("%w: unknown request kind", ErrNothingToExport)
	}

	return Document{Name: FileName(kind), Content: buf.String()}, nil
}

func analysed(files []model.CorrelatedFile) []model.FileAnalysis {
	var out []model.FileAnalysis
	for _, f := range files {
		if f.Analysis != nil {
			out = append(out, *f.Analysis)
		}
	}
	return out
}

func writeScores(buf *bytes.Buffer, scores model.ScoreSet) {
	lines := make([]string, 0, 4)
	for _, sc := range scores.Labeled() {
		// two trailing spaces force a Markdown line break
		lines = append(lines, fmt.Sprintf("**%s:** %d/%d  ", sc.Label, sc.Value, model.MaxScore))
	}
	buf.WriteString(strings.Join(lines, "\n"))
}

func writeBullets(buf *bytes.Buffer, items []string) {
	for i, s := range items {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString("- ")
		buf.WriteString(s)
	}
}

func writeSnippet(buf *bytes.Buffer, fa model.FileAnalysis) {
	buf.WriteString("# Code Review Report\n\n")
	if msg, failed := fa.Err(); failed {
		fmt.Fprintf(buf, "**Error:** %s\n", msg)
		return
	}
	scores, _ := fa.Scores()
	writeScores(buf, scores)
	buf.WriteString("\n\n## Suggestions\n")
	writeBullets(buf, fa.Suggestions())
	buf.WriteString("\n")
}

func writeRepository(buf *bytes.Buffer, files []model.FileAnalysis) {
	for i, fa := range files {
		if i > 0 {
			buf.WriteString(sectionSeparator)
		}
		fmt.Fprintf(buf, "## %s\n", fa.Path)
		if msg, failed := fa.Err(); failed {
			fmt.Fprintf(buf, "**Error:** %s", msg)
			continue
		}
		scores, _ := fa.Scores()
		writeScores(buf, scores)
		if sugg := fa.Suggestions(); len(sugg) > 0 {
			buf.WriteString("\n\n### Suggestions\n")
			writeBullets(buf, sugg)
		}
	}
	buf.WriteString("\n")
}

func writeCommitDiff(buf *bytes.Buffer, repoURL string, now time.Time, files []model.FileAnalysis) {
	fmt.Fprintf(buf, "# Smart Diff Review Report\nRepository: %s\nDate: %s\n\n---\n", repoURL, now.UTC().Format(time.RFC3339))
	for i, fa := range files {
		if i > 0 {
			buf.WriteString(sectionSeparator)
		}
		fmt.Fprintf(buf, "## %s\n\n", fa.Path)
		if msg, failed := fa.Err(); failed {
			fmt.Fprintf(buf, "**Error:** %s\n\n", msg)
		}
		if sugg := fa.Suggestions(); len(sugg) > 0 {
			buf.WriteString("**Suggestions:**\n")
			writeBullets(buf, sugg)
		} else {
			buf.WriteString("_No suggestions._")
		}
	}
	buf.WriteString("\n")
}

// WriteFile writes the document into dir. The content goes to a temporary
// file first and is renamed into place, so a failed write leaves no partial
// document behind.
func WriteFile(dir string, doc Document) (string, error) {
	if doc.Name == "" {
		return "", errors.New("document has no name")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+doc.Name+".*")
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(doc.Content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}

	path := filepath.Join(dir, doc.Name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}
