// Package render turns a correlated model into the data needed by either of
// two presentation modes. Renderers only read the model; switching modes never
// re-derives or mutates it.
package render

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sprite-ai/smartdiff/internal/correlate"
	"github.com/sprite-ai/smartdiff/internal/diff"
	"github.com/sprite-ai/smartdiff/internal/model"
)

// Options are view-only settings.
type Options struct {
	// Include restricts the view to paths matching any of these doublestar
	// patterns. Empty means everything.
	Include []string
}

func (o Options) validate() error {
	for _, p := range o.Include {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid include pattern %q", p)
		}
	}
	return nil
}

func (o Options) includes(path string) bool {
	if len(o.Include) == 0 {
		return true
	}
	for _, p := range o.Include {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

// Annotation is what gets shown next to a file's diff.
type Annotation struct {
	Reviewed    bool            `json:"reviewed"`
	Scores      *model.ScoreSet `json:"scores,omitempty"`
	Suggestions []string        `json:"suggestions,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Failed reports whether the file carries an error indicator.
func (a Annotation) Failed() bool { return a.Error != "" }

// Annotate derives the annotation for a correlated file. A failed analysis
// never exposes scores.
func Annotate(cf *model.CorrelatedFile) Annotation {
	if cf == nil || cf.Analysis == nil {
		return Annotation{}
	}
	a := Annotation{Reviewed: true, Suggestions: cf.Analysis.Suggestions()}
	if msg, failed := cf.Analysis.Err(); failed {
		a.Error = msg
		return a
	}
	if scores, ok := cf.Analysis.Scores(); ok {
		a.Scores = &scores
	}
	return a
}

// Section is one file of the unified view. File is nil when the file was
// reviewed but does not appear in the diff text.
type Section struct {
	Path       string                `json:"path"`
	Language   string                `json:"language,omitempty"`
	File       *diff.File            `json:"file,omitempty"`
	Correlated *model.CorrelatedFile `json:"-"`
	Annotation Annotation            `json:"annotation"`
}

// Pane is one file of the side-by-side view.
type Pane struct {
	Path       string                `json:"path"`
	Language   string                `json:"language,omitempty"`
	Old        []string              `json:"old"`
	New        []string              `json:"new"`
	IsNewFile  bool                  `json:"is_new_file"`
	Correlated *model.CorrelatedFile `json:"-"`
	Annotation Annotation            `json:"annotation"`
}

// View is the output of a Renderer. Exactly one of Sections and Panes is
// populated, matching Mode.
type View struct {
	Mode        Mode      `json:"mode"`
	Sections    []Section `json:"sections,omitempty"`
	Panes       []Pane    `json:"panes,omitempty"`
	Empty       bool      `json:"empty"`
	EmptyReason string    `json:"empty_reason,omitempty"`
}

// Len returns the number of files in the view.
func (v View) Len() int {
	if v.Mode == ModeSideBySide {
		return len(v.Panes)
	}
	return len(v.Sections)
}

// Renderer produces a View for one mode.
type Renderer interface {
	Mode() Mode
	Render(m correlate.Model, opts Options) (View, error)
}

// For returns the renderer for a mode.
func For(mode Mode) Renderer {
	if mode == ModeSideBySide {
		return SideBySide{}
	}
	return Unified{}
}

func empty(mode Mode, reason string) View {
	return View{Mode: mode, Empty: true, EmptyReason: reason}
}
