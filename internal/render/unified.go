package render

import (
	"fmt"
	"strings"

	"github.com/sprite-ai/smartdiff/internal/correlate"
	"github.com/sprite-ai/smartdiff/internal/diff"
)

const reasonNoRawDiff = "no raw diff text"

// Unified renders the whole raw diff as one document, attaching each file's
// annotation by matching the diff header path to the model path.
type Unified struct{}

func (Unified) Mode() Mode { return ModeUnified }

func (Unified) Render(m correlate.Model, opts Options) (View, error) {
	if err := opts.validate(); err != nil {
		return View{}, err
	}
	if m.RawDiff == nil || strings.TrimSpace(*m.RawDiff) == "" {
		return empty(ModeUnified, reasonNoRawDiff), nil
	}

	set, err := diff.Parse(*m.RawDiff)
	if err != nil {
		return View{}, fmt.Errorf("unified view: %w", err)
	}

	v := View{Mode: ModeUnified}
	inDiff := make(map[string]bool, len(set.Files))
	for _, f := range set.Files {
		path := f.Path()
		inDiff[path] = true
		if !opts.includes(path) {
			continue
		}
		sec := Section{Path: path, Language: diff.Language(path), File: f}
		if cf, ok := m.Lookup(path); ok {
			sec.Correlated = &cf
			sec.Annotation = Annotate(&cf)
		}
		v.Sections = append(v.Sections, sec)
	}

	// Reviewed files the diff text does not mention still get their annotation.
	for _, cf := range m.Files {
		if inDiff[cf.Path] || !cf.HasAnalysis() || !opts.includes(cf.Path) {
			continue
		}
		v.Sections = append(v.Sections, Section{Path: cf.Path, Language: diff.Language(cf.Path), Correlated: &cf, Annotation: Annotate(&cf)})
	}

	if len(v.Sections) == 0 {
		v.Empty = true
		v.EmptyReason = "no files match"
	}
	return v, nil
}
