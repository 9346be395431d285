// Package correlate joins per-file AI analyses with diff content.
package correlate

import "github.com/sprite-ai/smartdiff/internal/model"

// Model is the correlated view of one resolved analysis. It is built once and
// then only read.
type Model struct {
	RawDiff *string
	Files   []model.CorrelatedFile
}

// Correlate merges analyses with structured diff pairs, keyed by exact path.
//
// Files appear in analysis arrival order, followed by any diff pair whose path
// has no analysis, in pair arrival order. A path repeated within one input
// keeps its first position and its last value.
func Correlate(rawDiff *string, pairs []model.DiffPair, analyses []model.FileAnalysis) Model {
	m := Model{}
	if rawDiff != nil {
		s := *rawDiff
		m.RawDiff = &s
	}

	diffs := make(map[string]model.DiffPair, len(pairs))
	var pairOrder []string
	for _, p := range pairs {
		if _, seen := diffs[p.Path]; !seen {
			pairOrder = append(pairOrder, p.Path)
		}
		diffs[p.Path] = p
	}

	byPath := make(map[string]model.FileAnalysis, len(analyses))
	var order []string
	for _, a := range analyses {
		if _, seen := byPath[a.Path]; !seen {
			order = append(order, a.Path)
		}
		byPath[a.Path] = a
	}

	m.Files = make([]model.CorrelatedFile, 0, len(order)+len(pairOrder))
	for _, path := range order {
		a := byPath[path]
		cf := model.CorrelatedFile{Path: path, Analysis: &a}
		if d, ok := diffs[path]; ok {
			cf.Diff = &d
		}
		m.Files = append(m.Files, cf)
	}

	for _, path := range pairOrder {
		if _, reviewed := byPath[path]; reviewed {
			continue
		}
		d := diffs[path]
		m.Files = append(m.Files, model.CorrelatedFile{Path: path, Diff: &d})
	}

	return m
}

// Empty reports whether there is nothing to show.
func (m Model) Empty() bool {
	return len(m.Files) == 0 && !m.HasRawDiff()
}

// HasRawDiff reports whether unified diff text was supplied.
func (m Model) HasRawDiff() bool {
	return m.RawDiff != nil && *m.RawDiff != ""
}

// Lookup finds the correlated file for an exact path.
func (m Model) Lookup(path string) (model.CorrelatedFile, bool) {
	for _, f := range m.Files {
		if f.Path == path {
			return f, true
		}
	}
	return model.CorrelatedFile{}, false
}

// Paths returns the file paths in model order.
func (m Model) Paths() []string {
	out := make([]string, len(m.Files))
	for i, f := range m.Files {
		out[i] = f.Path
	}
	return out
}

// Clone returns a deep copy.
func (m Model) Clone() Model {
	out := Model{}
	if m.RawDiff != nil {
		s := *m.RawDiff
		out.RawDiff = &s
	}
	if m.Files != nil {
		out.Files = make([]model.CorrelatedFile, len(m.Files))
		for i, f := range m.Files {
			out.Files[i] = f.Clone()
		}
	}
	return out
}
