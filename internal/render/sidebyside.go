package render

import (
	"github.com/sprite-ai/smartdiff/internal/correlate"
	"github.com/sprite-ai/smartdiff/internal/diff"
)

// SideBySide renders each file's before/after pair in model order. Files
// without a diff pair are skipped.
type SideBySide struct{}

func (SideBySide) Mode() Mode { return ModeSideBySide }

func (SideBySide) Render(m correlate.Model, opts Options) (View, error) {
	if err := opts.validate(); err != nil {
		return View{}, err
	}

	v := View{Mode: ModeSideBySide}
	for _, cf := range m.Files {
		if !cf.HasDiff() || !opts.includes(cf.Path) {
			continue
		}
		v.Panes = append(v.Panes, Pane{
			Path:       cf.Path,
			Language:   diff.Language(cf.Path),
			Old:        diff.SplitLines(cf.Diff.OldContent),
			New:        diff.SplitLines(cf.Diff.NewContent),
			IsNewFile:  cf.Diff.IsNewFile(),
			Correlated: &cf,
			Annotation: Annotate(&cf),
		})
	}

	if len(v.Panes) == 0 {
		reason := "no diff pairs"
		if len(m.Files) > 0 && len(opts.Include) > 0 {
			reason = "no files match"
		}
		return empty(ModeSideBySide, reason), nil
	}
	return v, nil
}
