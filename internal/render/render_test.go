package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/smartdiff/internal/correlate"
	"github.com/sprite-ai/smartdiff/internal/model"
)

const aDiff = `diff --git a/a.py b/a.py
index 1111111..2222222 100644
--- a/a.py
+++ b/a.py
@@ -1 +1 @@
-x=1
+x=2
`

func scores() model.ScoreSet {
	return model.ScoreSet{Readability: 8, CodeQuality: 7, BestPractices: 9, BugRisk: 2}
}

func sampleModel(raw *string) correlate.Model {
	return correlate.Correlate(raw,
		[]model.DiffPair{{Path: "a.py", OldContent: "x=1", NewContent: "x=2"}},
		[]model.FileAnalysis{{Path: "a.py", Outcome: model.Success(scores(), []string{"use list comprehension"})}},
	)
}

func strPtr(s string) *string { return &s }

func TestParseModeAndToggle(t *testing.T) {
	m, err := ParseMode("side-by-side")
	require.NoError(t, err)
	assert.Equal(t, ModeSideBySide, m)
	assert.Equal(t, ModeUnified, m.Toggle())
	assert.Equal(t, ModeSideBySide, ModeUnified.Toggle())

	_, err = ParseMode("diagonal")
	assert.Error(t, err)
}

func TestForReturnsMatchingRenderer(t *testing.T) {
	assert.Equal(t, ModeUnified, For(ModeUnified).Mode())
	assert.Equal(t, ModeSideBySide, For(ModeSideBySide).Mode())
}

func TestUnifiedSingleFile(t *testing.T) {
	v, err := Unified{}.Render(sampleModel(strPtr(aDiff)), Options{})
	require.NoError(t, err)
	require.False(t, v.Empty)
	require.Len(t, v.Sections, 1)

	sec := v.Sections[0]
	assert.Equal(t, "a.py", sec.Path)
	assert.Equal(t, "Python", sec.Language)
	require.NotNil(t, sec.File)
	require.Len(t, sec.File.Hunks, 1)
	assert.Len(t, sec.File.Hunks[0].Lines, 2)
	require.NotNil(t, sec.Annotation.Scores)
	assert.Equal(t, []string{"use list comprehension"}, sec.Annotation.Suggestions)
}

func TestSideBySideSingleFile(t *testing.T) {
	v, err := SideBySide{}.Render(sampleModel(nil), Options{})
	require.NoError(t, err)
	require.Len(t, v.Panes, 1)

	p := v.Panes[0]
	assert.Equal(t, "a.py", p.Path)
	assert.Equal(t, "Python", p.Language)
	assert.Equal(t, []string{"x=1"}, p.Old)
	assert.Equal(t, []string{"x=2"}, p.New)
	assert.False(t, p.IsNewFile)
	assert.Equal(t, []string{"use list comprehension"}, p.Annotation.Suggestions)
}

func TestDiffAbsentUnifiedEmptySideBySideRenders(t *testing.T) {
	m := sampleModel(nil)

	u, err := Unified{}.Render(m, Options{})
	require.NoError(t, err)
	assert.True(t, u.Empty)
	assert.Equal(t, reasonNoRawDiff, u.EmptyReason)

	s, err := SideBySide{}.Render(m, Options{})
	require.NoError(t, err)
	assert.False(t, s.Empty)
	assert.Len(t, s.Panes, 1)
}

func TestBlankRawDiffIsEmpty(t *testing.T) {
	v, err := Unified{}.Render(sampleModel(strPtr("  \n")), Options{})
	require.NoError(t, err)
	assert.True(t, v.Empty)
}

func TestErrorFileStillAppears(t *testing.T) {
	m := correlate.Correlate(strPtr(aDiff),
		[]model.DiffPair{{Path: "a.py", OldContent: "x=1", NewContent: "x=2"}},
		[]model.FileAnalysis{{Path: "a.py", Outcome: model.Failure("syntax error")}},
	)

	for _, mode := range []Mode{ModeUnified, ModeSideBySide} {
		v, err := For(mode).Render(m, Options{})
		require.NoError(t, err)
		require.Equal(t, 1, v.Len(), mode.String())

		var a Annotation
		if mode == ModeUnified {
			a = v.Sections[0].Annotation
			assert.NotNil(t, v.Sections[0].File)
		} else {
			a = v.Panes[0].Annotation
		}
		assert.True(t, a.Failed())
		assert.Equal(t, "syntax error", a.Error)
		assert.Nil(t, a.Scores)
	}
}

func TestSideBySideSkipsFilesWithoutDiff(t *testing.T) {
	m := correlate.Correlate(nil,
		[]model.DiffPair{{Path: "b.py", NewContent: "y"}},
		[]model.FileAnalysis{{Path: "a.py", Outcome: model.Success(scores(), nil)}},
	)
	v, err := SideBySide{}.Render(m, Options{})
	require.NoError(t, err)
	require.Len(t, v.Panes, 1)
	assert.Equal(t, "b.py", v.Panes[0].Path)
	assert.True(t, v.Panes[0].IsNewFile)
	assert.Empty(t, v.Panes[0].Old)
	assert.False(t, v.Panes[0].Annotation.Reviewed)
}

func TestUnifiedAppendsReviewedFilesMissingFromDiff(t *testing.T) {
	m := correlate.Correlate(strPtr(aDiff), nil, []model.FileAnalysis{
		{Path: "a.py", Outcome: model.Success(scores(), nil)},
		{Path: "other.py", Outcome: model.Success(scores(), []string{"x"})},
	})
	v, err := Unified{}.Render(m, Options{})
	require.NoError(t, err)
	require.Len(t, v.Sections, 2)
	assert.Equal(t, "other.py", v.Sections[1].Path)
	assert.Nil(t, v.Sections[1].File)
}

func TestUnifiedMalformedDiffErrors(t *testing.T) {
	bad := "diff --git a/a.py b/a.py\n--- a/a.py\n+++ b/a.py\n@@ -1,5 +1,5 @@\n-x\n"
	_, err := Unified{}.Render(sampleModel(&bad), Options{})
	assert.Error(t, err)
}

func TestIncludeFilter(t *testing.T) {
	m := correlate.Correlate(nil, []model.DiffPair{
		{Path: "src/a.py", NewContent: "1"},
		{Path: "docs/readme.md", NewContent: "2"},
	}, nil)

	v, err := SideBySide{}.Render(m, Options{Include: []string{"src/**/*.py"}})
	require.NoError(t, err)
	require.Len(t, v.Panes, 1)
	assert.Equal(t, "src/a.py", v.Panes[0].Path)

	_, err = SideBySide{}.Render(m, Options{Include: []string{"[unclosed"}})
	assert.Error(t, err)
}

func TestModeSwitchDoesNotMutateModel(t *testing.T) {
	m := sampleModel(strPtr(aDiff))
	before := m.Clone()

	mode := ModeUnified
	for i := 0; i < 4; i++ {
		_, err := For(mode).Render(m, Options{})
		require.NoError(t, err)
		mode = mode.Toggle()
	}
	assert.Equal(t, before, m)
}

func TestTextUnified(t *testing.T) {
	v, err := Unified{}.Render(sampleModel(strPtr(aDiff)), Options{})
	require.NoError(t, err)
	out := Text(v, 80)
	assert.Contains(t, out, "=== a.py (+1 -1)")
	assert.Contains(t, out, "-x=1\n+x=2\n")
	assert.Contains(t, out, "Readability 8/10")
	assert.Contains(t, out, "  - use list comprehension")
}

func TestTextSideBySide(t *testing.T) {
	v, err := SideBySide{}.Render(sampleModel(nil), Options{})
	require.NoError(t, err)
	out := Text(v, 40)
	assert.Contains(t, out, "=== a.py\n")
	assert.Contains(t, out, "x=1")
	assert.Contains(t, out, "| x=2")
}

func TestTextEmpty(t *testing.T) {
	out := Text(View{Mode: ModeUnified, Empty: true, EmptyReason: reasonNoRawDiff}, 80)
	assert.Equal(t, "(unified: no raw diff text)\n", out)
}
