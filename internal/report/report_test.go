package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/smartdiff/internal/client"
	"github.com/sprite-ai/smartdiff/internal/model"
	"github.com/sprite-ai/smartdiff/internal/session"
)

var exportTime = time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

type stubAnalyzer struct {
	snippet model.FileAnalysis
	repo    client.RepositoryResult
	commit  client.CommitDiffResult
}

func (s stubAnalyzer) ReviewSnippet(context.Context, string) (model.FileAnalysis, error) {
	return s.snippet, nil
}

func (s stubAnalyzer) ReviewRepository(context.Context, string) (client.RepositoryResult, error) {
	return s.repo, nil
}

func (s stubAnalyzer) ReviewCommitDiff(context.Context, string) (client.CommitDiffResult, error) {
	return s.commit, nil
}

func resolve(t *testing.T, a session.Analyzer, req model.Request) session.Session {
	t.Helper()
	s := session.New().Dispatch(context.Background(), a, req)
	require.Equal(t, session.Resolved, s.Status, s.Err)
	return s
}

func fullScores() model.ScoreSet {
	return model.ScoreSet{Readability: 8, CodeQuality: 7, BestPractices: 9, BugRisk: 2}
}

func TestExportSnippetRoundTrip(t *testing.T) {
	suggestions := []string{"use list comprehension", "add type hints", "rename x to count"}
	s := resolve(t, stubAnalyzer{snippet: model.FileAnalysis{Outcome: model.Success(fullScores(), suggestions)}}, model.SnippetRequest("x=1"))

	doc, err := Export(s, exportTime)
	require.NoError(t, err)
	assert.Equal(t, SnippetFile, doc.Name)

	want := "# Code Review Report\n\n" +
		"**Readability:** 8/10  \n" +
		"**Code Quality:** 7/10  \n" +
		"**Best Practices:** 9/10  \n" +
		"**Bug Risk:** 2/10  \n\n" +
		"## Suggestions\n" +
		"- use list comprehension\n" +
		"- add type hints\n" +
		"- rename x to count\n"
	assert.Equal(t, want, doc.Content)
}

func TestExportRepositoryMixed(t *testing.T) {
	s := resolve(t, stubAnalyzer{repo: client.RepositoryResult{Files: []model.FileAnalysis{
		{Path: "bad.py", Outcome: model.Failure("syntax error")},
		{Path: "good.py", Outcome: model.Success(fullScores(), []string{"a"})},
		{Path: "quiet.py", Outcome: model.Success(fullScores(), nil)},
	}}}, model.RepoRequest("https://github.com/u/r"))

	doc, err := Export(s, exportTime)
	require.NoError(t, err)
	assert.Equal(t, RepositoryFile, doc.Name)

	sections := strings.Split(doc.Content, sectionSeparator)
	require.Len(t, sections, 3)
	assert.Equal(t, "## bad.py\n**Error:** syntax error", sections[0])
	assert.Contains(t, sections[1], "**Readability:** 8/10")
	assert.Contains(t, sections[1], "### Suggestions\n- a")
	assert.NotContains(t, sections[2], "Suggestions")
	assert.NotContains(t, sections[0], "Readability")
}

func TestExportCommitDiff(t *testing.T) {
	s := resolve(t, stubAnalyzer{commit: client.CommitDiffResult{Files: []client.CommitFile{
		{Analysis: model.FileAnalysis{Path: "a.py", Outcome: model.Success(fullScores(), []string{"s1", "s2"})}},
		{Analysis: model.FileAnalysis{Path: "b.py", Outcome: model.Success(fullScores(), nil)}},
		{Analysis: model.FileAnalysis{Path: "c.py", Outcome: model.Failure("fetch failed")}},
	}}}, model.CommitDiffRequest("https://github.com/u/r"))

	doc, err := Export(s, exportTime)
	require.NoError(t, err)
	assert.Equal(t, CommitDiffFile, doc.Name)

	want := "# Smart Diff Review Report\n" +
		"Repository: https://github.com/u/r\n" +
		"Date: 2024-05-01T12:30:00Z\n\n---\n" +
		"## a.py\n\n**Suggestions:**\n- s1\n- s2" +
		sectionSeparator +
		"## b.py\n\n_No suggestions._" +
		sectionSeparator +
		"## c.py\n\n**Error:** fetch failed\n\n_No suggestions._\n"
	assert.Equal(t, want, doc.Content)
}

func TestExportIdleFails(t *testing.T) {
	_, err := Export(session.New().Snapshot(), exportTime)
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestExportPendingAndFailedFail(t *testing.T) {
	m := session.New()
	op := m.Start(context.Background(), model.RepoRequest("u"))
	_, err := Export(m.Snapshot(), exportTime)
	assert.ErrorIs(t, err, ErrNothingToExport)

	m.Resolve(op.Generation, session.Result{Err: assert.AnError})
	_, err = Export(m.Snapshot(), exportTime)
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestExportResolvedWithNoFilesFails(t *testing.T) {
	s := resolve(t, stubAnalyzer{}, model.RepoRequest("u"))
	_, err := Export(s, exportTime)
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestExportDeterministic(t *testing.T) {
	a := stubAnalyzer{repo: client.RepositoryResult{Files: []model.FileAnalysis{
		{Path: "z.py", Outcome: model.Success(fullScores(), []string{"1"})},
		{Path: "a.py", Outcome: model.Failure("x")},
	}}}
	first, err := Export(resolve(t, a, model.RepoRequest("u")), exportTime)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Export(resolve(t, a, model.RepoRequest("u")), exportTime)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Less(t, strings.Index(first.Content, "z.py"), strings.Index(first.Content, "a.py"))
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path, err := WriteFile(dir, Document{Name: RepositoryFile, Content: "# hi\n"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, RepositoryFile), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# hi\n", string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file should be gone")
}

func TestPreview(t *testing.T) {
	out, err := Preview(Document{Name: SnippetFile, Content: "# Code Review Report\n\n- item\n"}, 60)
	require.NoError(t, err)
	plain := ansi.Strip(out)
	assert.Contains(t, plain, "Code Review Report")
	assert.Contains(t, plain, "item")
}
