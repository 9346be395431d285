// Package model defines the core data types shared across smartdiff.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// RequestKind identifies which of the three analysis flows a request belongs to.
type RequestKind int

const (
	KindSnippet RequestKind = iota
	KindRepository
	KindCommitDiff
)

func (k RequestKind) String() string {
	switch k {
	case KindSnippet:
		return "snippet"
	case KindRepository:
		return "repo"
	case KindCommitDiff:
		return "commit-diff"
	default:
		return "unknown"
	}
}

// ParseRequestKind maps the String() form (and a few aliases) back to a RequestKind.
func ParseRequestKind(s string) (RequestKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "snippet", "code":
		return KindSnippet, nil
	case "repo", "repository":
		return KindRepository, nil
	case "commit-diff", "commit", "smart-diff":
		return KindCommitDiff, nil
	default:
		return 0, fmt.Errorf("unknown request kind %q", s)
	}
}

// Request is the tagged union of analysis requests. Only the field matching
// Kind is meaningful: Code for snippets, RepositoryURL for the other two.
type Request struct {
	Kind          RequestKind
	Code          string
	RepositoryURL string
}

// SnippetRequest builds a snippet review request.
func SnippetRequest(code string) Request {
	return Request{Kind: KindSnippet, Code: code}
}

// RepoRequest builds a whole-repository review request.
func RepoRequest(url string) Request {
	return Request{Kind: KindRepository, RepositoryURL: url}
}

// CommitDiffRequest builds a commit-diff review request.
func CommitDiffRequest(url string) Request {
	return Request{Kind: KindCommitDiff, RepositoryURL: url}
}

// Validate checks that the payload for the request kind is present.
func (r Request) Validate() error {
	switch r.Kind {
	case KindSnippet:
		if strings.TrimSpace(r.Code) == "" {
			return errors.New("snippet request requires code")
		}
	case KindRepository, KindCommitDiff:
		if strings.TrimSpace(r.RepositoryURL) == "" {
			return fmt.Errorf("%s request requires a repository url", r.Kind)
		}
	default:
		return fmt.Errorf("unknown request kind %d", int(r.Kind))
	}
	return nil
}

// Target returns the human-facing subject of the request.
func (r Request) Target() string {
	if r.Kind == KindSnippet {
		return "snippet"
	}
	return r.RepositoryURL
}

// Score bounds.
const (
	MinScore = 0
	MaxScore = 10
)

// ScoreSet holds the four AI scores for one piece of code.
type ScoreSet struct {
	Readability   int `json:"readability_score"`
	CodeQuality   int `json:"code_quality_score"`
	BestPractices int `json:"best_practices_score"`
	BugRisk       int `json:"bug_risk_score"`
}

// NewScoreSet returns a ScoreSet, rejecting any value outside [MinScore, MaxScore].
func NewScoreSet(readability, codeQuality, bestPractices, bugRisk int) (ScoreSet, error) {
	s := ScoreSet{
		Readability:   readability,
		CodeQuality:   codeQuality,
		BestPractices: bestPractices,
		BugRisk:       bugRisk,
	}
	for _, sc := range s.Labeled() {
		if sc.Value < MinScore || sc.Value > MaxScore {
			return ScoreSet{}, fmt.Errorf("%s score %d out of range [%d,%d]", sc.Label, sc.Value, MinScore, MaxScore)
		}
	}
	return s, nil
}

// LabeledScore pairs a score with its display label.
type LabeledScore struct {
	Label string
	Value int
}

// Labeled returns the scores in their canonical display order.
func (s ScoreSet) Labeled() []LabeledScore {
	return []LabeledScore{
		{Label: "Readability", Value: s.Readability},
		{Label: "Code Quality", Value: s.CodeQuality},
		{Label: "Best Practices", Value: s.BestPractices},
		{Label: "Bug Risk", Value: s.BugRisk},
	}
}

// ScoreBand buckets a score for colouring.
type ScoreBand int

const (
	BandPoor ScoreBand = iota
	BandFair
	BandGood
)

func (b ScoreBand) String() string {
	switch b {
	case BandPoor:
		return "poor"
	case BandFair:
		return "fair"
	case BandGood:
		return "good"
	default:
		return "unknown"
	}
}

// BandFor returns the band for a score: 8 and up is good, 5 and up is fair.
func BandFor(score int) ScoreBand {
	switch {
	case score >= 8:
		return BandGood
	case score >= 5:
		return BandFair
	default:
		return BandPoor
	}
}

// Outcome is the result of analysing one file: either a success carrying
// scores or a failure carrying a message. The zero value is invalid; build
// outcomes with Success or Failure.
type Outcome struct {
	ok          bool
	set         bool
	scores      ScoreSet
	suggestions []string
	err         string
}

// Success builds a successful outcome.
func Success(scores ScoreSet, suggestions []string) Outcome {
	return Outcome{ok: true, set: true, scores: scores, suggestions: cloneStrings(suggestions)}
}

// Failure builds a failed outcome. Suggestions are optional and kept only for display.
func Failure(message string, suggestions ...string) Outcome {
	if message == "" {
		message = "analysis failed"
	}
	return Outcome{set: true, err: message, suggestions: cloneStrings(suggestions)}
}

// Valid reports whether the outcome was built by Success or Failure.
func (o Outcome) Valid() bool { return o.set }

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool { return o.set && o.ok }

// FileAnalysis is one file's AI analysis. Path is empty for snippet reviews.
type FileAnalysis struct {
	Path    string
	Outcome Outcome
}

// Scores returns the scores when the analysis succeeded.
func (f FileAnalysis) Scores() (ScoreSet, bool) {
	if !f.Outcome.OK() {
		return ScoreSet{}, false
	}
	return f.Outcome.scores, true
}

// Err returns the failure message when the analysis failed.
func (f FileAnalysis) Err() (string, bool) {
	if !f.Outcome.Valid() {
		return "invalid analysis record", true
	}
	if f.Outcome.ok {
		return "", false
	}
	return f.Outcome.err, true
}

// Suggestions returns a copy of the suggestion list.
func (f FileAnalysis) Suggestions() []string {
	return cloneStrings(f.Outcome.suggestions)
}

// DiffPair is a structured before/after view of one changed file.
type DiffPair struct {
	Path       string
	OldContent string
	NewContent string
}

// IsNewFile reports whether the pair has no previous content.
func (p DiffPair) IsNewFile() bool { return p.OldContent == "" }

// CorrelatedFile joins a file's analysis with its diff, keyed by path.
// At least one of Analysis and Diff is set.
type CorrelatedFile struct {
	Path     string
	Analysis *FileAnalysis
	Diff     *DiffPair
}

// HasAnalysis reports whether the file was AI-reviewed.
func (c CorrelatedFile) HasAnalysis() bool { return c.Analysis != nil }

// HasDiff reports whether structured diff content is available.
func (c CorrelatedFile) HasDiff() bool { return c.Diff != nil }

// Clone returns a deep copy so snapshots never share pointers with live state.
func (c CorrelatedFile) Clone() CorrelatedFile {
	out := CorrelatedFile{Path: c.Path}
	if c.Analysis != nil {
		a := *c.Analysis
		a.Outcome.suggestions = cloneStrings(a.Outcome.suggestions)
		out.Analysis = &a
	}
	if c.Diff != nil {
		d := *c.Diff
		out.Diff = &d
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
