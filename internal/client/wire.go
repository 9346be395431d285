package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/sprite-ai/smartdiff/internal/model"
)

type codeInput struct {
	Code string `json:"code"`
}

type urlInput struct {
	URL string `json:"url"`
}

// reviewPayload is the per-review object shared by all three review endpoints.
// Scores are kept raw so a mistyped score fails only its own file.
type reviewPayload struct {
	File          string          `json:"file"`
	Readability   json.RawMessage `json:"readability_score"`
	CodeQuality   json.RawMessage `json:"code_quality_score"`
	BestPractices json.RawMessage `json:"best_practices_score"`
	BugRisk       json.RawMessage `json:"bug_risk_score"`
	Suggestions   json.RawMessage `json:"detailed_suggestions"`
	Error         *string         `json:"error"`
	Raw           string          `json:"raw"`
	OldCode       *string         `json:"old_code"`
	NewCode       *string         `json:"new_code"`
}

type reviewsResponse struct {
	Diff    *string          `json:"diff"`
	Reviews *[]reviewPayload `json:"reviews"`
}

type diffViewResponse struct {
	Diffs *[]struct {
		File    string `json:"file"`
		OldCode string `json:"old_code"`
		NewCode string `json:"new_code"`
	} `json:"diffs"`
}

var errMissingScores = errors.New("missing scores")

// scoreSet decodes the four scores. Numbers may arrive as floats from the
// model and are rounded.
func (p reviewPayload) scoreSet() (model.ScoreSet, error) {
	fields := []struct {
		name string
		raw  json.RawMessage
	}{
		{"readability_score", p.Readability},
		{"code_quality_score", p.CodeQuality},
		{"best_practices_score", p.BestPractices},
		{"bug_risk_score", p.BugRisk},
	}
	vals := make([]int, len(fields))
	for i, f := range fields {
		if len(f.raw) == 0 || string(f.raw) == "null" {
			return model.ScoreSet{}, errMissingScores
		}
		var v float64
		if err := json.Unmarshal(f.raw, &v); err != nil {
			return model.ScoreSet{}, fmt.Errorf("%s is not a number: %s", f.name, f.raw)
		}
		vals[i] = int(math.Round(v))
	}
	return model.NewScoreSet(vals[0], vals[1], vals[2], vals[3])
}

// fileAnalysis converts one review entry. Problems scoped to the file become
// a Failure outcome; only a missing file name fails the whole response.
func (p reviewPayload) fileAnalysis(index int) (model.FileAnalysis, error) {
	if p.File == "" {
		return model.FileAnalysis{}, parseErr(fmt.Sprintf("review %d has no file", index), nil)
	}

	suggestions, sErr := decodeSuggestions(p.Suggestions)

	if p.Error != nil {
		msg := *p.Error
		if msg == "" {
			msg = "analysis failed"
		}
		return model.FileAnalysis{Path: p.File, Outcome: model.Failure(msg, suggestions...)}, nil
	}

	scores, err := p.scoreSet()
	if errors.Is(err, errMissingScores) {
		return model.FileAnalysis{Path: p.File, Outcome: model.Failure("incomplete analysis: missing scores", suggestions...)}, nil
	}
	if err != nil {
		return model.FileAnalysis{Path: p.File, Outcome: model.Failure("invalid analysis: "+err.Error(), suggestions...)}, nil
	}
	if sErr != nil {
		return model.FileAnalysis{Path: p.File, Outcome: model.Failure("invalid analysis: "+sErr.Error())}, nil
	}
	return model.FileAnalysis{Path: p.File, Outcome: model.Success(scores, suggestions)}, nil
}

// decodeSuggestions accepts an array of strings, a single string, or null.
func decodeSuggestions(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		if one == "" {
			return nil, nil
		}
		return []string{one}, nil
	}
	return nil, errors.New("detailed_suggestions is not a list of strings")
}
