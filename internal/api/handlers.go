package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sprite-ai/smartdiff/internal/client"
	"github.com/sprite-ai/smartdiff/internal/correlate"
	"github.com/sprite-ai/smartdiff/internal/model"
	"github.com/sprite-ai/smartdiff/internal/render"
	"github.com/sprite-ai/smartdiff/internal/report"
	"github.com/sprite-ai/smartdiff/internal/session"
)

// --- Wire types ---

type reviewJSON struct {
	File        string          `json:"file"`
	Scores      *model.ScoreSet `json:"scores,omitempty"`
	Suggestions []string        `json:"suggestions,omitempty"`
	Error       string          `json:"error,omitempty"`
}

func (r reviewJSON) analysis() (model.FileAnalysis, error) {
	fa := model.FileAnalysis{Path: r.File}
	switch {
	case r.Error != "":
		fa.Outcome = model.Failure(r.Error, r.Suggestions...)
	case r.Scores == nil:
		fa.Outcome = model.Failure("incomplete analysis: missing scores", r.Suggestions...)
	default:
		s := *r.Scores
		scores, err := model.NewScoreSet(s.Readability, s.CodeQuality, s.BestPractices, s.BugRisk)
		if err != nil {
			return fa, fmt.Errorf("review %q: %w", r.File, err)
		}
		fa.Outcome = model.Success(scores, r.Suggestions)
	}
	return fa, nil
}

func reviewFromAnalysis(fa model.FileAnalysis) reviewJSON {
	out := reviewJSON{File: fa.Path, Suggestions: fa.Suggestions()}
	if msg, failed := fa.Err(); failed {
		out.Error = msg
	} else if scores, ok := fa.Scores(); ok {
		out.Scores = &scores
	}
	return out
}

type pairJSON struct {
	File    string `json:"file"`
	OldCode string `json:"old_code"`
	NewCode string `json:"new_code"`
}

type correlatedFileJSON struct {
	Path     string      `json:"path"`
	Analysis *reviewJSON `json:"analysis,omitempty"`
	Diff     *pairJSON   `json:"diff,omitempty"`
}

func correlatedJSON(m correlate.Model) []correlatedFileJSON {
	out := make([]correlatedFileJSON, 0, len(m.Files))
	for _, f := range m.Files {
		cf := correlatedFileJSON{Path: f.Path}
		if f.Analysis != nil {
			r := reviewFromAnalysis(*f.Analysis)
			cf.Analysis = &r
		}
		if f.Diff != nil {
			cf.Diff = &pairJSON{File: f.Diff.Path, OldCode: f.Diff.OldContent, NewCode: f.Diff.NewContent}
		}
		out = append(out, cf)
	}
	return out
}

// correlateInput is shared by the correlate, render and export endpoints.
type correlateInput struct {
	Diff    *string      `json:"diff,omitempty"`
	Pairs   []pairJSON   `json:"pairs,omitempty"`
	Reviews []reviewJSON `json:"reviews,omitempty"`
}

func (in correlateInput) decode() ([]model.DiffPair, []model.FileAnalysis, error) {
	pairs := make([]model.DiffPair, 0, len(in.Pairs))
	for _, p := range in.Pairs {
		pairs = append(pairs, model.DiffPair{Path: p.File, OldContent: p.OldCode, NewContent: p.NewCode})
	}
	analyses := make([]model.FileAnalysis, 0, len(in.Reviews))
	for _, r := range in.Reviews {
		fa, err := r.analysis()
		if err != nil {
			return nil, nil, err
		}
		analyses = append(analyses, fa)
	}
	return pairs, analyses, nil
}

func (in correlateInput) model() (correlate.Model, error) {
	pairs, analyses, err := in.decode()
	if err != nil {
		return correlate.Model{}, err
	}
	return correlate.Correlate(in.Diff, pairs, analyses), nil
}

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Correlate ---

type correlateResponse struct {
	HasRawDiff bool                 `json:"has_raw_diff"`
	Files      []correlatedFileJSON `json:"files"`
}

func (s *Server) handleCorrelate(w http.ResponseWriter, r *http.Request) {
	var req correlateInput
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	m, err := req.model()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, correlateResponse{HasRawDiff: m.HasRawDiff(), Files: correlatedJSON(m)})
}

// --- Render ---

type renderRequest struct {
	correlateInput
	Mode    string   `json:"mode"`
	Include []string `json:"include,omitempty"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	mode, err := render.ParseMode(req.Mode)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := req.model()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := render.For(mode).Render(m, render.Options{Include: req.Include})
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// --- Export ---

type exportRequest struct {
	correlateInput
	Kind          string      `json:"kind"`
	RepositoryURL string      `json:"repository_url,omitempty"`
	Review        *reviewJSON `json:"review,omitempty"`
}

// replayAnalyzer hands back results the caller already has, so an export
// request goes through the same session transitions as a live review.
type replayAnalyzer struct {
	snippet model.FileAnalysis
	commit  client.CommitDiffResult
}

func (a replayAnalyzer) ReviewSnippet(context.Context, string) (model.FileAnalysis, error) {
	return a.snippet, nil
}

func (a replayAnalyzer) ReviewRepository(context.Context, string) (client.RepositoryResult, error) {
	return client.RepositoryResult{Files: a.commit.Analyses()}, nil
}

func (a replayAnalyzer) ReviewCommitDiff(context.Context, string) (client.CommitDiffResult, error) {
	return a.commit, nil
}

func (req exportRequest) replay() (replayAnalyzer, model.Request, error) {
	kind, err := model.ParseRequestKind(req.Kind)
	if err != nil {
		return replayAnalyzer{}, model.Request{}, err
	}

	var a replayAnalyzer
	switch kind {
	case model.KindSnippet:
		if req.Review == nil {
			return a, model.Request{}, errors.New("snippet export requires review")
		}
		fa, err := req.Review.analysis()
		if err != nil {
			return a, model.Request{}, err
		}
		a.snippet = fa
		return a, model.SnippetRequest("(exported)"), nil
	default:
		pairs, analyses, err := req.decode()
		if err != nil {
			return a, model.Request{}, err
		}
		byPath := make(map[string]*model.DiffPair, len(pairs))
		for i := range pairs {
			byPath[pairs[i].Path] = &pairs[i]
		}
		a.commit.DiffText = req.Diff
		for _, fa := range analyses {
			a.commit.Files = append(a.commit.Files, client.CommitFile{Analysis: fa, Pair: byPath[fa.Path]})
		}
		return a, model.Request{Kind: kind, RepositoryURL: req.RepositoryURL}, nil
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	a, modelReq, err := req.replay()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	m := session.New(session.WithLogger(s.log), session.WithClock(s.now))
	snap := m.Dispatch(r.Context(), a, modelReq)
	if snap.Status == session.Failed {
		s.writeError(w, http.StatusBadRequest, snap.Err)
		return
	}

	doc, err := report.Export(snap, s.now())
	if errors.Is(err, report.ErrNothingToExport) {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}
