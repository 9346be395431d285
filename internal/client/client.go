// Package client talks to the code-review backend and normalizes every
// response into model types or a single *Error value.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sprite-ai/smartdiff/internal/model"
)

// Backend endpoints.
const (
	pathReviewCode       = "/review_code"
	pathReviewRepo       = "/review_repo"
	pathReviewCommitDiff = "/review_commit_diff"
	pathDiffView         = "/diff_view"
)

// ErrorKind classifies top-level failures.
type ErrorKind int

const (
	ErrTransport ErrorKind = iota
	ErrParse
)

func (k ErrorKind) String() string {
	switch k {
	case ErrTransport:
		return "transport_error"
	case ErrParse:
		return "parse_error"
	default:
		return "unknown_error"
	}
}

// Error is the only error type returned by Client methods.
type Error struct {
	Kind    ErrorKind
	Message string
	Status  int // HTTP status when the backend answered, 0 otherwise
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == ErrTransport
}

// IsParse reports whether err is a parse failure.
func IsParse(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == ErrParse
}

func transportErr(status int, msg string, err error) *Error {
	return &Error{Kind: ErrTransport, Status: status, Message: msg, Err: err}
}

func parseErr(msg string, err error) *Error {
	return &Error{Kind: ErrParse, Message: msg, Err: err}
}

// Client issues analysis requests against the backend. It keeps no state
// between calls; identical requests produce independent results.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets a per-request timeout. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// RepositoryResult is the payload of a repository review.
type RepositoryResult struct {
	Files []model.FileAnalysis
}

// CommitFile is one reviewed file of a commit, with its before/after content when supplied.
type CommitFile struct {
	Analysis model.FileAnalysis
	Pair     *model.DiffPair
}

// CommitDiffResult is the payload of a commit-diff review.
type CommitDiffResult struct {
	DiffText *string
	Files    []CommitFile
}

// Analyses returns the file analyses in arrival order.
func (r CommitDiffResult) Analyses() []model.FileAnalysis {
	out := make([]model.FileAnalysis, 0, len(r.Files))
	for _, f := range r.Files {
		out = append(out, f.Analysis)
	}
	return out
}

// Pairs returns the structured diff pairs that were supplied, in arrival order.
func (r CommitDiffResult) Pairs() []model.DiffPair {
	var out []model.DiffPair
	for _, f := range r.Files {
		if f.Pair != nil {
			out = append(out, *f.Pair)
		}
	}
	return out
}

// ReviewSnippet reviews a single block of code.
func (c *Client) ReviewSnippet(ctx context.Context, code string) (model.FileAnalysis, error) {
	var body reviewPayload
	if err := c.doJSON(ctx, pathReviewCode, codeInput{Code: code}, &body); err != nil {
		return model.FileAnalysis{}, err
	}

	if body.Error != nil {
		msg := *body.Error
		if body.Raw != "" {
			c.log.Debug().Str("raw", body.Raw).Msg("backend returned raw model output")
		}
		return model.FileAnalysis{}, parseErr("backend could not analyze snippet: "+msg, nil)
	}

	scores, err := body.scoreSet()
	if err != nil {
		return model.FileAnalysis{}, parseErr("failed to parse AI response", err)
	}
	suggestions, err := decodeSuggestions(body.Suggestions)
	if err != nil {
		return model.FileAnalysis{}, parseErr("failed to parse AI response", err)
	}
	return model.FileAnalysis{Outcome: model.Success(scores, suggestions)}, nil
}

// ReviewRepository reviews every supported file of a repository.
func (c *Client) ReviewRepository(ctx context.Context, url string) (RepositoryResult, error) {
	var body reviewsResponse
	if err := c.doJSON(ctx, pathReviewRepo, urlInput{URL: url}, &body); err != nil {
		return RepositoryResult{}, err
	}
	if body.Reviews == nil {
		return RepositoryResult{}, parseErr("response missing reviews", nil)
	}

	res := RepositoryResult{Files: make([]model.FileAnalysis, 0, len(*body.Reviews))}
	for i, r := range *body.Reviews {
		fa, err := r.fileAnalysis(i)
		if err != nil {
			return RepositoryResult{}, err
		}
		res.Files = append(res.Files, fa)
	}
	return res, nil
}

// ReviewCommitDiff reviews the files changed by a repository's latest commit.
func (c *Client) ReviewCommitDiff(ctx context.Context, url string) (CommitDiffResult, error) {
	var body reviewsResponse
	if err := c.doJSON(ctx, pathReviewCommitDiff, urlInput{URL: url}, &body); err != nil {
		return CommitDiffResult{}, err
	}
	if body.Reviews == nil {
		return CommitDiffResult{}, parseErr("response missing reviews", nil)
	}

	res := CommitDiffResult{DiffText: body.Diff}
	for i, r := range *body.Reviews {
		fa, err := r.fileAnalysis(i)
		if err != nil {
			return CommitDiffResult{}, err
		}
		cf := CommitFile{Analysis: fa}
		if r.OldCode != nil || r.NewCode != nil {
			cf.Pair = &model.DiffPair{
				Path:       fa.Path,
				OldContent: deref(r.OldCode),
				NewContent: deref(r.NewCode),
			}
		}
		res.Files = append(res.Files, cf)
	}
	return res, nil
}

// DiffView fetches the before/after content of a repository's latest commit
// without running any analysis.
func (c *Client) DiffView(ctx context.Context, url string) ([]model.DiffPair, error) {
	var body diffViewResponse
	if err := c.doJSON(ctx, pathDiffView, urlInput{URL: url}, &body); err != nil {
		return nil, err
	}
	if body.Diffs == nil {
		return nil, parseErr("response missing diffs", nil)
	}

	pairs := make([]model.DiffPair, 0, len(*body.Diffs))
	for i, d := range *body.Diffs {
		if d.File == "" {
			return nil, parseErr(fmt.Sprintf("diff %d has no file", i), nil)
		}
		pairs = append(pairs, model.DiffPair{Path: d.File, OldContent: d.OldCode, NewContent: d.NewCode})
	}
	return pairs, nil
}

func (c *Client) doJSON(ctx context.Context, path string, in, out any) error {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return parseErr("encoding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, buf)
	if err != nil {
		return transportErr(0, "creating request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("path", path).Msg("backend request failed")
		return transportErr(0, "backend unreachable", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportErr(resp.StatusCode, "reading response", err)
	}

	c.log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return transportErr(resp.StatusCode, errorDetail(payload), nil)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return parseErr("malformed response body", err)
	}
	return nil
}

// errorDetail extracts a FastAPI style {"detail": ...} message when present.
func errorDetail(payload []byte) string {
	var d struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(payload, &d); err == nil {
		var s string
		if len(d.Detail) > 0 && json.Unmarshal(d.Detail, &s) == nil && s != "" {
			return s
		}
		if len(d.Detail) > 0 {
			return string(d.Detail)
		}
		if d.Error != "" {
			return d.Error
		}
	}
	msg := strings.TrimSpace(string(payload))
	if msg == "" {
		return "empty response"
	}
	return msg
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
