package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL + "/")
}

func respond(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestReviewSnippet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/review_code", r.URL.Path)
		var in codeInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "x=1", in.Code)
		respond(w, 200, `{"readability_score":8,"code_quality_score":7,"best_practices_score":9,"bug_risk_score":2,
			"detailed_suggestions":["use list comprehension"]}`)
	})

	fa, err := c.ReviewSnippet(context.Background(), "x=1")
	require.NoError(t, err)
	scores, ok := fa.Scores()
	require.True(t, ok)
	assert.Equal(t, 8, scores.Readability)
	assert.Equal(t, 2, scores.BugRisk)
	assert.Equal(t, []string{"use list comprehension"}, fa.Suggestions())
}

func TestReviewSnippetErrorBodyIsParseError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, 200, `{"error":"Failed to process code","raw":"not json"}`)
	})

	_, err := c.ReviewSnippet(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, IsParse(err))
	assert.Contains(t, err.Error(), "Failed to process code")
}

func TestReviewSnippetMissingScores(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, 200, `{"readability_score":8,"detailed_suggestions":[]}`)
	})

	_, err := c.ReviewSnippet(context.Background(), "x")
	assert.True(t, IsParse(err))
}

func TestReviewRepositoryPerFileErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/review_repo", r.URL.Path)
		respond(w, 200, `{"reviews":[
			{"file":"bad.py","error":"syntax error"},
			{"file":"good.py","readability_score":8,"code_quality_score":7,"best_practices_score":9,"bug_risk_score":2,"detailed_suggestions":["a","b"]},
			{"file":"partial.py","readability_score":8,"detailed_suggestions":"single"},
			{"file":"wild.py","readability_score":80,"code_quality_score":7,"best_practices_score":9,"bug_risk_score":2}
		]}`)
	})

	res, err := c.ReviewRepository(context.Background(), "https://github.com/u/r")
	require.NoError(t, err)
	require.Len(t, res.Files, 4)

	msg, failed := res.Files[0].Err()
	assert.True(t, failed)
	assert.Equal(t, "syntax error", msg)

	_, ok := res.Files[1].Scores()
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, res.Files[1].Suggestions())

	msg, failed = res.Files[2].Err()
	assert.True(t, failed)
	assert.Contains(t, msg, "missing scores")
	assert.Equal(t, []string{"single"}, res.Files[2].Suggestions())

	msg, failed = res.Files[3].Err()
	assert.True(t, failed)
	assert.Contains(t, msg, "out of range")
}

func TestReviewRepositoryMistypedScoreFailsOnlyThatFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, 200, `{"reviews":[
			{"file":"good.py","readability_score":8,"code_quality_score":7,"best_practices_score":9,"bug_risk_score":2},
			{"file":"weird.py","readability_score":"8","code_quality_score":7,"best_practices_score":9,"bug_risk_score":2,"detailed_suggestions":["keep me"]},
			{"file":"nulls.py","readability_score":null,"code_quality_score":7,"best_practices_score":9,"bug_risk_score":2}
		]}`)
	})

	res, err := c.ReviewRepository(context.Background(), "u")
	require.NoError(t, err)
	require.Len(t, res.Files, 3)

	_, ok := res.Files[0].Scores()
	assert.True(t, ok)

	msg, failed := res.Files[1].Err()
	assert.True(t, failed)
	assert.Contains(t, msg, "invalid analysis")
	assert.Contains(t, msg, "readability_score")
	assert.Equal(t, []string{"keep me"}, res.Files[1].Suggestions())

	msg, failed = res.Files[2].Err()
	assert.True(t, failed)
	assert.Contains(t, msg, "missing scores")
}

func TestReviewSnippetMistypedScoreIsParseError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, 200, `{"readability_score":"high","code_quality_score":7,"best_practices_score":9,"bug_risk_score":2}`)
	})

	_, err := c.ReviewSnippet(context.Background(), "x")
	assert.True(t, IsParse(err))
}

func TestReviewRepositoryMissingReviews(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, 200, `{}`)
	})

	_, err := c.ReviewRepository(context.Background(), "u")
	assert.True(t, IsParse(err))
}

func TestReviewCommitDiff(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/review_commit_diff", r.URL.Path)
		respond(w, 200, `{"diff":"diff --git a/a.py b/a.py\n","reviews":[
			{"file":"a.py","old_code":"x=1","new_code":"x=2","readability_score":8,"code_quality_score":7,"best_practices_score":9,"bug_risk_score":2,"detailed_suggestions":["s"]},
			{"file":"b.py","error":"Failed to fetch or review file: boom"}
		]}`)
	})

	res, err := c.ReviewCommitDiff(context.Background(), "u")
	require.NoError(t, err)
	require.NotNil(t, res.DiffText)
	require.Len(t, res.Files, 2)
	require.NotNil(t, res.Files[0].Pair)
	assert.Equal(t, "x=1", res.Files[0].Pair.OldContent)
	assert.Equal(t, "x=2", res.Files[0].Pair.NewContent)
	assert.Nil(t, res.Files[1].Pair)
	assert.Len(t, res.Pairs(), 1)
	assert.Len(t, res.Analyses(), 2)
}

func TestReviewCommitDiffNoDiffText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, 200, `{"reviews":[{"file":"a.py","new_code":"x","readability_score":1,"code_quality_score":1,"best_practices_score":1,"bug_risk_score":1}]}`)
	})

	res, err := c.ReviewCommitDiff(context.Background(), "u")
	require.NoError(t, err)
	assert.Nil(t, res.DiffText)
	require.NotNil(t, res.Files[0].Pair)
	assert.True(t, res.Files[0].Pair.IsNewFile())
}

func TestDiffView(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/diff_view", r.URL.Path)
		respond(w, 200, `{"diffs":[{"file":"a.py","old_code":"","new_code":"print(1)"}]}`)
	})

	pairs, err := c.DiffView(context.Background(), "u")
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "a.py", pairs[0].Path)
}

func TestHTTPErrorIsTransport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, 500, `{"detail":"Commit diff review failed: No commits found"}`)
	})

	_, err := c.ReviewCommitDiff(context.Background(), "u")
	require.Error(t, err)
	assert.True(t, IsTransport(err))

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 500, ce.Status)
	assert.Equal(t, "Commit diff review failed: No commits found", ce.Message)
}

func TestMalformedBodyIsParse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, 200, `{"reviews": [`)
	})

	_, err := c.ReviewRepository(context.Background(), "u")
	assert.True(t, IsParse(err))
}

func TestUnreachableIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).ReviewSnippet(context.Background(), "x")
	assert.True(t, IsTransport(err))
}

func TestCancelledContextIsTransport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, 200, `{}`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ReviewRepository(ctx, "u")
	assert.True(t, IsTransport(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRequestsAreIndependent(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		respond(w, 200, `{"reviews":[]}`)
	})

	for i := 0; i < 2; i++ {
		_, err := c.ReviewRepository(context.Background(), "u")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}
