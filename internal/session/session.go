// Package session owns the lifecycle of the current analysis operation.
//
// A Machine holds exactly one Session. Every start bumps the session's
// generation; a result is applied only if it carries the current generation,
// so a superseded operation can finish at any time without touching newer
// state. The Machine is not safe for concurrent use: callers drive it from a
// single event loop (the bubbletea Update loop or a websocket session loop).
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sprite-ai/smartdiff/internal/client"
	"github.com/sprite-ai/smartdiff/internal/correlate"
	"github.com/sprite-ai/smartdiff/internal/model"
)

// Status is the lifecycle state of a Session.
type Status int

const (
	Idle Status = iota
	Pending
	Resolved
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session is the state of the current analysis. Values handed out by the
// Machine are copies.
type Session struct {
	Request     *model.Request
	Status      Status
	RawDiffText *string
	Files       []model.CorrelatedFile
	Snippet     *model.FileAnalysis
	Generation  uint64
	Err         string
	ResolvedAt  time.Time
}

// Kind returns the request kind, or false when nothing was ever started.
func (s Session) Kind() (model.RequestKind, bool) {
	if s.Request == nil {
		return 0, false
	}
	return s.Request.Kind, true
}

// Correlated returns the file/diff view of the session.
func (s Session) Correlated() correlate.Model {
	return correlate.Model{RawDiff: s.RawDiffText, Files: s.Files}.Clone()
}

func (s Session) clone() Session {
	out := s
	if s.Request != nil {
		r := *s.Request
		out.Request = &r
	}
	if s.Snippet != nil {
		sn := model.CorrelatedFile{Analysis: s.Snippet}.Clone()
		out.Snippet = sn.Analysis
	}
	cm := correlate.Model{RawDiff: s.RawDiffText, Files: s.Files}.Clone()
	out.RawDiffText = cm.RawDiff
	out.Files = cm.Files
	return out
}

// Analyzer performs the three analysis calls. *client.Client satisfies it.
type Analyzer interface {
	ReviewSnippet(ctx context.Context, code string) (model.FileAnalysis, error)
	ReviewRepository(ctx context.Context, url string) (client.RepositoryResult, error)
	ReviewCommitDiff(ctx context.Context, url string) (client.CommitDiffResult, error)
}

// Result is the outcome of one operation. Exactly one payload field is set
// when Err is nil.
type Result struct {
	Snippet    *model.FileAnalysis
	Repository *client.RepositoryResult
	CommitDiff *client.CommitDiffResult
	Err        error
}

// Op is a started operation. Run it anywhere, then hand its generation and
// result back to Machine.Resolve on the event loop.
type Op struct {
	Generation uint64
	Request    model.Request
	ctx        context.Context
}

// Run performs the call for the op's request kind. It never panics on a bad
// request; validation failures come back as Result.Err.
func (o Op) Run(a Analyzer) Result {
	ctx := o.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := o.Request.Validate(); err != nil {
		return Result{Err: err}
	}

	switch o.Request.Kind {
	case model.KindSnippet:
		fa, err := a.ReviewSnippet(ctx, o.Request.Code)
		if err != nil {
			return Result{Err: err}
		}
		return Result{Snippet: &fa}
	case model.KindRepository:
		res, err := a.ReviewRepository(ctx, o.Request.RepositoryURL)
		if err != nil {
			return Result{Err: err}
		}
		return Result{Repository: &res}
	case model.KindCommitDiff:
		res, err := a.ReviewCommitDiff(ctx, o.Request.RepositoryURL)
		if err != nil {
			return Result{Err: err}
		}
		return Result{CommitDiff: &res}
	default:
		return Result{Err: fmt.Errorf("unsupported request kind %s", o.Request.Kind)}
	}
}

// Machine is the sole mutator of a Session.
type Machine struct {
	s         Session
	cancel    context.CancelFunc
	now       func() time.Time
	log       zerolog.Logger
	listeners []func(Session)
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock overrides the clock used for ResolvedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Machine) { m.log = l }
}

// New creates a Machine with an Idle session.
func New(opts ...Option) *Machine {
	m := &Machine{
		now: time.Now,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnChange registers a callback invoked with a snapshot after every transition.
func (m *Machine) OnChange(fn func(Session)) {
	m.listeners = append(m.listeners, fn)
}

// Snapshot returns a deep copy of the current session.
func (m *Machine) Snapshot() Session {
	return m.s.clone()
}

// Generation returns the current generation.
func (m *Machine) Generation() uint64 {
	return m.s.Generation
}

// Start begins a new operation, superseding any pending one. Previous results
// are cleared before the new operation runs so they never linger behind it.
// The op's context is derived from ctx and is cancelled if the op is superseded.
func (m *Machine) Start(ctx context.Context, req model.Request) Op {
	if m.cancel != nil {
		m.cancel()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	opCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	if m.s.Status == Pending {
		m.log.Debug().
			Uint64("superseded_generation", m.s.Generation).
			Msg("superseding pending operation")
	}

	r := req
	m.s = Session{
		Request:    &r,
		Status:     Pending,
		Generation: m.s.Generation + 1,
	}

	m.log.Debug().
		Uint64("generation", m.s.Generation).
		Str("kind", req.Kind.String()).
		Str("status", m.s.Status.String()).
		Msg("operation started")
	m.notify()

	return Op{Generation: m.s.Generation, Request: req, ctx: opCtx}
}

// Resolve applies a result. It returns false, changing nothing, when gen is
// not the current generation or the session is not pending.
func (m *Machine) Resolve(gen uint64, res Result) bool {
	if gen != m.s.Generation || m.s.Status != Pending {
		m.log.Debug().
			Uint64("stale_generation", gen).
			Uint64("generation", m.s.Generation).
			Msg("dropping stale result")
		return false
	}

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}

	if res.Err != nil {
		m.s.Status = Failed
		m.s.Err = res.Err.Error()
		m.log.Debug().
			Uint64("generation", gen).
			Str("status", m.s.Status.String()).
			Err(res.Err).
			Msg("operation failed")
		m.notify()
		return true
	}

	if err := m.apply(res); err != nil {
		m.s.Status = Failed
		m.s.Err = err.Error()
		m.log.Debug().
			Uint64("generation", gen).
			Str("status", m.s.Status.String()).
			Err(err).
			Msg("operation failed")
		m.notify()
		return true
	}

	m.s.Status = Resolved
	m.s.ResolvedAt = m.now()
	m.log.Debug().
		Uint64("generation", gen).
		Str("status", m.s.Status.String()).
		Int("files", len(m.s.Files)).
		Msg("operation resolved")
	m.notify()
	return true
}

var errEmptyResult = errors.New("empty result")

func (m *Machine) apply(res Result) error {
	kind := m.s.Request.Kind
	switch {
	case kind == model.KindSnippet && res.Snippet != nil:
		fa := *res.Snippet
		m.s.Snippet = &fa
	case kind == model.KindRepository && res.Repository != nil:
		cm := correlate.Correlate(nil, nil, res.Repository.Files)
		m.s.Files = cm.Files
	case kind == model.KindCommitDiff && res.CommitDiff != nil:
		cm := correlate.Correlate(res.CommitDiff.DiffText, res.CommitDiff.Pairs(), res.CommitDiff.Analyses())
		m.s.RawDiffText = cm.RawDiff
		m.s.Files = cm.Files
	default:
		return fmt.Errorf("%s: %w", kind, errEmptyResult)
	}
	return nil
}

// Dispatch starts an operation, runs it synchronously and applies the result.
func (m *Machine) Dispatch(ctx context.Context, a Analyzer, req model.Request) Session {
	op := m.Start(ctx, req)
	m.Resolve(op.Generation, op.Run(a))
	return m.Snapshot()
}

func (m *Machine) notify() {
	if len(m.listeners) == 0 {
		return
	}
	snap := m.s.clone()
	for _, fn := range m.listeners {
		fn(snap)
	}
}
