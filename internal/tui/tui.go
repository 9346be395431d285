// Package tui implements the Bubble Tea terminal user interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/sprite-ai/smartdiff/internal/diff"
	"github.com/sprite-ai/smartdiff/internal/model"
	"github.com/sprite-ai/smartdiff/internal/render"
	"github.com/sprite-ai/smartdiff/internal/report"
	"github.com/sprite-ai/smartdiff/internal/session"
)

type focus int

const (
	focusNone focus = iota
	focusURL
	focusCode
)

// resultMsg carries a finished operation back to the update loop.
type resultMsg struct {
	gen    uint64
	result session.Result
}

type exportedMsg struct {
	path string
	err  error
}

// Options configure the TUI.
type Options struct {
	Analyzer       session.Analyzer
	Mode           render.Mode
	Include        []string
	ExportDir      string
	HighlightStyle string
	// Request, when set, is started as soon as the program runs.
	Request *model.Request
	Logger  zerolog.Logger
	Now     func() time.Time
}

// Model is the top-level Bubble Tea model.
type Model struct {
	ctx      context.Context
	analyzer session.Analyzer
	machine  *session.Machine
	snap     session.Session

	mode    render.Mode
	opts    render.Options
	view    render.View
	viewErr error

	exportDir string
	hlStyle   string
	now       func() time.Time

	// UI state
	width        int
	height       int
	fileIndex    int
	scrollOffset int
	focus        focus
	showHelp     bool
	showPreview  bool
	status       string
	statusErr    bool

	spinner spinner.Model
	url     textinput.Model
	code    textarea.Model
	preview viewport.Model

	initCmd tea.Cmd
}

// New creates the TUI model.
func New(ctx context.Context, opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.HighlightStyle == "" {
		opts.HighlightStyle = diff.DefaultStyle
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Placeholder = "https://github.com/owner/repo"
	ti.CharLimit = 512
	ti.Prompt = ""

	ta := textarea.New()
	ta.Placeholder = "Paste code to review..."
	ta.ShowLineNumbers = true

	m := Model{
		ctx:       ctx,
		analyzer:  opts.Analyzer,
		machine:   session.New(session.WithLogger(opts.Logger), session.WithClock(opts.Now)),
		mode:      opts.Mode,
		opts:      render.Options{Include: opts.Include},
		exportDir: opts.ExportDir,
		hlStyle:   opts.HighlightStyle,
		now:       opts.Now,
		spinner:   sp,
		url:       ti,
		code:      ta,
		preview:   viewport.New(0, 0),
	}
	m.refresh()

	if opts.Request != nil {
		switch opts.Request.Kind {
		case model.KindSnippet:
			m.code.SetValue(opts.Request.Code)
		default:
			m.url.SetValue(opts.Request.RepositoryURL)
		}
		m.initCmd = m.start(*opts.Request)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.initCmd
}

// start supersedes any running operation and returns the command that runs it.
func (m *Model) start(req model.Request) tea.Cmd {
	op := m.machine.Start(m.ctx, req)
	m.fileIndex, m.scrollOffset = 0, 0
	m.showPreview = false
	m.setStatus(fmt.Sprintf("analyzing %s...", req.Target()), false)
	m.refresh()

	a := m.analyzer
	run := func() tea.Msg {
		return resultMsg{gen: op.Generation, result: op.Run(a)}
	}
	return tea.Batch(m.spinner.Tick, run)
}

// refresh re-reads the session and re-renders the view for the active mode.
func (m *Model) refresh() {
	m.snap = m.machine.Snapshot()
	m.rebuildView()
}

func (m *Model) rebuildView() {
	m.view, m.viewErr = render.For(m.mode).Render(m.snap.Correlated(), m.opts)
	if n := m.view.Len(); m.fileIndex >= n {
		m.fileIndex = max(n-1, 0)
	}
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.code.SetWidth(max(msg.Width-4, 10))
		m.code.SetHeight(6)
		m.preview.Width = msg.Width
		m.preview.Height = max(msg.Height-2, 1)
		return m, nil

	case spinner.TickMsg:
		if m.snap.Status != session.Pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case resultMsg:
		if !m.machine.Resolve(msg.gen, msg.result) {
			return m, nil
		}
		m.refresh()
		switch m.snap.Status {
		case session.Failed:
			m.setStatus(m.snap.Err, true)
		default:
			m.setStatus(fmt.Sprintf("%d file(s) reviewed", len(m.snap.Files)), false)
			if kind, _ := m.snap.Kind(); kind == model.KindSnippet {
				m.setStatus("snippet reviewed", false)
			}
		}
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
		} else {
			m.setStatus("exported to "+msg.path, false)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// ctrl+c quits from any focus; q only outside the inputs
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch {
	case key.Matches(msg, keys.ReviewSnippet):
		return m.startFromInput(model.SnippetRequest(m.code.Value()))
	case key.Matches(msg, keys.ReviewRepo):
		return m.startFromInput(model.RepoRequest(m.url.Value()))
	case key.Matches(msg, keys.ReviewCommit):
		return m.startFromInput(model.CommitDiffRequest(m.url.Value()))
	}

	if m.focus != focusNone {
		if key.Matches(msg, keys.Blur) {
			m.blur()
			return m, nil
		}
		var cmd tea.Cmd
		if m.focus == focusURL {
			m.url, cmd = m.url.Update(msg)
		} else {
			m.code, cmd = m.code.Update(msg)
		}
		return m, cmd
	}

	if m.showPreview {
		switch {
		case key.Matches(msg, keys.Preview), key.Matches(msg, keys.Blur), key.Matches(msg, keys.Quit):
			m.showPreview = false
			return m, nil
		}
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.EditURL):
		m.focus = focusURL
		cmd := m.url.Focus()
		return m, cmd

	case key.Matches(msg, keys.EditCode):
		m.focus = focusCode
		cmd := m.code.Focus()
		return m, cmd

	case key.Matches(msg, keys.Down):
		if m.scrollOffset < len(m.currentLines(m.contentWidth()))-1 {
			m.scrollOffset++
		}

	case key.Matches(msg, keys.Up):
		if m.scrollOffset > 0 {
			m.scrollOffset--
		}

	case key.Matches(msg, keys.NextFile):
		if m.fileIndex < m.view.Len()-1 {
			m.fileIndex++
			m.scrollOffset = 0
		}

	case key.Matches(msg, keys.PrevFile):
		if m.fileIndex > 0 {
			m.fileIndex--
			m.scrollOffset = 0
		}

	case key.Matches(msg, keys.Toggle):
		m.mode = m.mode.Toggle()
		m.fileIndex, m.scrollOffset = 0, 0
		m.rebuildView()

	case key.Matches(msg, keys.Export):
		doc, err := report.Export(m.snap, m.now())
		if err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		dir := m.exportDir
		return m, func() tea.Msg {
			path, err := report.WriteFile(dir, doc)
			return exportedMsg{path: path, err: err}
		}

	case key.Matches(msg, keys.Preview):
		doc, err := report.Export(m.snap, m.now())
		if err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		out, err := report.Preview(doc, max(m.width-2, 20))
		if err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		m.preview.SetContent(out)
		m.preview.GotoTop()
		m.showPreview = true

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
	}

	return m, nil
}

func (m Model) startFromInput(req model.Request) (tea.Model, tea.Cmd) {
	if err := req.Validate(); err != nil {
		m.setStatus(err.Error(), true)
		return m, nil
	}
	m.blur()
	cmd := m.start(req)
	return m, cmd
}

func (m *Model) blur() {
	m.focus = focusNone
	m.url.Blur()
	m.code.Blur()
}

// Run starts the TUI application.
func Run(ctx context.Context, opts Options) error {
	if opts.Analyzer == nil {
		return errors.New("tui: analyzer is required")
	}
	p := tea.NewProgram(New(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
