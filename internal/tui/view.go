package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/sprite-ai/smartdiff/internal/model"
	"github.com/sprite-ai/smartdiff/internal/render"
	"github.com/sprite-ai/smartdiff/internal/session"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.showPreview {
		return lipgloss.JoinVertical(lipgloss.Left, m.preview.View(), m.renderStatusBar())
	}

	inputs := m.renderInputs()
	bodyHeight := m.height - lipgloss.Height(inputs) - 1
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	return lipgloss.JoinVertical(lipgloss.Left, inputs, m.renderBody(bodyHeight), m.renderStatusBar())
}

func (m Model) renderInputs() string {
	urlBox := inputBoxStyle
	if m.focus == focusURL {
		urlBox = inputFocusedBoxStyle
	}
	out := urlBox.Width(max(m.width-2, 10)).Render(inputLabelStyle.Render("Repository ") + m.url.View())

	if m.focus == focusCode {
		out = lipgloss.JoinVertical(lipgloss.Left, out, inputFocusedBoxStyle.Render(m.code.View()))
	}
	return out
}

func (m Model) renderBody(height int) string {
	switch m.snap.Status {
	case session.Idle:
		return m.box(height, emptyStyle.Render("Press u to enter a repository url or i to paste a snippet, then ctrl+r, ctrl+d or ctrl+s. ? for help."))
	case session.Pending:
		return m.box(height, m.spinner.View()+" Analyzing "+m.snap.Request.Target()+"...")
	case session.Failed:
		return m.box(height, errorStyle.Render("Error: ")+m.snap.Err)
	}

	if kind, _ := m.snap.Kind(); kind == model.KindSnippet {
		if m.snap.Snippet == nil {
			return m.box(height, emptyStyle.Render("No snippet result"))
		}
		return m.box(height, strings.Join(m.window(snippetLines(*m.snap.Snippet, m.width-4), height-2), "\n"))
	}

	if m.viewErr != nil {
		return m.box(height, errorStyle.Render("Cannot render: ")+m.viewErr.Error())
	}
	if m.view.Empty {
		return m.box(height, emptyStyle.Render(fmt.Sprintf("Nothing to show in %s mode (%s). Press v to switch.", m.mode, m.view.EmptyReason)))
	}

	listWidth := m.fileListWidth()
	diffWidth := m.width - listWidth - 1
	list := m.renderFileList(listWidth, height)
	content := m.renderFileView(diffWidth, height)
	return lipgloss.JoinHorizontal(lipgloss.Top, list, " ", content)
}

func (m Model) box(height int, content string) string {
	return diffViewStyle.Width(max(m.width-2, 10)).Height(max(height-2, 1)).Render(content)
}

// fileEntry is what the file list needs from a section or pane.
type fileEntry struct {
	path string
	ann  render.Annotation
}

func (m Model) entries() []fileEntry {
	var out []fileEntry
	if m.view.Mode == render.ModeSideBySide {
		for _, p := range m.view.Panes {
			out = append(out, fileEntry{p.Path, p.Annotation})
		}
		return out
	}
	for _, s := range m.view.Sections {
		out = append(out, fileEntry{s.Path, s.Annotation})
	}
	return out
}

func (m Model) fileListWidth() int {
	// longest path, capped
	maxLen := 20
	for _, e := range m.entries() {
		if n := ansi.StringWidth(e.path); n > maxLen {
			maxLen = n
		}
	}
	w := maxLen + 6
	if w > m.width/3 {
		w = m.width / 3
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) renderFileList(width, height int) string {
	var b strings.Builder
	entries := m.entries()
	for i, e := range entries {
		marker := "  "
		switch {
		case e.ann.Failed():
			marker = "! "
		case e.ann.Scores != nil:
			marker = "✓ "
		}
		name := marker + e.path
		if w := width - 4; w > 0 && ansi.StringWidth(name) > w {
			name = ansi.TruncateLeft(name, ansi.StringWidth(name)-w+1, "…")
		}

		style := fileItemStyle
		switch {
		case i == m.fileIndex:
			style = fileItemSelectedStyle
		case e.ann.Failed():
			style = fileItemErrorStyle
		case !e.ann.Reviewed:
			style = fileItemUnreviewedStyle
		}
		b.WriteString(style.Width(width - 4).Render(name))
		if i < len(entries)-1 {
			b.WriteByte('\n')
		}
	}
	return fileListStyle.Width(width).Height(max(height-2, 1)).Render(b.String())
}

func (m Model) contentWidth() int {
	return m.width - m.fileListWidth() - 1 - 4
}

// currentLines renders the selected file for the active mode.
func (m Model) currentLines(width int) []string {
	switch m.view.Mode {
	case render.ModeSideBySide:
		if m.fileIndex < len(m.view.Panes) {
			return paneLines(m.view.Panes[m.fileIndex], width, m.hlStyle)
		}
	default:
		if m.fileIndex < len(m.view.Sections) {
			return sectionLines(m.view.Sections[m.fileIndex], width, m.hlStyle)
		}
	}
	return nil
}

func (m Model) currentPath() string {
	entries := m.entries()
	if m.fileIndex < len(entries) {
		return entries[m.fileIndex].path
	}
	return ""
}

func (m Model) window(lines []string, visible int) []string {
	start := min(m.scrollOffset, max(len(lines)-1, 0))
	end := min(start+visible, len(lines))
	return lines[start:end]
}

func (m Model) renderFileView(width, height int) string {
	innerWidth := width - 4
	innerHeight := height - 2

	var b strings.Builder
	b.WriteString(fileHeaderStyle.Render(m.currentPath()))
	b.WriteString("\n\n")

	visible := max(innerHeight-2, 1)
	b.WriteString(strings.Join(m.window(m.currentLines(innerWidth), visible), "\n"))

	return diffViewStyle.Width(width).Height(max(innerHeight, 1)).Render(b.String())
}

func (m Model) renderStatusBar() string {
	left := fmt.Sprintf(" %s", m.snap.Status)
	if n := m.view.Len(); n > 0 && m.snap.Status == session.Resolved {
		left += fmt.Sprintf("  File %d/%d", m.fileIndex+1, n)
	}
	if m.status != "" {
		msg := m.status
		if m.statusErr {
			msg = statusErrorStyle.Render(msg)
		}
		left += "  " + msg
	}

	right := fmt.Sprintf("%s  ? help ", m.mode)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 0 {
		left = ansi.Truncate(left, max(m.width-lipgloss.Width(right)-3, 0), "…")
		gap = 0
	}
	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(fileHeaderStyle.Render("smartdiff - Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, k := range []keyBindingHelp{
		help(keys.EditURL), help(keys.EditCode), help(keys.Blur),
		help(keys.ReviewSnippet), help(keys.ReviewRepo), help(keys.ReviewCommit),
		help(keys.Up), help(keys.Down), help(keys.NextFile), help(keys.PrevFile),
		help(keys.Toggle), help(keys.Export), help(keys.Preview),
		help(keys.Help), help(keys.Quit),
	} {
		b.WriteString(fmt.Sprintf("  %s  %s\n", helpKeyStyle.Width(12).Render(k.key), k.desc))
	}

	b.WriteString("\n")
	b.WriteString(helpBarStyle.Render("Press ? to close help"))
	return b.String()
}
