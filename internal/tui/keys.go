package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	ReviewSnippet key.Binding
	ReviewRepo    key.Binding
	ReviewCommit  key.Binding
	EditURL       key.Binding
	EditCode      key.Binding
	Blur          key.Binding
	Up            key.Binding
	Down          key.Binding
	NextFile      key.Binding
	PrevFile      key.Binding
	Toggle        key.Binding
	Export        key.Binding
	Preview       key.Binding
	Help          key.Binding
	Quit          key.Binding
}

var keys = keyMap{
	ReviewSnippet: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "review snippet"),
	),
	ReviewRepo: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "review repository"),
	),
	ReviewCommit: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "review latest commit diff"),
	),
	EditURL: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "edit repository url"),
	),
	EditCode: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "edit snippet"),
	),
	Blur: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "leave input"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	NextFile: key.NewBinding(
		key.WithKeys("n", "tab"),
		key.WithHelp("n/tab", "next file"),
	),
	PrevFile: key.NewBinding(
		key.WithKeys("N", "shift+tab"),
		key.WithHelp("N/S-tab", "prev file"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "unified/side-by-side"),
	),
	Export: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "export markdown"),
	),
	Preview: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "preview export"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

type keyBindingHelp struct{ key, desc string }

func help(b key.Binding) keyBindingHelp {
	h := b.Help()
	return keyBindingHelp{key: h.Key, desc: h.Desc}
}
