package review

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	NextFile key.Binding
	PrevFile key.Binding
	Confirm  key.Binding
	Dismiss  key.Binding
	Unmark   key.Binding
	Pane     key.Binding
	Errors   key.Binding
	Warnings key.Binding
	All      key.Binding
	Pending  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Next:     key.NewBinding(key.WithKeys("n", "j", "down"), key.WithHelp("n/j", "next")),
		Prev:     key.NewBinding(key.WithKeys("p", "k", "up"), key.WithHelp("p/k", "previous")),
		NextFile: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next file")),
		PrevFile: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "previous file")),
		Confirm:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "confirm")),
		Dismiss:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "dismiss")),
		Unmark:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "unmark")),
		Pane:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		Errors:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "errors")),
		Warnings: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "warnings+")),
		All:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "all")),
		Pending:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "unreviewed")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "save and quit")),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Confirm, k.Dismiss, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.NextFile, k.PrevFile, k.Pane},
		{k.Confirm, k.Dismiss, k.Unmark},
		{k.Errors, k.Warnings, k.All, k.Pending},
		{k.Help, k.Quit},
	}
}
