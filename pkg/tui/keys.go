package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	up          key.Binding
	down        key.Binding
	open        key.Binding
	create      key.Binding
	editorNew   key.Binding
	save        key.Binding
	remove      key.Binding
	refresh     key.Binding
	focusNext   key.Binding
	back        key.Binding
	applySchema key.Binding
	confirm     key.Binding
	cancel      key.Binding
	quit        key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		open:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		create:      key.NewBinding(key.WithKeys("n", "ctrl+n"), key.WithHelp("n", "new note")),
		editorNew:   key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new note")),
		save:        key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		remove:      key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		refresh:     key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh")),
		focusNext:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		back:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back to list")),
		applySchema: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "create table")),
		confirm:     key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "confirm")),
		cancel:      key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "cancel")),
		quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func helpLine(bindings ...key.Binding) string {
	var out string
	for i, b := range bindings {
		if i > 0 {
			out += "  "
		}
		h := b.Help()
		out += h.Key + " " + h.Desc
	}
	return out
}
