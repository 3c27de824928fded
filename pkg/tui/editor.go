package tui

import (
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aretw0/notes/pkg/core"
)

type field int

const (
	fieldTitle field = iota
	fieldContent
)

// editor holds the local buffers for the active note. Nothing is saved until
// the user asks; the buffers are reset whenever the active note changes.
type editor struct {
	noteID  string
	saved   core.Note
	focused field
	title   textinput.Model
	content textarea.Model
}

func newEditor() *editor {
	ti := textinput.New()
	ti.Placeholder = "Title"
	ti.CharLimit = 200
	ti.Prompt = ""

	ta := textarea.New()
	ta.Placeholder = "Write your note here..."
	ta.CharLimit = 0
	ta.ShowLineNumbers = false

	e := &editor{title: ti, content: ta}
	e.resize(60, 12)
	return e
}

func (e *editor) resize(width, height int) {
	if width < 10 {
		width = 10
	}
	if height < 3 {
		height = 3
	}
	e.title.Width = width
	e.content.SetWidth(width)
	e.content.SetHeight(height)
}

// sync points the editor at n. The buffers are overwritten only when the note
// identity changes, so typing is not lost when the same note is re-rendered
// after a realtime update.
func (e *editor) sync(n *core.Note) {
	if n == nil {
		if e.noteID != "" {
			e.reset(core.Note{})
		}
		return
	}
	if n.ID == e.noteID {
		e.saved = *n
		return
	}
	e.reset(*n)
}

func (e *editor) reset(n core.Note) {
	e.noteID = n.ID
	e.saved = n
	e.title.SetValue(n.Title)
	e.content.SetValue(n.Content)
	e.title.CursorEnd()
}

func (e *editor) values() (title, content string) {
	return e.title.Value(), e.content.Value()
}

func (e *editor) dirty() bool {
	if e.noteID == "" {
		return false
	}
	title, content := e.values()
	return title != e.saved.Title || content != e.saved.Content
}

func (e *editor) focus(f field) tea.Cmd {
	e.focused = f
	if f == fieldTitle {
		e.content.Blur()
		return e.title.Focus()
	}
	e.title.Blur()
	return e.content.Focus()
}

func (e *editor) blur() {
	e.title.Blur()
	e.content.Blur()
}

func (e *editor) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if e.focused == fieldTitle {
		e.title, cmd = e.title.Update(msg)
	} else {
		e.content, cmd = e.content.Update(msg)
	}
	return cmd
}
