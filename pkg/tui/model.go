// Package tui is the terminal front end: a two-pane list/detail view over a
// notes session.
package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aretw0/notes/pkg/core"
)

const opTimeout = 30 * time.Second

// Store is the session the UI drives. *core.Store satisfies it.
type Store interface {
	Open(ctx context.Context) error
	Refresh(ctx context.Context) error
	Create(ctx context.Context, d core.Draft) (*core.Note, error)
	Update(ctx context.Context, id string, p core.Patch) (*core.Note, error)
	Delete(ctx context.Context, id string) (bool, error)
	Select(id string)
	Snapshot() core.Session
	Updated() <-chan struct{}
}

// Options configures the UI.
type Options struct {
	Logger *slog.Logger
	// ApplySchema, when set, is offered on the table-missing panel.
	ApplySchema func(ctx context.Context) error
}

type focusArea int

const (
	focusList focusArea = iota
	focusEditor
)

// sessionUpdatedMsg is sent after the store signalled a change.
type sessionUpdatedMsg struct{}

// sessionClosedMsg is sent once the store's update channel is closed.
type sessionClosedMsg struct{}

// opResultMsg reports the outcome of an intent run as a command.
type opResultMsg struct {
	op  string
	err error
}

// Model is the root bubbletea model.
type Model struct {
	store  Store
	opts   Options
	logger *slog.Logger
	keys   keyMap

	width  int
	height int

	session    core.Session
	cursor     int
	focus      focusArea
	editor     *editor
	confirming *core.Note
	status     string
}

// New creates the root model over store.
func New(store Store, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Model{
		store:   store,
		opts:    opts,
		logger:  logger,
		keys:    newKeyMap(),
		session: store.Snapshot(),
		editor:  newEditor(),
	}
}

// Run starts the program on the alternate screen and blocks until it exits.
func Run(ctx context.Context, store Store, opts Options) error {
	p := tea.NewProgram(New(store, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.openCmd(), waitForUpdate(m.store.Updated()))
}

// waitForUpdate blocks on the store's signal channel.
func waitForUpdate(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return sessionClosedMsg{}
		}
		return sessionUpdatedMsg{}
	}
}

func (m *Model) run(op string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return opResultMsg{op: op, err: fn(ctx)}
	}
}

func (m *Model) openCmd() tea.Cmd {
	return m.run("open", m.store.Open)
}

func (m *Model) refreshCmd() tea.Cmd {
	return m.run("refresh", m.store.Refresh)
}

func (m *Model) createCmd() tea.Cmd {
	return m.run("create", func(ctx context.Context) error {
		_, err := m.store.Create(ctx, core.Draft{Title: core.Text(core.DefaultTitle), Content: core.Text("")})
		return err
	})
}

func (m *Model) saveCmd() tea.Cmd {
	id := m.editor.noteID
	if id == "" {
		return nil
	}
	title, content := m.editor.values()
	return m.run("save", func(ctx context.Context) error {
		_, err := m.store.Update(ctx, id, core.Patch{Title: core.Text(title), Content: core.Text(content)})
		return err
	})
}

func (m *Model) deleteCmd(id string) tea.Cmd {
	return m.run("delete", func(ctx context.Context) error {
		_, err := m.store.Delete(ctx, id)
		return err
	})
}

func (m *Model) applySchemaCmd() tea.Cmd {
	apply := m.opts.ApplySchema
	return m.run("schema", func(ctx context.Context) error {
		if err := apply(ctx); err != nil {
			return err
		}
		return m.store.Refresh(ctx)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case sessionUpdatedMsg:
		m.syncSession()
		return m, waitForUpdate(m.store.Updated())

	case sessionClosedMsg:
		return m, tea.Quit

	case opResultMsg:
		if msg.err != nil {
			m.logger.Error("operation failed", "op", msg.op, "error", msg.err)
			// The table-missing panel already explains this one.
			if !core.IsTableMissing(msg.err) {
				m.status = msg.op + " failed: " + core.Message(msg.err)
			}
		} else {
			m.status = ""
			if msg.op == "create" {
				m.focus = focusEditor
				m.syncSession()
				return m, m.editor.focus(fieldTitle)
			}
			if msg.op == "save" {
				m.status = "Saved"
			}
		}
		m.syncSession()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.confirming != nil {
			return m.updateConfirm(msg)
		}
		if m.focus == focusEditor {
			return m.updateEditor(msg)
		}
		return m.updateList(msg)
	}

	if m.focus == focusEditor {
		return m, m.editor.update(msg)
	}
	return m, nil
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	target := m.confirming
	switch {
	case key.Matches(msg, m.keys.confirm):
		m.confirming = nil
		return m, m.deleteCmd(target.ID)
	case key.Matches(msg, m.keys.cancel):
		m.confirming = nil
	}
	return m, nil
}

func (m *Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.save):
		return m, m.saveCmd()
	case key.Matches(msg, m.keys.editorNew):
		return m, m.createCmd()
	case key.Matches(msg, m.keys.back):
		m.focus = focusList
		m.editor.blur()
		return m, nil
	case key.Matches(msg, m.keys.focusNext):
		if m.editor.focused == fieldTitle {
			return m, m.editor.focus(fieldContent)
		}
		return m, m.editor.focus(fieldTitle)
	}
	return m, m.editor.update(msg)
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	notes := m.session.Notes
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.down):
		if m.cursor < len(notes)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.open):
		if m.cursor < len(notes) {
			m.store.Select(notes[m.cursor].ID)
			m.syncSession()
			m.focus = focusEditor
			return m, m.editor.focus(fieldTitle)
		}
	case key.Matches(msg, m.keys.create):
		return m, m.createCmd()
	case key.Matches(msg, m.keys.remove):
		if m.cursor < len(notes) {
			n := notes[m.cursor]
			m.confirming = &n
		}
	case key.Matches(msg, m.keys.refresh):
		return m, m.refreshCmd()
	case key.Matches(msg, m.keys.applySchema):
		if m.session.TableMissing && m.opts.ApplySchema != nil {
			return m, m.applySchemaCmd()
		}
	case key.Matches(msg, m.keys.save):
		return m, m.saveCmd()
	}
	return m, nil
}

// syncSession pulls a fresh snapshot and points the editor at the active note.
func (m *Model) syncSession() {
	m.session = m.store.Snapshot()
	if m.cursor >= len(m.session.Notes) {
		m.cursor = max(len(m.session.Notes)-1, 0)
	}
	if active, ok := m.session.ActiveNote(); ok {
		m.editor.sync(&active)
		for i, n := range m.session.Notes {
			if n.ID == active.ID {
				m.cursor = i
				break
			}
		}
	} else {
		m.editor.sync(nil)
		if m.focus == focusEditor {
			m.focus = focusList
			m.editor.blur()
		}
	}
}

func (m *Model) layout() {
	leftWidth := m.leftWidth()
	rightWidth := m.width - leftWidth - 6
	m.editor.resize(rightWidth-4, m.height-14)
}

func (m *Model) leftWidth() int {
	w := m.width / 3
	return min(max(w, 24), 48)
}

// View implements tea.Model.
func (m *Model) View() string {
	header := renderHeader(m.session.EnvMissing, m.width)

	left := renderStatus(m.session.Loading, m.session.Error)
	if len(m.session.Notes) == 0 && !m.session.Loading {
		left = joinNonEmpty(left, renderEmpty("No notes yet", "[n] "+newNoteLabel))
	} else {
		left = joinNonEmpty(left, renderList(m.session.Notes, m.session.ActiveNoteID, m.cursor))
	}

	var right string
	switch {
	case m.session.TableMissing:
		right = renderTableMissing(m.opts.ApplySchema != nil)
	case m.editor.noteID == "":
		right = renderNoSelection()
	default:
		right = renderEditor(m.editor)
	}

	leftStyle, rightStyle := focusedPaneStyle, paneStyle
	if m.focus == focusEditor {
		leftStyle, rightStyle = paneStyle, focusedPaneStyle
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		leftStyle.Width(m.leftWidth()).Render(left),
		rightStyle.Render(right),
	)

	footer := mutedStyle.Render(helpLine(m.keys.open, m.keys.create, m.keys.remove, m.keys.save, m.keys.refresh, m.keys.quit))
	if m.confirming != nil {
		footer = renderConfirm(m.confirming.Title)
	} else if m.status != "" {
		footer = joinNonEmpty(m.status, footer)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}
