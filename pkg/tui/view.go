package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aretw0/notes/pkg/core"
)

const (
	appTitle     = "Simple Notes"
	newNoteLabel = "+ New Note"
	timeLayout   = "2006-01-02 15:04"

	envMissingText = "Supabase configuration missing. Set SUPABASE_URL and SUPABASE_KEY " +
		"(or url and key in config.yaml) to enable persistence."
)

// schemaColumns lists the columns shown by the table-missing panel.
var schemaColumns = []string{
	"id: uuid (primary key, default gen_random_uuid())",
	"title: text",
	"content: text",
	"created_at: timestamptz",
	"updated_at: timestamptz",
}

// renderHeader draws the top bar with the add action and, when the backend is
// not configured, the configuration banner.
func renderHeader(envMissing bool, width int) string {
	top := lipgloss.JoinHorizontal(lipgloss.Center,
		brandStyle.Render(appTitle), "  ", actionStyle.Render("[n] "+newNoteLabel))
	if !envMissing {
		return top
	}
	banner := bannerStyle
	if width > 4 {
		banner = banner.Width(width - 2)
	}
	return lipgloss.JoinVertical(lipgloss.Left, top, banner.Render(envMissingText))
}

// renderStatus shows the loading indicator and the last refresh error.
func renderStatus(loading bool, errMsg string) string {
	var lines []string
	if loading {
		lines = append(lines, mutedStyle.Render("Loading…"))
	}
	if errMsg != "" {
		lines = append(lines, errorStyle.Render("Error: "+errMsg))
	}
	return strings.Join(lines, "\n")
}

// renderEmpty draws a placeholder with a single action.
func renderEmpty(title, action string) string {
	return lipgloss.JoinVertical(lipgloss.Center,
		mutedStyle.Render(title),
		"",
		actionStyle.Render(action),
	)
}

// renderList draws one row per note. The active note is marked; cursor is
// the row under keyboard focus.
func renderList(notes []core.Note, activeID string, cursor int) string {
	if len(notes) == 0 {
		return mutedStyle.Render("No notes yet")
	}
	rows := make([]string, 0, len(notes))
	for i, n := range notes {
		title := n.Title
		if title == "" {
			title = core.DefaultTitle
		}
		meta := ""
		if !n.UpdatedAt.IsZero() {
			meta = mutedStyle.Render(n.UpdatedAt.Local().Format(timeLayout))
		}
		row := title
		if meta != "" {
			row += "\n" + meta
		}

		switch {
		case n.ID == activeID:
			rows = append(rows, activeItemStyle.Render(row))
		case i == cursor:
			rows = append(rows, cursorItemStyle.Render("› "+row))
		default:
			rows = append(rows, itemStyle.Render(row))
		}
	}
	return strings.Join(rows, "\n")
}

// renderTableMissing draws the remediation panel shown when the notes
// relation does not exist.
func renderTableMissing(canApply bool) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("Notes table not found"))
	b.WriteString("\n")
	b.WriteString(`It looks like the "notes" table is missing in your database. Create a table named notes with columns:`)
	b.WriteString("\n\n")
	for _, c := range schemaColumns {
		b.WriteString("  • " + c + "\n")
	}
	b.WriteString("\n")
	b.WriteString(actionStyle.Render("[n] Create a quick note"))
	if canApply {
		b.WriteString("  ")
		b.WriteString(actionStyle.Render("[ctrl+t] Create the table"))
	} else {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("Run `notes schema` for the SQL."))
	}
	return b.String()
}

// renderConfirm draws the delete confirmation prompt.
func renderConfirm(title string) string {
	if title == "" {
		title = core.DefaultTitle
	}
	return confirmStyle.Render(fmt.Sprintf("Delete %q?  [y] yes  [n] no", title))
}

// renderEditor draws the editor for the active note.
func renderEditor(e *editor) string {
	dirty := ""
	if e.dirty() {
		dirty = mutedStyle.Render("  (unsaved)")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		e.title.View()+dirty,
		"",
		e.content.View(),
		"",
		actionStyle.Render("[ctrl+s] Save"),
	)
}

// renderNoSelection draws the right pane when no note is active.
func renderNoSelection() string {
	return renderEmpty("Select a note or create a new one", "[n] "+newNoteLabel)
}
