package monitor

import (
	"fmt"
	"strings"

	"github.com/restrainapp/restrain/internal/output"
)

// View renders the dashboard.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n\n")

	habits := m.Tracker.Habits()
	if len(habits) == 0 {
		b.WriteString(subtleStyle.Render("  No habits yet. Add one with: restrain add <name>"))
		b.WriteString("\n")
	}
	for i, h := range habits {
		completed, pending := m.entryState(h)
		stats := m.Tracker.HabitStats(h.ID)
		line := output.FormatHabitShort(&h, stats, completed, pending)
		if i == m.Cursor {
			line = cursorStyle.Render("› ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(output.FormatTodaySummary(m.Tracker.TodayStats()))
	b.WriteString("\n")

	if m.Err != nil {
		b.WriteString(errorStyle.Render("error: " + m.Err.Error()))
		b.WriteString("\n")
	}
	for key, msg := range m.Tracker.Errors() {
		b.WriteString(errorStyle.Render(fmt.Sprintf("%s: %s", key, msg)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) headerView() string {
	title := titleStyle.Render("restrain " + m.version)

	var sync string
	switch {
	case !m.Tracker.IsOnline():
		sync = offlineStyle.Render(fmt.Sprintf("offline · %d queued", m.Tracker.QueueDepth()))
	case m.Tracker.PendingUpdates() > 0:
		sync = pendingStyle.Render(fmt.Sprintf("%s syncing %d", m.spinner.View(), m.Tracker.PendingUpdates()))
	default:
		sync = onlineStyle.Render("synced")
	}

	date := subtleStyle.Render(m.Tracker.SelectedDate().Format("Mon Jan 2"))
	return fmt.Sprintf("%s  %s  %s", title, date, sync)
}
