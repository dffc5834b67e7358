// Package monitor is the live TUI dashboard: today's habits, completion
// markers, streaks, and sync state, updating as changes arrive from other
// devices.
package monitor

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/restrainapp/restrain/internal/models"
	"github.com/restrainapp/restrain/internal/tracker"
)

// Model is the main Bubble Tea model for the monitor TUI
type Model struct {
	Tracker *tracker.Tracker

	Width  int
	Height int

	Cursor      int
	LastRefresh time.Time
	Err         error

	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	interval time.Duration
	version  string
}

type tickMsg time.Time

// NewModel creates the monitor model around a started tracker.
func NewModel(tr *tracker.Tracker, interval time.Duration, version string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		Tracker:  tr,
		spinner:  sp,
		help:     help.New(),
		keys:     defaultKeyMap(),
		interval: interval,
		version:  version,
	}
}

// Init starts the refresh tick and spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		m.LastRefresh = time.Time(msg)
		return m, m.tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	habits := m.Tracker.Habits()
	switch {
	case keyMatches(msg, m.keys.Quit):
		return m, tea.Quit

	case keyMatches(msg, m.keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}

	case keyMatches(msg, m.keys.Down):
		if m.Cursor < len(habits)-1 {
			m.Cursor++
		}

	case keyMatches(msg, m.keys.Toggle):
		if m.Cursor < len(habits) {
			h := habits[m.Cursor]
			completed := false
			if e, ok := m.Tracker.EntryFor(h.ID, m.Tracker.SelectedDate()); ok {
				completed = e.Completed
			}
			if err := m.Tracker.ToggleEntry(h.ID, !completed, ""); err != nil {
				m.Err = err
			}
		}

	case keyMatches(msg, m.keys.Refresh):
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		m.Err = m.Tracker.Refresh(ctx)

	case keyMatches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// entryState returns the completion and pending markers for one habit on
// the selected date.
func (m Model) entryState(h models.Habit) (completed, pending bool) {
	e, ok := m.Tracker.EntryFor(h.ID, m.Tracker.SelectedDate())
	if !ok {
		return false, false
	}
	return e.Completed, models.IsTempID(e.ID)
}
