package tracker

import (
	"encoding/json"
	"log/slog"

	"github.com/restrainapp/restrain/internal/models"
	"github.com/restrainapp/restrain/internal/wire"
)

// handleChange merges one live change event into the in-memory
// collections and invalidates the matching cache key. Events for rows the
// engine does not hold (stale deletes, updates for unknown ids) are
// silent no-ops; a malformed event is logged and skipped, never fatal.
func (t *Tracker) handleChange(ev wire.ChangeEvent) {
	switch ev.Table {
	case wire.TableHabits:
		t.handleHabitChange(ev)
		t.cache.Invalidate(t.habitsCacheKey())
	case wire.TableEntries:
		t.handleEntryChange(ev)
		t.cache.Invalidate(t.entriesCacheKey())
	default:
		slog.Warn("change event for unknown table", "table", ev.Table)
	}
}

func (t *Tracker) handleHabitChange(ev wire.ChangeEvent) {
	if ev.Type == wire.EventDelete {
		id, err := ev.RowID()
		if err != nil {
			slog.Warn("bad habit delete event", "err", err)
			return
		}
		t.mu.Lock()
		t.habits = removeHabitByID(t.habits, id)
		t.mu.Unlock()
		return
	}

	var row wire.HabitRow
	if err := json.Unmarshal(ev.Row, &row); err != nil {
		slog.Warn("bad habit event row", "type", ev.Type, "err", err)
		return
	}
	h, err := wire.ToHabit(row)
	if err != nil {
		slog.Warn("unreadable habit event row", "id", row.ID, "err", err)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	switch ev.Type {
	case wire.EventInsert:
		// Replace if already present (our own confirmed write echoed
		// back), otherwise prepend. Idempotent under redelivery.
		for i := range t.habits {
			if t.habits[i].ID == h.ID {
				t.habits[i] = h
				return
			}
		}
		t.habits = append([]models.Habit{h}, t.habits...)
	case wire.EventUpdate:
		if !h.IsActive {
			// A deactivation from another device removes the habit from
			// the visible collection, same as a local remove.
			t.habits = removeHabitByID(t.habits, h.ID)
			return
		}
		for i := range t.habits {
			if t.habits[i].ID == h.ID {
				t.habits[i] = h
				return
			}
		}
		t.habits = append([]models.Habit{h}, t.habits...)
	}
}

func (t *Tracker) handleEntryChange(ev wire.ChangeEvent) {
	if ev.Type == wire.EventDelete {
		id, err := ev.RowID()
		if err != nil {
			slog.Warn("bad entry delete event", "err", err)
			return
		}
		t.mu.Lock()
		out := t.entries[:0]
		for _, e := range t.entries {
			if e.ID != id {
				out = append(out, e)
			}
		}
		t.entries = out
		t.mu.Unlock()
		return
	}

	var row wire.EntryRow
	if err := json.Unmarshal(ev.Row, &row); err != nil {
		slog.Warn("bad entry event row", "type", ev.Type, "err", err)
		return
	}
	e, err := wire.ToEntry(row)
	if err != nil {
		slog.Warn("unreadable entry event row", "id", row.ID, "err", err)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	switch ev.Type {
	case wire.EventInsert:
		// A confirmed insert reconciles our optimistic placeholder for
		// the same (habit, date) in place, so the temp id vanishes
		// without the entry moving or duplicating.
		for i := range t.entries {
			if models.IsTempID(t.entries[i].ID) &&
				t.entries[i].HabitID == e.HabitID && t.entries[i].Date == e.Date {
				t.entries[i] = e
				return
			}
		}
		for i := range t.entries {
			if t.entries[i].ID == e.ID {
				t.entries[i] = e
				return
			}
		}
		t.entries = append([]models.HabitEntry{e}, t.entries...)
	case wire.EventUpdate:
		for i := range t.entries {
			if t.entries[i].ID == e.ID {
				t.entries[i] = e
				return
			}
		}
	}
}
