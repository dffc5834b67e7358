// Package tracker is the client-side synchronization engine: it holds the
// habit and entry collections in memory, applies mutations optimistically,
// coalesces rapid input, retries failed writes with backoff, queues
// mutations while offline, and merges live server-pushed change events.
package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/restrainapp/restrain/internal/models"
	"github.com/restrainapp/restrain/internal/wire"
)

// Errors returned by mutation entry points before any network call.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrClosed           = errors.New("tracker closed")
	ErrHabitNotFound    = errors.New("habit not found")
)

// Store is the row-level CRUD surface the engine writes through.
// *backend.Client satisfies it; tests substitute a fake.
type Store interface {
	ListHabits(ctx context.Context, userID string) ([]wire.HabitRow, error)
	ListEntries(ctx context.Context, userID string) ([]wire.EntryRow, error)
	InsertHabit(ctx context.Context, ins wire.HabitInsert) (*wire.HabitRow, error)
	DeactivateHabit(ctx context.Context, userID, habitID string) error
	InsertEntry(ctx context.Context, ins wire.EntryInsert) (*wire.EntryRow, error)
	UpdateEntry(ctx context.Context, userID, entryID string, upd wire.EntryUpdate) error
}

// Feed delivers server-pushed row changes scoped to one user.
type Feed interface {
	Subscribe(ctx context.Context, userID string) (<-chan wire.ChangeEvent, error)
}

// Mutation is the tagged payload union for the three mutation kinds.
// Key identifies the logical target so that same-target mutations coalesce
// into one debounce slot and unrelated mutations never share one.
type Mutation interface {
	Key() string
	kind() string
}

// ToggleData flips one day's completion state for one habit.
type ToggleData struct {
	HabitID   string
	Date      string // YYYY-MM-DD
	Completed bool
	Notes     string
}

func (m ToggleData) Key() string { return "toggle-" + m.HabitID + "-" + m.Date }
func (ToggleData) kind() string  { return "toggle" }

// AddHabitData creates a habit. Habit is the optimistic record (temp id
// included) so replay paths can still reconcile the confirmed row.
type AddHabitData struct {
	TempID string
	Habit  models.Habit
}

func (m AddHabitData) Key() string { return "add_habit-" + m.TempID }
func (AddHabitData) kind() string  { return "add_habit" }

// RemoveHabitData soft-deletes a habit.
type RemoveHabitData struct {
	HabitID string
}

func (m RemoveHabitData) Key() string { return "remove_habit-" + m.HabitID }
func (RemoveHabitData) kind() string  { return "remove_habit" }

// Update is one in-flight optimistic mutation, not yet confirmed durable.
type Update struct {
	ID         string
	Mutation   Mutation
	Timestamp  time.Time
	RetryCount int
}
