// Package wire defines the backend row formats (snake_case fields, string
// timestamps) and the pure transforms between rows and in-memory entities.
package wire

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/restrainapp/restrain/internal/models"
)

// HabitRow is a habits table row as the backend serves it.
type HabitRow struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Color       string  `json:"color"`
	Icon        string  `json:"icon"`
	IsCustom    bool    `json:"is_custom"`
	Description *string `json:"description,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	StartDate   string  `json:"start_date"`
	IsActive    bool    `json:"is_active"`
}

// EntryRow is a habit_entries table row as the backend serves it.
type EntryRow struct {
	ID        string  `json:"id"`
	HabitID   string  `json:"habit_id"`
	UserID    string  `json:"user_id"`
	Date      string  `json:"date"`
	Completed bool    `json:"completed"`
	Timestamp string  `json:"timestamp"`
	Notes     *string `json:"notes,omitempty"`
}

// HabitInsert is the payload for creating a habit row.
type HabitInsert struct {
	UserID      string  `json:"user_id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Color       string  `json:"color"`
	Icon        string  `json:"icon"`
	IsCustom    bool    `json:"is_custom"`
	Description *string `json:"description"`
	StartDate   string  `json:"start_date"`
	IsActive    bool    `json:"is_active"`
}

// EntryInsert is the payload for creating an entry row.
type EntryInsert struct {
	HabitID   string  `json:"habit_id"`
	UserID    string  `json:"user_id"`
	Date      string  `json:"date"`
	Completed bool    `json:"completed"`
	Timestamp string  `json:"timestamp"`
	Notes     *string `json:"notes"`
}

// EntryUpdate is the payload for updating an existing entry row.
type EntryUpdate struct {
	Completed bool    `json:"completed"`
	Timestamp string  `json:"timestamp"`
	Notes     *string `json:"notes"`
}

// EventType is a change-feed event kind.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Table names the two entity streams the change feed carries.
type Table string

const (
	TableHabits  Table = "habits"
	TableEntries Table = "habit_entries"
)

// ChangeEvent is one row-change notification from the live feed.
// Row holds the new row for INSERT/UPDATE and the old row for DELETE.
type ChangeEvent struct {
	Table     Table           `json:"table"`
	Type      EventType       `json:"type"`
	Row       json.RawMessage `json:"row"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// RowID extracts just the record id from an event row. Used for DELETE
// events, where the rest of the row may be absent.
func (e ChangeEvent) RowID() (string, error) {
	var row struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(e.Row, &row); err != nil {
		return "", fmt.Errorf("event row id: %w", err)
	}
	return row.ID, nil
}

// ToHabit converts a wire row into the in-memory entity.
func ToHabit(r HabitRow) (models.Habit, error) {
	createdAt, err := ParseTimestamp(r.CreatedAt)
	if err != nil {
		return models.Habit{}, fmt.Errorf("habit %s created_at: %w", r.ID, err)
	}
	updatedAt, err := ParseTimestamp(r.UpdatedAt)
	if err != nil {
		return models.Habit{}, fmt.Errorf("habit %s updated_at: %w", r.ID, err)
	}
	startDate, err := ParseTimestamp(r.StartDate)
	if err != nil {
		return models.Habit{}, fmt.Errorf("habit %s start_date: %w", r.ID, err)
	}

	h := models.Habit{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		Category:  models.Category(r.Category),
		Color:     r.Color,
		Icon:      r.Icon,
		IsCustom:  r.IsCustom,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		StartDate: startDate,
		IsActive:  r.IsActive,
	}
	if r.Description != nil {
		h.Description = *r.Description
	}
	return h, nil
}

// ToEntry converts a wire row into the in-memory entity.
func ToEntry(r EntryRow) (models.HabitEntry, error) {
	ts, err := ParseTimestamp(r.Timestamp)
	if err != nil {
		return models.HabitEntry{}, fmt.Errorf("entry %s timestamp: %w", r.ID, err)
	}

	e := models.HabitEntry{
		ID:        r.ID,
		HabitID:   r.HabitID,
		UserID:    r.UserID,
		Date:      r.Date,
		Completed: r.Completed,
		Timestamp: ts,
	}
	if r.Notes != nil {
		e.Notes = *r.Notes
	}
	return e, nil
}

// HabitInsertFrom builds the insert payload for a habit. The id and the
// server-owned timestamps are never sent; the backend assigns them.
func HabitInsertFrom(h models.Habit) HabitInsert {
	return HabitInsert{
		UserID:      h.UserID,
		Name:        h.Name,
		Category:    string(h.Category),
		Color:       h.Color,
		Icon:        h.Icon,
		IsCustom:    h.IsCustom,
		Description: nullable(h.Description),
		StartDate:   h.StartDate.UTC().Format(time.RFC3339),
		IsActive:    h.IsActive,
	}
}

// EntryInsertFrom builds the insert payload for an entry.
func EntryInsertFrom(e models.HabitEntry) EntryInsert {
	return EntryInsert{
		HabitID:   e.HabitID,
		UserID:    e.UserID,
		Date:      e.Date,
		Completed: e.Completed,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
		Notes:     nullable(e.Notes),
	}
}

// nullable maps the empty string to an absent field so the backend stores
// NULL rather than "".
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ParseTimestamp tries the timestamp formats the backend emits.
func ParseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}
