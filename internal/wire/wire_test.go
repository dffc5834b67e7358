package wire

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/restrainapp/restrain/internal/models"
)

func TestToHabit(t *testing.T) {
	desc := "one day at a time"
	r := HabitRow{
		ID:          "h1",
		UserID:      "u1",
		Name:        "No smoking",
		Category:    "smoking",
		Color:       "#ef4444",
		Icon:        "cigarette",
		IsCustom:    false,
		Description: &desc,
		CreatedAt:   "2025-07-01T10:00:00Z",
		UpdatedAt:   "2025-07-02T10:00:00.123456Z",
		StartDate:   "2025-07-01",
		IsActive:    true,
	}

	h, err := ToHabit(r)
	if err != nil {
		t.Fatalf("ToHabit: %v", err)
	}
	if h.ID != "h1" || h.UserID != "u1" {
		t.Errorf("ids: got %q/%q", h.ID, h.UserID)
	}
	if h.Category != models.CategorySmoking {
		t.Errorf("category: got %q", h.Category)
	}
	if h.Description != desc {
		t.Errorf("description: got %q", h.Description)
	}
	if h.CreatedAt.UTC() != time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC) {
		t.Errorf("created_at: got %v", h.CreatedAt)
	}
	if h.StartDate.Year() != 2025 || h.StartDate.Month() != 7 {
		t.Errorf("start_date: got %v", h.StartDate)
	}
}

func TestToHabitAbsentDescription(t *testing.T) {
	r := HabitRow{
		ID:        "h1",
		UserID:    "u1",
		Name:      "No smoking",
		Category:  "smoking",
		CreatedAt: "2025-07-01T10:00:00Z",
		UpdatedAt: "2025-07-01T10:00:00Z",
		StartDate: "2025-07-01T10:00:00Z",
	}
	h, err := ToHabit(r)
	if err != nil {
		t.Fatalf("ToHabit: %v", err)
	}
	if h.Description != "" {
		t.Errorf("absent description should default to empty, got %q", h.Description)
	}
}

func TestToHabitBadTimestamp(t *testing.T) {
	r := HabitRow{ID: "h1", CreatedAt: "not-a-time", UpdatedAt: "2025-07-01T10:00:00Z", StartDate: "2025-07-01"}
	if _, err := ToHabit(r); err == nil {
		t.Fatal("expected error for bad created_at")
	}
}

func TestToEntry(t *testing.T) {
	r := EntryRow{
		ID:        "e1",
		HabitID:   "h1",
		UserID:    "u1",
		Date:      "2025-07-10",
		Completed: true,
		Timestamp: "2025-07-10T08:30:00Z",
	}
	e, err := ToEntry(r)
	if err != nil {
		t.Fatalf("ToEntry: %v", err)
	}
	if e.Date != "2025-07-10" || !e.Completed {
		t.Errorf("entry fields: %+v", e)
	}
	if e.Notes != "" {
		t.Errorf("absent notes should default to empty, got %q", e.Notes)
	}
}

func TestEntryInsertFromOmitsEmptyNotes(t *testing.T) {
	ins := EntryInsertFrom(models.HabitEntry{
		HabitID:   "h1",
		UserID:    "u1",
		Date:      "2025-07-10",
		Completed: true,
		Timestamp: time.Date(2025, 7, 10, 8, 0, 0, 0, time.UTC),
	})
	if ins.Notes != nil {
		t.Error("empty notes should marshal as null")
	}

	data, err := json.Marshal(ins)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["habit_id"] != "h1" {
		t.Errorf("payload should use snake_case keys, got %v", raw)
	}
	if raw["notes"] != nil {
		t.Errorf("notes should be null, got %v", raw["notes"])
	}
}

func TestChangeEventRowID(t *testing.T) {
	ev := ChangeEvent{
		Table: TableEntries,
		Type:  EventDelete,
		Row:   json.RawMessage(`{"id":"e9"}`),
	}
	id, err := ev.RowID()
	if err != nil {
		t.Fatalf("RowID: %v", err)
	}
	if id != "e9" {
		t.Errorf("got %q, want e9", id)
	}
}
