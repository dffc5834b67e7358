package models

import (
	"strings"
	"time"
)

// Category classifies the behavior a habit restrains.
type Category string

const (
	CategorySmoking      Category = "smoking"
	CategoryDrinking     Category = "drinking"
	CategoryAdultContent Category = "adult_content"
	CategorySocialMedia  Category = "social_media"
	CategoryJunkFood     Category = "junk_food"
	CategoryCustom       Category = "custom"
)

// TempIDPrefix marks optimistic records that have not been confirmed by the
// backend. A temp record is replaced in place, never duplicated, once its
// confirmed counterpart arrives.
const TempIDPrefix = "temp-"

// IsTempID reports whether an identifier belongs to an unconfirmed record.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// Habit is a tracked behavior goal, owned by exactly one user.
// Habits are never hard-deleted; removal flips IsActive so historical
// entries stay valid.
type Habit struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Category    Category  `json:"category"`
	Color       string    `json:"color"`
	Icon        string    `json:"icon"`
	IsCustom    bool      `json:"is_custom"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	StartDate   time.Time `json:"start_date"`
	IsActive    bool      `json:"is_active"`
}

// HabitEntry records one day's completion state for one habit.
// Date is date-only (YYYY-MM-DD); at most one entry exists per
// (HabitID, Date) pair.
type HabitEntry struct {
	ID        string    `json:"id"`
	HabitID   string    `json:"habit_id"`
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"`
	Completed bool      `json:"completed"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
}

// HabitStats is derived from a habit's confirmed entries; never persisted.
type HabitStats struct {
	HabitID       string     `json:"habit_id"`
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
	TotalDays     int        `json:"total_days"`
	SuccessRate   float64    `json:"success_rate"`
	LastCompleted *time.Time `json:"last_completed,omitempty"`
}

// TodayStats summarises completion across all habits for the current day.
type TodayStats struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// DateString formats a time as the date-only form used by entries.
func DateString(t time.Time) string {
	return t.Format("2006-01-02")
}

// IsValidCategory checks if a category is valid.
func IsValidCategory(c Category) bool {
	switch c {
	case CategorySmoking, CategoryDrinking, CategoryAdultContent,
		CategorySocialMedia, CategoryJunkFood, CategoryCustom:
		return true
	}
	return false
}

// NormalizeCategory converts alternate category spellings to canonical form.
// Accepts hyphenated forms ("junk-food") and a few shorthands.
func NormalizeCategory(s string) Category {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "_")) {
	case "smoking":
		return CategorySmoking
	case "drinking", "alcohol":
		return CategoryDrinking
	case "adult_content", "porn":
		return CategoryAdultContent
	case "social_media", "social":
		return CategorySocialMedia
	case "junk_food", "junkfood":
		return CategoryJunkFood
	case "custom":
		return CategoryCustom
	default:
		return Category(s)
	}
}

// Categories returns all valid categories in display order.
func Categories() []Category {
	return []Category{
		CategorySmoking,
		CategoryDrinking,
		CategoryAdultContent,
		CategorySocialMedia,
		CategoryJunkFood,
		CategoryCustom,
	}
}
