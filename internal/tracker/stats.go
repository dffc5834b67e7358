package tracker

import (
	"sort"
	"time"

	"github.com/restrainapp/restrain/internal/models"
)

// HabitStats derives streaks and success rate for one habit from the
// in-memory entry collection. Optimistic temp entries are excluded; stats
// reflect only server-confirmed history.
func (t *Tracker) HabitStats(habitID string) models.HabitStats {
	t.mu.Lock()
	entries := make([]models.HabitEntry, 0, len(t.entries))
	for _, e := range t.entries {
		if e.HabitID == habitID && !models.IsTempID(e.ID) {
			entries = append(entries, e)
		}
	}
	now := t.opts.Clock()
	t.mu.Unlock()

	stats := models.HabitStats{HabitID: habitID}
	stats.TotalDays = len(entries)
	if len(entries) == 0 {
		return stats
	}

	completed := make(map[string]bool, len(entries))
	completedDays := 0
	var lastDone string
	for _, e := range entries {
		if !e.Completed {
			continue
		}
		completed[e.Date] = true
		completedDays++
		if e.Date > lastDone {
			lastDone = e.Date
		}
	}
	stats.SuccessRate = float64(completedDays) / float64(stats.TotalDays) * 100
	if lastDone != "" {
		if d, err := time.Parse("2006-01-02", lastDone); err == nil {
			stats.LastCompleted = &d
		}
	}

	// Current streak: consecutive completed days ending today. The first
	// missing day breaks it, so an unmarked today means zero.
	day := now
	for completed[models.DateString(day)] {
		stats.CurrentStreak++
		day = day.AddDate(0, 0, -1)
	}

	// Longest streak: longest run of calendar-adjacent completed days.
	dates := make([]string, 0, len(completed))
	for d := range completed {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	run := 0
	var prev time.Time
	for i, ds := range dates {
		d, err := time.Parse("2006-01-02", ds)
		if err != nil {
			continue
		}
		if i > 0 && d.Sub(prev) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > stats.LongestStreak {
			stats.LongestStreak = run
		}
		prev = d
	}
	return stats
}

// TodayStats summarizes the selected date across all visible habits.
// Like HabitStats it counts only server-confirmed entries.
func (t *Tracker) TodayStats() models.TodayStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	today := models.DateString(t.selected)
	stats := models.TodayStats{Total: len(t.habits)}
	for _, e := range t.entries {
		if e.Date == today && e.Completed && !models.IsTempID(e.ID) {
			stats.Completed++
		}
	}
	if stats.Total > 0 {
		stats.Percentage = float64(stats.Completed) / float64(stats.Total) * 100
	}
	return stats
}
