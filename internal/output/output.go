// Package output provides styled terminal output helpers (success, error,
// warning, habit formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/restrainapp/restrain/internal/models"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	streakStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	categoryStyles = map[models.Category]lipgloss.Style{
		models.CategorySmoking:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		models.CategoryDrinking:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.CategoryAdultContent: lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		models.CategorySocialMedia:  lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.CategoryJunkFood:     lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		models.CategoryCustom:       lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	}
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// FormatCategory formats a category with color
func FormatCategory(c models.Category) string {
	style, ok := categoryStyles[c]
	if !ok {
		return string(c)
	}
	return style.Render(fmt.Sprintf("[%s]", c))
}

// FormatStreak renders a streak count with a flame when it is alive
func FormatStreak(days int) string {
	if days == 0 {
		return subtleStyle.Render("no streak")
	}
	unit := "days"
	if days == 1 {
		unit = "day"
	}
	return streakStyle.Render(fmt.Sprintf("🔥 %d %s", days, unit))
}

// FormatCompletion renders today's completion marker for a habit
func FormatCompletion(completed, pending bool) string {
	switch {
	case pending:
		return pendingStyle.Render("~")
	case completed:
		return doneStyle.Render("✓")
	default:
		return subtleStyle.Render("·")
	}
}

// FormatHabitShort formats a habit on one line: marker, name, category,
// streak
func FormatHabitShort(h *models.Habit, stats models.HabitStats, completed, pending bool) string {
	parts := []string{
		FormatCompletion(completed, pending),
		titleStyle.Render(h.Name),
		FormatCategory(h.Category),
	}
	if stats.CurrentStreak > 0 {
		parts = append(parts, FormatStreak(stats.CurrentStreak))
	}
	if h.Description != "" {
		parts = append(parts, subtleStyle.Render(h.Description))
	}
	return strings.Join(parts, "  ")
}

// FormatHabitLong formats a habit with full stats over several lines
func FormatHabitLong(h *models.Habit, stats models.HabitStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s  %s\n", h.Icon, titleStyle.Render(h.Name), FormatCategory(h.Category))
	if h.Description != "" {
		fmt.Fprintf(&b, "  %s\n", subtleStyle.Render(h.Description))
	}
	fmt.Fprintf(&b, "  streak: %s   longest: %d   success: %.0f%%   tracked days: %d\n",
		FormatStreak(stats.CurrentStreak), stats.LongestStreak, stats.SuccessRate, stats.TotalDays)
	fmt.Fprintf(&b, "  %s\n", subtleStyle.Render("id: "+h.ID+"  since "+models.DateString(h.StartDate)))
	return b.String()
}

// FormatTodaySummary renders the day's completion line
func FormatTodaySummary(s models.TodayStats) string {
	if s.Total == 0 {
		return subtleStyle.Render("no habits tracked yet")
	}
	line := fmt.Sprintf("%d/%d habits held today (%.0f%%)", s.Completed, s.Total, s.Percentage)
	if s.Completed == s.Total {
		return successStyle.Render(line + "  perfect day!")
	}
	return line
}
