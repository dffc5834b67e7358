package motivation

import (
	"strings"
	"testing"

	"github.com/restrainapp/restrain/internal/models"
)

func TestForDayCoversAllCategories(t *testing.T) {
	for _, c := range models.Categories() {
		if got := ForDay(c); strings.TrimSpace(got) == "" {
			t.Errorf("ForDay(%s) is empty", c)
		}
	}
	if got := ForDay(models.Category("unknown")); strings.TrimSpace(got) == "" {
		t.Error("unknown category should fall back to the generic note")
	}
}

func TestForStreakMilestones(t *testing.T) {
	if got := ForStreak(7); !strings.Contains(got, "7") {
		t.Errorf("ForStreak(7) = %q", got)
	}
	if got := ForStreak(5); got != "" {
		t.Errorf("ForStreak(5) = %q, want empty (not a milestone)", got)
	}
}
