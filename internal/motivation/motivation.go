// Package motivation renders short encouragement notes shown after a day
// is marked done or a streak milestone is reached.
package motivation

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/restrainapp/restrain/internal/models"
)

var notes = map[models.Category]string{
	models.CategorySmoking:      "**Another smoke-free day.** Your lungs started repairing themselves within hours of your last cigarette.",
	models.CategoryDrinking:     "**Clear head, clear day.** Better sleep and steadier energy are already on their way.",
	models.CategoryAdultContent: "**One more day of keeping your attention where you want it.**",
	models.CategorySocialMedia:  "**You kept the scroll at bay.** That reclaimed time is yours.",
	models.CategoryJunkFood:     "**You said no to the easy snack.** Small choices compound.",
	models.CategoryCustom:       "**Held the line today.** That is what building a new habit looks like.",
}

var milestones = map[int]string{
	3:   "Three days in a row. The hardest part is behind you.",
	7:   "A full week! This is becoming who you are.",
	30:  "Thirty days. A month of proof that you can do this.",
	100: "One hundred days. Extraordinary.",
}

// ForDay returns a rendered note for marking a category's habit done.
func ForDay(c models.Category) string {
	md, ok := notes[c]
	if !ok {
		md = notes[models.CategoryCustom]
	}
	return render(md)
}

// ForStreak returns a rendered milestone note, or "" when the streak is
// not at a milestone.
func ForStreak(days int) string {
	md, ok := milestones[days]
	if !ok {
		return ""
	}
	return render(fmt.Sprintf("🔥 **%d-day streak!** %s", days, md))
}

func render(md string) string {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		return md
	}
	return out
}
