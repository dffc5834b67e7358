package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/restrainapp/restrain/internal/models"
	"github.com/restrainapp/restrain/internal/motivation"
	"github.com/restrainapp/restrain/internal/output"
)

var statsCmd = &cobra.Command{
	Use:     "stats [habit]",
	Short:   "Show streaks and success rates",
	GroupID: "insight",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		if s.tr == nil {
			return fmt.Errorf("stats need a server connection; try again when online")
		}

		if len(args) == 1 {
			h, err := s.findHabit(args[0])
			if err != nil {
				return err
			}
			stats := s.tr.HabitStats(h.ID)
			if jsonMode {
				return output.JSON(stats)
			}
			fmt.Print(output.FormatHabitLong(&h, stats))
			if note := motivation.ForStreak(stats.CurrentStreak); note != "" {
				fmt.Print(note)
			}
			return nil
		}

		today := s.tr.TodayStats()
		if jsonMode {
			all := make(map[string]models.HabitStats)
			for _, h := range s.tr.Habits() {
				all[h.ID] = s.tr.HabitStats(h.ID)
			}
			return output.JSON(map[string]any{"today": today, "habits": all})
		}

		fmt.Println(output.FormatTodaySummary(today))
		fmt.Println()
		for _, h := range s.tr.Habits() {
			stats := s.tr.HabitStats(h.ID)
			fmt.Printf("%-28s %s  (longest %d, %.0f%%)\n",
				h.Name, output.FormatStreak(stats.CurrentStreak), stats.LongestStreak, stats.SuccessRate)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
