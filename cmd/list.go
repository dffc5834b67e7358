package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/restrainapp/restrain/internal/models"
	"github.com/restrainapp/restrain/internal/output"
)

var listLong bool

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tracked habits with today's state",
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		habits, entries, err := s.state()
		if err != nil {
			return err
		}

		if jsonMode {
			return output.JSON(map[string]any{
				"habits":  habits,
				"entries": entries,
				"online":  s.online,
			})
		}

		if !s.online {
			output.Warning("Offline: showing last synced state")
		}
		if len(habits) == 0 {
			output.Info("No habits tracked yet. Start with: restrain add <name>")
			return nil
		}

		today := models.DateString(time.Now())
		for _, h := range habits {
			var completed, pending bool
			for _, e := range entries {
				if e.HabitID == h.ID && e.Date == today {
					completed = e.Completed
					pending = models.IsTempID(e.ID)
					break
				}
			}
			var stats models.HabitStats
			if s.tr != nil {
				stats = s.tr.HabitStats(h.ID)
			}
			if listLong {
				fmt.Println(output.FormatHabitLong(&h, stats))
			} else {
				fmt.Println(output.FormatHabitShort(&h, stats, completed, pending))
			}
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVarP(&listLong, "long", "l", false, "show full details")
	rootCmd.AddCommand(listCmd)
}
