package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/restrainapp/restrain/internal/localdb"
	"github.com/restrainapp/restrain/internal/models"
	"github.com/restrainapp/restrain/internal/motivation"
	"github.com/restrainapp/restrain/internal/output"
)

var (
	doneUndo  bool
	doneNotes string
	doneDate  string
)

var doneCmd = &cobra.Command{
	Use:     "done <habit>",
	Aliases: []string{"mark"},
	Short:   "Mark a habit as held for the day",
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		h, err := s.findHabit(args[0])
		if err != nil {
			return err
		}

		selected := time.Now()
		if doneDate != "" {
			d, err := time.Parse("2006-01-02", doneDate)
			if err != nil {
				return fmt.Errorf("invalid date %q, want YYYY-MM-DD", doneDate)
			}
			selected = d
		}
		date := models.DateString(selected)
		completed := !doneUndo

		if !s.online {
			if err := s.db.Enqueue(localdb.KindToggle, localdb.Toggle{
				HabitID:   h.ID,
				Date:      date,
				Completed: completed,
				Notes:     doneNotes,
			}); err != nil {
				return err
			}
			output.Warning("Offline: change to %q queued for %s", h.Name, date)
			return nil
		}

		if doneDate != "" {
			s.tr.SetSelectedDate(selected)
		}
		if err := s.tr.ToggleEntry(h.ID, completed, doneNotes); err != nil {
			output.Error("toggle: %v", err)
			return err
		}
		if !s.settle(10 * time.Second) {
			output.Warning("Change applied locally but not yet confirmed by the server")
			return nil
		}
		if msg, ok := s.tr.ErrorFor("toggle-" + h.ID); ok {
			output.Error("%s", msg)
			return fmt.Errorf("%s", msg)
		}

		if err := s.db.SaveSnapshot(s.tr.Habits(), s.tr.Entries()); err != nil {
			slog.Warn("saving snapshot failed", "err", err)
		}

		if !completed {
			output.Info("Unmarked %q for %s", h.Name, date)
			return nil
		}
		output.Success("%q held for %s", h.Name, date)
		stats := s.tr.HabitStats(h.ID)
		if note := motivation.ForStreak(stats.CurrentStreak); note != "" {
			fmt.Print(note)
		} else {
			fmt.Print(motivation.ForDay(h.Category))
		}
		return nil
	},
}

func init() {
	doneCmd.Flags().BoolVar(&doneUndo, "undo", false, "unmark instead of mark")
	doneCmd.Flags().StringVarP(&doneNotes, "notes", "n", "", "note to store with the entry")
	doneCmd.Flags().StringVar(&doneDate, "date", "", "date to mark (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(doneCmd)
}
