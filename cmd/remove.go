package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/restrainapp/restrain/internal/localdb"
	"github.com/restrainapp/restrain/internal/output"
)

var removeCmd = &cobra.Command{
	Use:     "remove <habit>",
	Aliases: []string{"rm"},
	Short:   "Stop tracking a habit (history is kept)",
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

		if !s.online {
			if err := s.db.Enqueue(localdb.KindRemoveHabit, localdb.RemoveHabit{HabitID: h.ID}); err != nil {
				return err
			}
			output.Warning("Offline: removal of %q queued", h.Name)
			return nil
		}

		if err := s.tr.RemoveHabit(cmd.Context(), h.ID); err != nil {
			output.Error("remove habit: %v", err)
			return err
		}
		if err := s.db.SaveSnapshot(s.tr.Habits(), s.tr.Entries()); err != nil {
			slog.Warn("saving snapshot failed", "err", err)
		}
		output.Success("Stopped tracking %q", h.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
