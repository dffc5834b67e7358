package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/restrainapp/restrain/internal/output"
)

var refreshCmd = &cobra.Command{
	Use:     "refresh",
	Short:   "Force a fresh pull from the server",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		if s.tr == nil {
			return fmt.Errorf("cannot refresh while offline")
		}
		if err := s.tr.Refresh(cmd.Context()); err != nil {
			output.Error("refresh: %v", err)
			return err
		}
		if err := s.db.SaveSnapshot(s.tr.Habits(), s.tr.Entries()); err != nil {
			return err
		}
		output.Success("Refreshed: %d habits, %d entries", len(s.tr.Habits()), len(s.tr.Entries()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
