package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/restrainapp/restrain/internal/backend"
	"github.com/restrainapp/restrain/internal/config"
	"github.com/restrainapp/restrain/internal/output"
	"github.com/restrainapp/restrain/internal/tracker"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Follow live changes from other devices",
	GroupID: "insight",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := config.LoadCredentials()
		if err != nil {
			return err
		}
		if creds == nil || creds.APIKey == "" {
			return fmt.Errorf("not logged in: run 'restrain login' first")
		}

		serverURL := config.ServerURL()
		client := backend.New(serverURL, creds.APIKey)
		feed := backend.NewStream(serverURL, creds.APIKey)

		tr := tracker.New(client, feed, creds.UserID, tracker.Options{})
		if err := tr.Start(cmd.Context()); err != nil {
			return err
		}
		defer tr.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		output.Info("Watching for changes (Ctrl-C to stop)...")
		last := tr.TodayStats()
		fmt.Println(output.FormatTodaySummary(last))

		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				now := tr.TodayStats()
				if now != last {
					fmt.Println(output.FormatTodaySummary(now))
					last = now
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
