package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/restrainapp/restrain/internal/backend"
	"github.com/restrainapp/restrain/internal/config"
	"github.com/restrainapp/restrain/internal/output"
	"github.com/restrainapp/restrain/internal/tracker"
	"github.com/restrainapp/restrain/pkg/monitor"
)

var monitorInterval time.Duration

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live TUI dashboard for today's habits",
	Long: `Launch a live-updating dashboard showing today's habits, streaks, and
sync state. Changes made on other devices appear as they happen.

Key bindings:
  ↑/↓, j/k   Select habit
  Space      Toggle today's completion
  r          Force refresh
  ?          Toggle help
  q          Quit`,
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
			output.Error("%v", err)
			return err
		}
		defer tr.Close()

		interval := monitorInterval
		if interval < 500*time.Millisecond {
			interval = 2 * time.Second
		}

		model := monitor.NewModel(tr, interval, version)
		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running monitor: %w", err)
		}
		return nil
	},
}

func init() {
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 2*time.Second, "refresh interval")
	rootCmd.AddCommand(monitorCmd)
}
