package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/restrainapp/restrain/internal/config"
	"github.com/restrainapp/restrain/internal/logging"
)

var (
	version  string
	verbose  bool
	jsonMode bool
)

// SetVersion sets the version string
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "restrain",
	Short: "Track the habits you are quitting, online or off",
	Long: `restrain - A habit tracker for things you are giving up.

Mark each day you held out, watch your streaks grow, and keep working
when the network doesn't: changes queue locally and sync when the
server is back.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		dir, err := config.Dir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logging.Setup(dir, verbose)
	},
}

// Execute runs the root command
func Execute() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "mirror logs to stderr at debug level")
	rootCmd.PersistentFlags().BoolVar(&jsonMode, "json", false, "machine-readable JSON output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "core", Title: "Core Commands:"},
		&cobra.Group{ID: "insight", Title: "Insight Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)
	rootCmd.SetHelpCommandGroupID("system")
	rootCmd.SetCompletionCommandGroupID("system")
}

func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), d)
}
