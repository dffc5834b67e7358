package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/restrainapp/restrain/internal/backend"
	"github.com/restrainapp/restrain/internal/config"
	"github.com/restrainapp/restrain/internal/output"
)

var (
	loginAPIKey string
	loginUserID string
	loginEmail  string
	loginServer string
)

var loginCmd = &cobra.Command{
	Use:     "login",
	Short:   "Store credentials for the habit server",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		apiKey := loginAPIKey
		userID := loginUserID

		if apiKey == "" || userID == "" {
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("API key").
						Value(&apiKey).
						EchoMode(huh.EchoModePassword).
						Validate(func(s string) error {
							if strings.TrimSpace(s) == "" {
								return errors.New("api key required")
							}
							return nil
						}),
					huh.NewInput().
						Title("User ID").
						Value(&userID).
						Placeholder("uuid from your account page").
						Validate(func(s string) error {
							if strings.TrimSpace(s) == "" {
								return errors.New("user id required")
							}
							return nil
						}),
				).Title("Log in to restrain"),
			)
			if err := form.Run(); err != nil {
				return fmt.Errorf("login form: %w", err)
			}
		}

		apiKey = strings.TrimSpace(apiKey)
		userID = strings.TrimSpace(userID)
		if apiKey == "" {
			return fmt.Errorf("api key required")
		}
		if userID == "" {
			return fmt.Errorf("user id required")
		}

		if loginServer != "" {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cfg.ServerURL = loginServer
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
		}

		// Verify before persisting credentials.
		client := backend.New(config.ServerURL(), apiKey)
		ctx, cancel := contextWithTimeout(cmd, 5*time.Second)
		defer cancel()
		if err := client.Health(ctx); err != nil {
			output.Error("cannot reach server at %s: %v", config.ServerURL(), err)
			return err
		}

		deviceID, err := config.GenerateDeviceID()
		if err != nil {
			return err
		}
		if err := config.SaveCredentials(&config.Credentials{
			APIKey:   apiKey,
			UserID:   userID,
			Email:    loginEmail,
			DeviceID: deviceID,
		}); err != nil {
			return fmt.Errorf("save credentials: %w", err)
		}

		output.Success("Logged in. Credentials stored in ~/.config/restrain/auth.json")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	Short:   "Remove stored credentials",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ClearCredentials(); err != nil {
			return err
		}
		output.Success("Logged out")
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginAPIKey, "api-key", "", "API key (prompted if omitted)")
	loginCmd.Flags().StringVar(&loginUserID, "user-id", "", "user id (prompted if omitted)")
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email, stored for reference")
	loginCmd.Flags().StringVar(&loginServer, "server", "", "server URL to store in config")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
