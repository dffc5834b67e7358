package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/restrainapp/restrain/internal/localdb"
	"github.com/restrainapp/restrain/internal/models"
	"github.com/restrainapp/restrain/internal/output"
)

var (
	addCategory = categoryValue(models.CategoryCustom)
	addColor    string
	addIcon     string
	addDesc     string
)

// categoryValue is a pflag.Value that validates and normalizes the
// category at parse time, so bad input fails before a session is opened.
type categoryValue models.Category

var _ pflag.Value = (*categoryValue)(nil)

func (c *categoryValue) String() string { return string(*c) }

func (c *categoryValue) Set(s string) error {
	cat := models.NormalizeCategory(s)
	if !models.IsValidCategory(cat) {
		return fmt.Errorf("invalid category %q (valid: %v)", s, models.Categories())
	}
	*c = categoryValue(cat)
	return nil
}

func (c *categoryValue) Type() string { return "category" }

var addCmd = &cobra.Command{
	Use:     "add <name>",
	Short:   "Start tracking a habit you are giving up",
	GroupID: "core",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		category := models.Category(addCategory)

		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		now := time.Now()
		habit := models.Habit{
			Name:        name,
			Category:    category,
			Color:       addColor,
			Icon:        addIcon,
			IsCustom:    category == models.CategoryCustom,
			Description: addDesc,
			StartDate:   now,
			IsActive:    true,
		}

		if !s.online {
			if err := s.db.Enqueue(localdb.KindAddHabit, localdb.AddHabit{Habit: habit}); err != nil {
				return err
			}
			output.Warning("Offline: %q queued, it will sync when the server is reachable", name)
			return nil
		}

		if err := s.tr.AddHabit(cmd.Context(), habit); err != nil {
			output.Error("add habit: %v", err)
			return err
		}
		if err := s.db.SaveSnapshot(s.tr.Habits(), s.tr.Entries()); err != nil {
			slog.Warn("saving snapshot failed", "err", err)
		}
		if jsonMode {
			return output.JSON(s.tr.Habits())
		}
		output.Success("Tracking %q (%s)", name, category)
		return nil
	},
}

func init() {
	addCmd.Flags().VarP(&addCategory, "category", "c", "habit category")
	addCmd.Flags().StringVar(&addColor, "color", "#6366f1", "display color")
	addCmd.Flags().StringVar(&addIcon, "icon", "🚫", "display icon")
	addCmd.Flags().StringVarP(&addDesc, "desc", "d", "", "description")
	rootCmd.AddCommand(addCmd)
}
