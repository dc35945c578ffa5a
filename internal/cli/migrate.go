package cli

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"pmtrack/internal/storage/sqlite"
)

var (
	appliedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748b"))
)

func (a *app) newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect schema migrations",
	}

	var to string
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore(sqlite.WithoutMigrations())
			if err != nil {
				return err
			}
			defer store.Close()

			r := store.Migrations()
			if to != "" {
				err = r.UpTo(to)
			} else {
				err = r.Up()
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
	up.Flags().StringVar(&to, "to", "", "stop after this migration id")

	var (
		steps  int
		downTo string
		all    bool
	)
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps <= 0 && downTo == "" && !all {
				return fmt.Errorf("--steps must be positive")
			}
			store, err := a.openStore(sqlite.WithoutMigrations())
			if err != nil {
				return err
			}
			defer store.Close()

			r := store.Migrations()
			var n int
			switch {
			case all:
				n, err = r.Reset()
			case downTo != "":
				n, err = r.DownTo(downTo)
			default:
				n, err = r.Down(steps)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", n)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	down.Flags().StringVar(&downTo, "to", "", "roll back everything applied after this migration id")
	down.Flags().BoolVar(&all, "all", false, "roll back every migration")

	var asJSON bool
	status := &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore(sqlite.WithoutMigrations())
			if err != nil {
				return err
			}
			defer store.Close()

			states, err := store.Migrations().Status()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(states)
			}
			pending := 0
			for _, s := range states {
				mark := appliedStyle.Render("applied")
				if !s.Applied {
					mark = pendingStyle.Render("pending")
					pending++
				}
				fmt.Fprintf(out, "%-48s %s\n", s.ID, mark)
			}
			fmt.Fprintf(out, "%d migration(s), %d pending\n", len(states), pending)
			return nil
		},
	}
	status.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	cmd.AddCommand(up, down, status)
	return cmd
}
