package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pmtrack/internal/ui"
)

func (a *app) newProjectsCommand() *cobra.Command {
	var (
		width    int
		perRow   int
		asJSON   bool
		progress string
	)
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Print project cards with their progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tokens, err := ui.LoadTokens(a.cfg.UI.TokensFile)
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var cards []ui.ProjectCard
			err = withIndicator(cmd.Context(), cmd.ErrOrStderr(), progress, "loading projects", func(ctx context.Context) error {
				projects, err := store.ListProjects(ctx)
				if err != nil {
					return err
				}
				stats, err := store.ProjectStats(ctx)
				if err != nil {
					return err
				}
				cards = ui.BuildProjectCards(projects, stats, tokens)
				return nil
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, cards)
			}
			fmt.Fprintln(out, ui.RenderCards(cards, width, perRow))
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 36, "card width in cells")
	cmd.Flags().IntVar(&perRow, "per-row", 3, "cards per row")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print cards as JSON")
	cmd.Flags().StringVar(&progress, "progress", "", "show a loading indicator: spinner, dots or bar")
	return cmd
}

// withIndicator runs fn while the chosen indicator animates on w. An empty
// variant runs fn without one.
func withIndicator(ctx context.Context, w io.Writer, variant, label string, fn func(context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if variant == "" {
		return fn(ctx)
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ui.NewIndicator(ui.Variant(variant), label).Run(runCtx, w)
	}()
	err := fn(ctx)
	cancel()
	<-done
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
