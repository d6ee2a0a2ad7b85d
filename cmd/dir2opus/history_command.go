package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"dir2opus/internal/convert"
	"dir2opus/internal/journal"
)

const defaultHistoryLimit = 20

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		failed bool
		runID  string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded conversions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !cfg.Journal.Enabled {
				fmt.Fprintln(out, "Conversion journal is disabled (journal.enabled = false)")
				return nil
			}
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative, got %d", limit)
			}

			store, err := journal.Open(cfg.JournalPath())
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			filter := journal.Filter{Limit: limit, RunID: runID}
			if failed {
				for _, state := range convert.FailedStates() {
					filter.States = append(filter.States, state.String())
				}
			}
			entries, err := store.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No conversions recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(entries, shouldColorize(out)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "Maximum number of entries to show (0 for all)")
	cmd.Flags().BoolVar(&failed, "failed", false, "Only show failed conversions")
	cmd.Flags().StringVar(&runID, "run", "", "Only show conversions from this run ID")
	return cmd
}

func renderHistoryTable(entries []journal.Entry, colorize bool) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		detail := e.Error
		if detail == "" && e.InputDeleted {
			detail = "input deleted"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", e.ID),
			e.FinishedAt.Local().Format(time.DateTime),
			renderState(convert.State(e.State), colorize),
			dash(e.Mode),
			filepath.Base(e.Source),
			truncate(detail, maxDetailWidth),
		})
	}
	return renderTable(
		[]column{right("ID"), left("Finished"), left("State"), left("Mode"), left("Source"), left("Detail")},
		rows,
	)
}
