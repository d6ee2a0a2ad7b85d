package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dir2opus/internal/deps"
	"dir2opus/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Show the external tools dir2opus needs and whether they are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := preflight.CheckSystemDeps(cfg, nil)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderDepsTable(statuses, shouldColorize(out)))

			missing := deps.Missing(statuses)
			if len(missing) == 0 {
				fmt.Fprintln(out, "All required tools are available")
				return nil
			}
			fmt.Fprintf(out, "%d required tool(s) missing; install them or set [binaries] in the config\n", len(missing))
			return nil
		},
	}
}

func renderDepsTable(statuses []deps.Status, colorize bool) string {
	rows := make([][]string, 0, len(statuses))
	for _, status := range statuses {
		detail := status.Path
		if !status.Available {
			detail = status.Detail
		}
		rows = append(rows, []string{
			status.Name,
			status.Command,
			dependencyLabel(status, colorize),
			yesNo(!status.Optional),
			status.Description,
			detail,
		})
	}
	return renderTable(
		[]column{left("Tool"), left("Command"), left("Status"), left("Required"), left("Purpose"), left("Detail")},
		rows,
	)
}

func dependencyLabel(status deps.Status, colorize bool) string {
	label, color := "missing", ansiRed
	switch {
	case status.Available:
		label, color = "ok", ansiGreen
	case status.Optional:
		label, color = "missing", ansiYellow
	}
	if colorize {
		return color + label + ansiReset
	}
	return label
}
