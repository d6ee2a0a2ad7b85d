package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"dir2opus/internal/convert"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

const maxDetailWidth = 60

var titleCaser = cases.Title(language.English)

// stateLabel turns DECODE_FAILED into "Decode Failed".
func stateLabel(state string) string {
	words := strings.ToLower(strings.ReplaceAll(state, "_", " "))
	return titleCaser.String(words)
}

func stateColor(state convert.State) string {
	switch {
	case state == convert.StateDone:
		return ansiGreen
	case state == convert.StateTagFailed, state == convert.StateSkipped:
		return ansiYellow
	case state.Failed():
		return ansiRed
	default:
		return ""
	}
}

func renderState(state convert.State, colorize bool) string {
	label := stateLabel(string(state))
	if colorize {
		if color := stateColor(state); color != "" {
			return color + label + ansiReset
		}
	}
	return label
}

func renderSummary(w io.Writer, summary convert.Summary, colorize bool) {
	if len(summary.Outcomes) == 0 {
		fmt.Fprintln(w, "No files were converted")
		return
	}
	rows := make([][]string, 0, len(summary.Outcomes))
	for _, o := range summary.Outcomes {
		rows = append(rows, []string{
			filepath.Base(o.Source),
			renderState(o.State, colorize),
			string(o.Mode),
			dash(o.Decoder),
			formatDuration(o.Duration()),
			outcomeDetail(o),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]column{left("Source"), left("State"), left("Mode"), left("Decoder"), right("Time"), left("Detail")},
		rows,
	))
	fmt.Fprintf(w, "%d done, %d skipped, %d failed (%d tag write failures) in run %s\n",
		summary.Count(convert.StateDone),
		summary.Count(convert.StateSkipped),
		summary.Failed(),
		summary.Count(convert.StateTagFailed),
		summary.RunID,
	)
	if summary.Interrupted {
		fmt.Fprintln(w, "Run interrupted; remaining files were not converted")
	}
}

func outcomeDetail(o convert.Outcome) string {
	if o.Err != nil {
		return truncate(o.Err.Error(), maxDetailWidth)
	}
	parts := []string{}
	if o.TagCount > 0 {
		parts = append(parts, fmt.Sprintf("%d tags", o.TagCount))
	}
	if o.InputDeleted {
		parts = append(parts, "input deleted")
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ", ")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(10 * time.Millisecond).String()
}

func truncate(value string, width int) string {
	value = strings.TrimSpace(strings.ReplaceAll(value, "\n", " "))
	runes := []rune(value)
	if len(runes) <= width {
		return value
	}
	return string(runes[:width-3]) + "..."
}

func dash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
