package journal

import (
	"database/sql"
	"fmt"
	"time"
)

const entryColumns = "id, run_id, source_path, output_path, format, decoder, mode, state, failed_stage, error_message, tag_count, input_deleted, started_at, finished_at"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		entry        Entry
		output       sql.NullString
		decoder      sql.NullString
		mode         sql.NullString
		failedStage  sql.NullString
		errorMessage sql.NullString
		inputDeleted int
		startedRaw   string
		finishedRaw  string
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.RunID,
		&entry.Source,
		&output,
		&entry.Format,
		&decoder,
		&mode,
		&entry.State,
		&failedStage,
		&errorMessage,
		&entry.TagCount,
		&inputDeleted,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return Entry{}, fmt.Errorf("scan conversion: %w", err)
	}
	entry.Output = output.String
	entry.Decoder = decoder.String
	entry.Mode = mode.String
	entry.FailedStage = failedStage.String
	entry.Error = errorMessage.String
	entry.InputDeleted = inputDeleted != 0
	entry.StartedAt = parseTime(startedRaw)
	entry.FinishedAt = parseTime(finishedRaw)
	return entry, nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
