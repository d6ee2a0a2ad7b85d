package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	runLogPrefix = "dir2opus-"
	runLogSuffix = ".log"
	runLogStamp  = "20060102T150405Z"
)

// RunLogPath returns the per-run log file name for a run started at ts.
func RunLogPath(dir string, ts time.Time) string {
	return filepath.Join(dir, runLogPrefix+ts.UTC().Format(runLogStamp)+runLogSuffix)
}

// runLogStart recovers the run start time from a file name produced by
// RunLogPath.
func runLogStart(name string) (time.Time, bool) {
	stamp, ok := strings.CutPrefix(name, runLogPrefix)
	if !ok {
		return time.Time{}, false
	}
	stamp, ok = strings.CutSuffix(stamp, runLogSuffix)
	if !ok {
		return time.Time{}, false
	}
	started, err := time.Parse(runLogStamp, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return started, true
}

// PruneRunLogs removes run logs in dir whose run started more than
// retentionDays before now and returns how many were removed. Age comes from
// the timestamp in the file name, so copied or touched logs keep their age.
// Files RunLogPath did not name, and current, are never removed. A
// retentionDays of 0 keeps everything.
func PruneRunLogs(logger *slog.Logger, dir string, retentionDays int, now time.Time, current string) int {
	if retentionDays <= 0 || strings.TrimSpace(dir) == "" {
		return 0
	}
	if logger == nil {
		logger = NewNop()
	}
	cutoff := now.AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(dir)
	if err != nil {
		WarnWithContext(logger, "log retention skipped", "log_retention_failed",
			String("dir", dir),
			Error(err),
			String(FieldImpact, "old run logs remain on disk"),
		)
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		started, ok := runLogStart(entry.Name())
		if !ok || !started.Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if path == current {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check permissions on the log directory"),
				String(FieldImpact, "old run log remains on disk"),
			)
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.Info("run logs pruned",
			String(FieldEventType, "log_pruned"),
			Int("removed", removed),
			Int("retention_days", retentionDays),
		)
	}
	return removed
}
