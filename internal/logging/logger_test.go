package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dir2opus/internal/config"
	"dir2opus/internal/logging"
	"dir2opus/internal/services"
)

func TestNewFromConfigConsole(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger instance")
	}
	logger.Debug("debug message")

	matches, err := filepath.Glob(filepath.Join(cfg.Paths.LogDir, "dir2opus-*.log"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one run log file, got %v", matches)
	}
}

func TestNewFromConfigPrunesOldRunLogs(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.RetentionDays = 7

	stale := logging.RunLogPath(cfg.Paths.LogDir, time.Now().AddDate(0, 0, -30))
	if err := os.WriteFile(stale, []byte("old\n"), 0o644); err != nil {
		t.Fatalf("write stale log: %v", err)
	}
	old := time.Now().AddDate(0, 0, -30)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	unrelated := filepath.Join(cfg.Paths.LogDir, "notes.txt")
	if err := os.WriteFile(unrelated, []byte("keep"), 0o644); err != nil {
		t.Fatalf("write unrelated: %v", err)
	}
	if err := os.Chtimes(unrelated, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	if _, err := logging.NewFromConfig(&cfg); err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale run log to be pruned, stat err=%v", err)
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Fatalf("expected unrelated file to survive: %v", err)
	}
}

func TestPruneRunLogsUsesRunTimestamp(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	write := func(name string) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("log\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	stale := logging.RunLogPath(dir, now.AddDate(0, 0, -10))
	write(filepath.Base(stale))
	fresh := write(filepath.Base(logging.RunLogPath(dir, now.AddDate(0, 0, -1))))
	current := write(filepath.Base(logging.RunLogPath(dir, now.AddDate(0, 0, -20))))
	malformed := write("dir2opus-latest.log")
	foreign := write("other-20200101T000000Z.log")

	if removed := logging.PruneRunLogs(logging.NewNop(), dir, 7, now, current); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale run log to be pruned, stat err=%v", err)
	}
	for _, kept := range []string{fresh, current, malformed, foreign} {
		if _, err := os.Stat(kept); err != nil {
			t.Fatalf("expected %s to survive: %v", filepath.Base(kept), err)
		}
	}

	if removed := logging.PruneRunLogs(logging.NewNop(), dir, 0, now.AddDate(1, 0, 0), ""); removed != 0 {
		t.Fatalf("zero retention must keep everything, removed %d", removed)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")

	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "debug",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestLoggerSplitsLevelsBetweenOutputs(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.log")
	errPath := filepath.Join(dir, "err.log")

	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{outPath},
		ErrorOutputPaths: []string{errPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "convert")

	logger.Info("job finished", logging.String("state", "DONE"))
	logging.WarnWithContext(logger, "tag write failed", "tag_write_failed", logging.String("kind", "parse"))

	out, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read stdout log: %v", err)
	}
	errOut, err := os.ReadFile(errPath)
	if err != nil {
		t.Fatalf("read stderr log: %v", err)
	}

	if !strings.Contains(string(out), "INFO convert: job finished state=DONE") {
		t.Fatalf("unexpected stdout content: %q", out)
	}
	if strings.Contains(string(out), "WARN") {
		t.Fatalf("warning leaked into stdout: %q", out)
	}
	if !strings.Contains(string(errOut), "WARN convert: tag write failed") {
		t.Fatalf("unexpected stderr content: %q", errOut)
	}
	for _, field := range []string{"kind=parse", "event_type=tag_write_failed", "impact="} {
		if !strings.Contains(string(errOut), field) {
			t.Fatalf("expected %s in warning line: %q", field, errOut)
		}
	}
	if strings.Contains(string(errOut), "INFO") {
		t.Fatalf("info leaked into stderr: %q", errOut)
	}
}

func TestNewJSONLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "debug", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("json message", logging.String("k", "v"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &entry); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, content)
	}
	if entry["msg"] != "json message" || entry["level"] != "info" || entry["k"] != "v" {
		t.Fatalf("unexpected json entry: %v", entry)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	logger, err := logging.New(logging.Options{Format: "console", Level: "invalid"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug disabled at default level")
	}
	if !logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected info enabled at default level")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithSource(ctx, "/music/a.mp3")
	ctx = services.WithStage(ctx, "decode")

	logPath := filepath.Join(t.TempDir(), "ctx.log")
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "convert")

	logging.WithContext(ctx, logger).Info("contextual log")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "convert/decode: contextual log") {
		t.Fatalf("expected component/stage prefix, got %q", line)
	}
	for _, want := range []string{"run_id=run-123", "source=/music/a.mp3"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in %q", want, line)
		}
	}
}
