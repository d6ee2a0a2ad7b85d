package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dir2opus/internal/config"
)

// Options describes logger construction parameters.
//
// OutputPaths receive records below WARN and ErrorOutputPaths receive WARN and
// above. A path listed in both receives every record.
type Options struct {
	Level            string
	Format           string
	OutputPaths      []string
	ErrorOutputPaths []string
	Development      bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)

	routes, err := openRoutes(
		defaultSlice(opts.OutputPaths, []string{"stdout"}),
		defaultSlice(opts.ErrorOutputPaths, []string{"stderr"}),
	)
	if err != nil {
		return nil, err
	}

	addSource := opts.Development || level <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}

	handlers := make([]slog.Handler, 0, len(routes))
	for _, r := range routes {
		var handler slog.Handler
		switch format {
		case "json":
			handler = newJSONHandler(r.writer, levelVar, addSource)
		case "console":
			handler = newPrettyHandler(r.writer, levelVar, addSource)
		default:
			return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
		}
		handlers = append(handlers, newLevelRangeHandler(handler, r.min, r.max))
	}

	return slog.New(newFanoutHandler(handlers...)), nil
}

// NewFromConfig creates a logger using application config defaults. When a
// log directory is configured each run writes its own file there, and files
// older than the retention window are pruned.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console"})
	}

	outputPaths := []string{"stdout"}
	errorOutputs := []string{"stderr"}
	var logPath string
	started := time.Now()
	if cfg.Paths.LogDir != "" {
		if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		logPath = RunLogPath(cfg.Paths.LogDir, started)
		outputPaths = append(outputPaths, logPath)
		errorOutputs = append(errorOutputs, logPath)
	}

	logger, err := New(Options{
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		OutputPaths:      outputPaths,
		ErrorOutputPaths: errorOutputs,
	})
	if err != nil {
		return nil, err
	}
	if logPath != "" {
		PruneRunLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, started, logPath)
	}
	return logger, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info", "":
		return slog.LevelInfo
	default:
		return slog.LevelInfo
	}
}

func defaultSlice(value []string, fallback []string) []string {
	if len(value) == 0 {
		cp := make([]string, len(fallback))
		copy(cp, fallback)
		return cp
	}
	cp := make([]string, len(value))
	copy(cp, value)
	return cp
}

type route struct {
	writer io.Writer
	min    slog.Level
	max    slog.Level
}

const (
	levelFloor   = slog.Level(-1 << 10)
	levelCeiling = slog.Level(1 << 10)
)

// openRoutes resolves output targets into writers paired with the level band
// each one accepts.
func openRoutes(outputPaths []string, errorPaths []string) ([]route, error) {
	type band struct {
		low, high bool
	}
	order := make([]string, 0, len(outputPaths)+len(errorPaths))
	bands := map[string]*band{}
	add := func(paths []string, low bool) {
		for _, path := range paths {
			trimmed := strings.TrimSpace(path)
			if trimmed == "" {
				continue
			}
			b, ok := bands[trimmed]
			if !ok {
				b = &band{}
				bands[trimmed] = b
				order = append(order, trimmed)
			}
			if low {
				b.low = true
			} else {
				b.high = true
			}
		}
	}
	add(outputPaths, true)
	add(errorPaths, false)

	routes := make([]route, 0, len(order))
	for _, target := range order {
		w, err := openTarget(target)
		if err != nil {
			return nil, err
		}
		r := route{writer: w, min: levelFloor, max: levelCeiling}
		b := bands[target]
		switch {
		case b.low && !b.high:
			r.max = slog.LevelWarn - 1
		case b.high && !b.low:
			r.min = slog.LevelWarn
		}
		routes = append(routes, r)
	}
	return routes, nil
}

func openTarget(target string) (io.Writer, error) {
	switch target {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	if err := ensureLogDir(target); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", target, err)
	}
	return file, nil
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
