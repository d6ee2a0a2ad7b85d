package logging

import (
	"context"
	"log/slog"
)

// levelRangeHandler forwards only records whose level falls inside
// [min, max] so one logger can split output between stdout and stderr.
type levelRangeHandler struct {
	next slog.Handler
	min  slog.Level
	max  slog.Level
}

func newLevelRangeHandler(next slog.Handler, low, high slog.Level) slog.Handler {
	if next == nil {
		return NoopHandler{}
	}
	return &levelRangeHandler{next: next, min: low, max: high}
}

func (h *levelRangeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level < h.min || level > h.max {
		return false
	}
	return h.next.Enabled(ctx, level)
}

func (h *levelRangeHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < h.min || record.Level > h.max {
		return nil
	}
	return h.next.Handle(ctx, record)
}

func (h *levelRangeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRangeHandler{next: h.next.WithAttrs(attrs), min: h.min, max: h.max}
}

func (h *levelRangeHandler) WithGroup(name string) slog.Handler {
	return &levelRangeHandler{next: h.next.WithGroup(name), min: h.min, max: h.max}
}
