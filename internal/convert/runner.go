package convert

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"dir2opus/internal/decode"
	"dir2opus/internal/encode"
	"dir2opus/internal/journal"
	"dir2opus/internal/logging"
	"dir2opus/internal/proc"
	"dir2opus/internal/services"
	"dir2opus/internal/tags"
)

// Recorder persists job outcomes. *journal.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, entry journal.Entry) (int64, error)
}

// Runner processes jobs sequentially.
type Runner struct {
	logger    *slog.Logger
	extractor *tags.Extractor
	decoder   *decode.Stage
	encoder   *encode.Stage
	recorder  Recorder
	runID     string
	now       func() time.Time
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithRecorder persists every outcome through rec.
func WithRecorder(rec Recorder) RunnerOption {
	return func(r *Runner) {
		r.recorder = rec
	}
}

// WithRunID sets the identifier stored with each outcome and logged with
// each line.
func WithRunID(id string) RunnerOption {
	return func(r *Runner) {
		r.runID = id
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner constructs a runner using encoderBinary for opusenc.
func NewRunner(encoderBinary string, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		logger:    logging.NewComponentLogger(logger, "convert"),
		extractor: tags.NewExtractor(logger),
		decoder:   decode.NewStage(logger),
		encoder:   encode.NewStage(encoderBinary, logger),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes jobs in order. Per-job failures never stop the run; a
// cancelled context does, leaving the remaining jobs unprocessed.
func (r *Runner) Run(ctx context.Context, jobs []*Job) Summary {
	ctx = services.WithRunID(ctx, r.runID)
	summary := Summary{RunID: r.runID, Outcomes: make([]Outcome, 0, len(jobs))}
	for i, job := range jobs {
		if ctx.Err() != nil {
			summary.Interrupted = true
			logging.WarnWithContext(logging.WithContext(ctx, r.logger), "run interrupted", "run_interrupted",
				logging.Int("remaining", len(jobs)-i),
				logging.String(logging.FieldErrorHint, "run the command again to convert the remaining files"),
				logging.String(logging.FieldImpact, "remaining files were not converted"),
			)
			break
		}
		summary.Outcomes = append(summary.Outcomes, r.Process(ctx, job))
	}
	return summary
}

// Process takes one job to a terminal state and records the outcome.
func (r *Runner) Process(ctx context.Context, job *Job) Outcome {
	ctx = services.WithSource(services.WithRunID(ctx, r.runID), job.Source)
	logger := logging.WithContext(ctx, r.logger)

	outcome := Outcome{
		Source:  job.Source,
		Output:  job.Output,
		Format:  job.Format.String(),
		Decoder: job.Decoder,
		Started: r.now(),
	}
	r.execute(ctx, logger, job, &outcome)
	outcome.State = job.State()
	outcome.Finished = r.now()
	r.record(ctx, logger, outcome)
	return outcome
}

func (r *Runner) execute(ctx context.Context, logger *slog.Logger, job *Job, outcome *Outcome) {
	if err := job.Conflict(); err != nil {
		outcome.Err = err
		r.advance(logger, job, StateSkipped)
		logging.WarnWithContext(logger, "source skipped; another source owns its output", "output_conflict",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "rename one of the sources that share a base name"),
			logging.String(logging.FieldImpact, "this source was not converted"),
		)
		return
	}
	if job.Options.SkipExisting {
		if _, err := os.Stat(job.Output); err == nil {
			r.advance(logger, job, StateSkipped)
			logger.Info("output exists; skipping", logging.String("output", job.Output))
			return
		}
	}

	job.Tags = r.extractor.Extract(services.WithStage(ctx, "extract"), job.Source, job.Format)

	r.advance(logger, job, StateDecoding)
	decodeCtx := services.WithStage(ctx, "decode")
	result, err := r.decoder.Decode(decodeCtx, decode.Request{
		Source:      job.Source,
		Format:      job.Format,
		Decoder:     job.Decoder,
		Binary:      job.DecoderBinary,
		WAVPath:     job.WAVPath,
		NoPipe:      job.Options.NoPipe,
		PreserveWAV: job.Options.PreserveWAV,
	})
	if err != nil {
		r.fail(decodeCtx, job, outcome, StateDecodeFailed, "decode", err)
		return
	}
	outcome.Mode = result.Mode()

	r.advance(logger, job, StateEncoding)
	encodeCtx := services.WithStage(ctx, "encode")
	if err := r.encoder.Encode(encodeCtx, result, job.Output, job.Options.Encode); err != nil {
		var stageErr *proc.StageError
		if errors.As(err, &stageErr) && stageErr.Stage == "decode" {
			r.fail(decodeCtx, job, outcome, StateDecodeFailed, "decode", err)
		} else {
			r.fail(encodeCtx, job, outcome, StateEncodeFailed, "encode", err)
		}
		return
	}

	r.advance(logger, job, StateTagging)
	tagCtx := services.WithStage(ctx, "tag")
	if err := r.writeTags(tagCtx, job); err != nil {
		outcome.Err = err
		outcome.FailedStage = "tag"
		r.advance(logger, job, StateTagFailed)
	} else {
		outcome.TagCount = len(job.Tags)
		r.advance(logger, job, StateDone)
	}

	outcome.InputDeleted = r.deleteInput(logger, job)
	logger.Info("converted",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.String("output", job.Output),
		logging.String("mode", string(outcome.Mode)),
		logging.String("state", job.State().String()),
		logging.Duration("elapsed", r.now().Sub(outcome.Started)),
	)
}

func (r *Runner) advance(logger *slog.Logger, job *Job, next State) {
	from := job.State()
	if err := job.transition(next); err != nil {
		logger.Error("job state machine violated", logging.Error(err))
		return
	}
	logger.Debug("job state", logging.String("from", from.String()), logging.String("to", next.String()))
}

func (r *Runner) fail(ctx context.Context, job *Job, outcome *Outcome, state State, stage string, err error) {
	logger := logging.WithContext(ctx, r.logger)
	outcome.Err = err
	outcome.FailedStage = stage
	r.advance(logger, job, state)

	attrs := []logging.Attr{
		logging.Error(err),
		logging.String(logging.FieldImpact, "no output written for this file; continuing with the next one"),
	}
	var stageErr *proc.StageError
	if errors.As(err, &stageErr) {
		attrs = append(attrs,
			logging.String("tool", stageErr.Tool),
			logging.String("outcome", stageErr.Outcome.String()),
		)
		if stageErr.Stderr != "" {
			attrs = append(attrs, logging.String("stderr", stageErr.Stderr))
		}
	}
	if stage == "decode" {
		attrs = append(attrs,
			logging.String("decoder", job.Decoder),
			logging.String(logging.FieldErrorHint, "check the source file or choose another decoder for "+job.Format.String()),
		)
	} else {
		attrs = append(attrs, logging.String(logging.FieldErrorHint, "check the opusenc installation and free disk space"))
	}
	logging.WarnWithContext(logger, stage+" failed", stage+"_failed", attrs...)
}

func (r *Runner) deleteInput(logger *slog.Logger, job *Job) bool {
	if !job.Options.DeleteInput || !job.State().AllowsInputDeletion() {
		return false
	}
	if err := os.Remove(job.Source); err != nil {
		logging.WarnWithContext(logger, "failed to delete input", "input_delete_failed",
			logging.String("path", job.Source),
			logging.Error(err),
			logging.String(logging.FieldImpact, "source file kept alongside the new output"),
		)
		return false
	}
	logger.Info("deleted input", logging.String("path", job.Source))
	return true
}

func (r *Runner) record(ctx context.Context, logger *slog.Logger, outcome Outcome) {
	if r.recorder == nil {
		return
	}
	// The run may have been interrupted; the row should still land.
	if _, err := r.recorder.Record(context.WithoutCancel(ctx), outcome.Entry(r.runID)); err != nil {
		logging.WarnWithContext(logger, "failed to record job in journal", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "history will miss this job"),
		)
	}
}
