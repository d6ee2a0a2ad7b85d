// Package encode runs opusenc over the result of the decode stage.
package encode

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"dir2opus/internal/decode"
	"dir2opus/internal/logging"
	"dir2opus/internal/proc"
	"dir2opus/internal/services"
)

const (
	stageName     = "encode"
	defaultBinary = "opusenc"
	stdinTarget   = "-"
)

// Options is the immutable per-job encoder configuration.
type Options struct {
	// Quality maps to --comp; negative values leave it unset.
	Quality int
	// Bitrate in kbit/s; zero leaves opusenc's default.
	Bitrate int
	Quiet   bool
	// StrictDecoderExit fails a pipe-mode job whose decoder exited nonzero.
	StrictDecoderExit bool
	// PreserveWAV keeps the intermediate file after a file-mode encode.
	PreserveWAV bool
}

// Args renders the opusenc command line for the given input and output.
func (o Options) Args(input, output string) []string {
	args := make([]string, 0, 7)
	if o.Quiet {
		args = append(args, "--quiet")
	}
	if o.Bitrate > 0 {
		args = append(args, "--bitrate", strconv.Itoa(o.Bitrate))
	}
	if o.Quality >= 0 {
		args = append(args, "--comp", strconv.Itoa(o.Quality))
	}
	return append(args, input, output)
}

// Stage runs the encoder.
type Stage struct {
	binary string
	logger *slog.Logger
}

// NewStage constructs an encode stage running binary (opusenc when empty).
func NewStage(binary string, logger *slog.Logger) *Stage {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = defaultBinary
	}
	return &Stage{binary: binary, logger: logging.NewComponentLogger(logger, "encode")}
}

// Encode writes output from result. A failed encode leaves no output file and
// keeps any intermediate; the returned error is then a *proc.StageError
// naming the stage that failed.
func (s *Stage) Encode(ctx context.Context, result decode.Result, output string, opts Options) error {
	switch r := result.(type) {
	case *decode.Stream:
		return s.encodeStream(ctx, r, output, opts)
	case *decode.File:
		return s.encodeFile(ctx, r, output, opts)
	default:
		return services.Wrap(services.ErrValidation, stageName, "encode", fmt.Sprintf("unexpected decode result %T", result), nil)
	}
}

func (s *Stage) encodeStream(ctx context.Context, stream *decode.Stream, output string, opts Options) error {
	logger := logging.WithContext(ctx, s.logger)
	args := opts.Args(stdinTarget, output)
	cmd := exec.CommandContext(ctx, s.binary, args...)
	cmd.Stdin = stream.Reader
	tail := proc.NewTail(0)
	cmd.Stderr = tail

	logger.Debug("starting encoder", logging.String("mode", string(decode.ModePipe)), logging.String("command", proc.Describe(s.binary, args)))

	if err := cmd.Start(); err != nil {
		stream.Abort()
		removeOutput(output)
		return s.encodeFailure(stream.Source, proc.Outcome{}, "", fmt.Errorf("start: %w", err))
	}
	// opusenc now owns the read end.
	_ = stream.Reader.Close()

	encOutcome, encErr := proc.Classify(cmd.Wait())
	decOutcome, decErr := stream.Wait()

	switch {
	case decErr != nil:
		removeOutput(output)
		return decodeFailure(stream, decOutcome, decErr)
	case decOutcome.Kind == proc.KindFailed && opts.StrictDecoderExit:
		removeOutput(output)
		return decodeFailure(stream, decOutcome, decOutcome.Err())
	case encErr != nil:
		removeOutput(output)
		return s.encodeFailure(stream.Source, encOutcome, tail.String(), encErr)
	case !encOutcome.Success():
		removeOutput(output)
		return s.encodeFailure(stream.Source, encOutcome, tail.String(), encOutcome.Err())
	case !decOutcome.Clean():
		removeOutput(output)
		return decodeFailure(stream, decOutcome, decOutcome.Err())
	case !decOutcome.Success():
		logging.WarnWithContext(logger, "decoder exited non-zero; keeping encoded output",
			"decoder_exit_nonzero",
			logging.String("decoder", stream.Decoder),
			logging.String("outcome", decOutcome.String()),
			logging.String("decoder_stderr", stream.Stderr()),
			logging.String(logging.FieldErrorHint, "set conversion.strict_decoder_exit to fail these jobs"),
			logging.String(logging.FieldImpact, "output may be truncated"),
		)
	}
	return nil
}

func (s *Stage) encodeFile(ctx context.Context, file *decode.File, output string, opts Options) error {
	logger := logging.WithContext(ctx, s.logger)
	args := opts.Args(file.Path, output)
	cmd := exec.CommandContext(ctx, s.binary, args...)
	tail := proc.NewTail(0)
	cmd.Stderr = tail

	logger.Debug("running encoder", logging.String("mode", string(file.Mode())), logging.String("command", proc.Describe(s.binary, args)))

	outcome, err := proc.Classify(cmd.Run())
	if err == nil && !outcome.Success() {
		err = outcome.Err()
	}
	if err != nil {
		// The intermediate stays for inspection or a retry with another encoder.
		removeOutput(output)
		return s.encodeFailure(file.Path, outcome, tail.String(), err)
	}
	s.dropIntermediate(logger, file, opts)
	return nil
}

// dropIntermediate deletes a decoder-produced WAV unless the job keeps it.
// Passthrough sources are never removed.
func (s *Stage) dropIntermediate(logger *slog.Logger, file *decode.File, opts Options) {
	if !file.Intermediate || opts.PreserveWAV {
		return
	}
	if err := file.Remove(); err != nil {
		logging.WarnWithContext(logger, "failed to remove intermediate file",
			"intermediate_cleanup_failed",
			logging.String("path", file.Path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "intermediate WAV left on disk"),
		)
	}
}

func (s *Stage) encodeFailure(source string, outcome proc.Outcome, stderr string, err error) error {
	return &proc.StageError{
		Stage:   stageName,
		Tool:    s.binary,
		Source:  source,
		Outcome: outcome,
		Stderr:  stderr,
		Err:     fmt.Errorf("%w: %w", services.ErrExternalTool, err),
	}
}

func decodeFailure(stream *decode.Stream, outcome proc.Outcome, err error) error {
	return &proc.StageError{
		Stage:   "decode",
		Tool:    stream.Decoder,
		Source:  stream.Source,
		Outcome: outcome,
		Stderr:  stream.Stderr(),
		Err:     fmt.Errorf("%w: %w", services.ErrExternalTool, err),
	}
}

func removeOutput(path string) {
	_ = os.Remove(path)
}
