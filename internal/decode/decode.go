package decode

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"dir2opus/internal/decoders"
	"dir2opus/internal/logging"
	"dir2opus/internal/media/audio"
	"dir2opus/internal/proc"
	"dir2opus/internal/services"
)

const stageName = "decode"

// ErrUnsupportedDecoder marks a decoder identifier that is unknown or cannot
// read the requested format. It is always wrapped as a configuration error.
var ErrUnsupportedDecoder = errors.New("unsupported decoder")

// Request describes one decode.
type Request struct {
	Source string
	Format audio.Format
	// Decoder is the decoder identifier; Binary the executable to run for it.
	Decoder string
	Binary  string
	// WAVPath is the intermediate written in file mode.
	WAVPath     string
	NoPipe      bool
	PreserveWAV bool
}

// Stage runs decoder processes.
type Stage struct {
	logger *slog.Logger
}

// NewStage constructs a decode stage.
func NewStage(logger *slog.Logger) *Stage {
	return &Stage{logger: logging.NewComponentLogger(logger, "decode")}
}

// Decode produces PCM for req. Pipe mode returns as soon as the decoder has
// started; file mode returns after it exits. On failure no intermediate file
// is left behind and the error is a *proc.StageError or a configuration error.
func (s *Stage) Decode(ctx context.Context, req Request) (Result, error) {
	if !req.Format.NeedsConversion() {
		return &File{Path: req.Source}, nil
	}

	spec, err := Resolve(req.Format, req.Decoder)
	if err != nil {
		return nil, err
	}
	binary := strings.TrimSpace(req.Binary)
	if binary == "" {
		binary = spec.ID
	}

	if spec.Streams && !req.NoPipe && !req.PreserveWAV {
		return s.startStream(ctx, spec, binary, req)
	}
	return s.runToFile(ctx, spec, binary, req)
}

// Resolve returns the decoder spec for id after checking it can read format.
func Resolve(format audio.Format, id string) (decoders.Spec, error) {
	spec, ok := decoders.Lookup(id)
	if !ok {
		return decoders.Spec{}, services.Wrap(
			services.ErrConfiguration,
			stageName,
			"resolve decoder",
			fmt.Sprintf("decoder %q is not one of %s", id, strings.Join(decoders.IDs(), ", ")),
			ErrUnsupportedDecoder,
		)
	}
	if !spec.Supports(format) {
		return decoders.Spec{}, services.Wrap(
			services.ErrConfiguration,
			stageName,
			"resolve decoder",
			fmt.Sprintf("decoder %q cannot read %s files", spec.ID, format),
			ErrUnsupportedDecoder,
		)
	}
	return spec, nil
}

func (s *Stage) startStream(ctx context.Context, spec decoders.Spec, binary string, req Request) (Result, error) {
	reader, writer, err := os.Pipe()
	if err != nil {
		return nil, s.failure(spec.ID, req.Source, proc.Outcome{}, "", fmt.Errorf("create pipe: %w", err))
	}

	args := spec.Args(req.Source, spec.PipeTarget)
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = writer
	tail := proc.NewTail(0)
	cmd.Stderr = tail

	logging.WithContext(ctx, s.logger).Debug(
		"starting decoder",
		logging.String("mode", string(ModePipe)),
		logging.String("command", proc.Describe(binary, args)),
	)

	if err := cmd.Start(); err != nil {
		_ = writer.Close()
		_ = reader.Close()
		return nil, s.failure(spec.ID, req.Source, proc.Outcome{}, "", fmt.Errorf("start: %w", err))
	}
	// The child holds its own copy; keeping ours open would hide EOF from the
	// encoder.
	_ = writer.Close()

	return &Stream{
		Reader:  reader,
		Decoder: spec.ID,
		Source:  req.Source,
		cmd:     cmd,
		stderr:  tail,
	}, nil
}

func (s *Stage) runToFile(ctx context.Context, spec decoders.Spec, binary string, req Request) (Result, error) {
	if strings.TrimSpace(req.WAVPath) == "" {
		return nil, services.Wrap(services.ErrValidation, stageName, "run decoder", "intermediate path not set", nil)
	}
	target, release, err := claimTarget(spec, req)
	if err != nil {
		return nil, s.failure(spec.ID, req.Source, proc.Outcome{}, "", err)
	}

	args := spec.Args(req.Source, target)
	cmd := exec.CommandContext(ctx, binary, args...)
	tail := proc.NewTail(0)
	cmd.Stderr = tail

	logging.WithContext(ctx, s.logger).Debug(
		"running decoder",
		logging.String("mode", string(ModeFile)),
		logging.String("command", proc.Describe(binary, args)),
		logging.String("intermediate", req.WAVPath),
	)

	outcome, err := proc.Classify(cmd.Run())
	if err != nil {
		release()
		return nil, s.failure(spec.ID, req.Source, outcome, tail.String(), fmt.Errorf("start: %w", err))
	}
	if !outcome.Success() {
		release()
		return nil, s.failure(spec.ID, req.Source, outcome, tail.String(), outcome.Err())
	}
	if _, err := os.Stat(target); err != nil {
		release()
		return nil, s.failure(spec.ID, req.Source, outcome, tail.String(), fmt.Errorf("decoder produced no output: %w", err))
	}
	if err := os.Rename(target, req.WAVPath); err != nil {
		release()
		return nil, s.failure(spec.ID, req.Source, outcome, tail.String(), fmt.Errorf("rename %s: %w", target, err))
	}
	release()
	return &File{Path: req.WAVPath, Intermediate: true}, nil
}

// claimTarget returns the path the decoder writes to and a release func that
// removes whatever the decoder left there. The path never names a file that
// existed before the call, so failures cannot destroy user data at WAVPath.
func claimTarget(spec decoders.Spec, req Request) (string, func(), error) {
	if spec.FixedOutput {
		target := spec.TempOutput(req.Source)
		if _, err := os.Lstat(target); err == nil {
			return "", nil, fmt.Errorf("%s already exists and is not owned by this run", target)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", nil, fmt.Errorf("check %s: %w", target, err)
		}
		return target, func() { removeQuietly(target) }, nil
	}

	dir, err := os.MkdirTemp(filepath.Dir(req.WAVPath), ".dir2opus-decode-")
	if err != nil {
		return "", nil, fmt.Errorf("create decode directory: %w", err)
	}
	return filepath.Join(dir, filepath.Base(req.WAVPath)), func() { _ = os.RemoveAll(dir) }, nil
}

func (s *Stage) failure(decoder, source string, outcome proc.Outcome, stderr string, err error) error {
	return &proc.StageError{
		Stage:   stageName,
		Tool:    decoder,
		Source:  source,
		Outcome: outcome,
		Stderr:  stderr,
		Err:     fmt.Errorf("%w: %w", services.ErrExternalTool, err),
	}
}

func removeQuietly(path string) {
	if path != "" {
		_ = os.Remove(path)
	}
}
