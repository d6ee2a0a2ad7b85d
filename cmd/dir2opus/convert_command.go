package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"dir2opus/internal/config"
	"dir2opus/internal/convert"
	"dir2opus/internal/journal"
	"dir2opus/internal/logging"
	"dir2opus/internal/media/audio"
	"dir2opus/internal/preflight"
	"dir2opus/internal/runlock"
	"dir2opus/internal/scan"
)

type convertFlags struct {
	recursive    bool
	quality      int
	bitrate      int
	quiet        bool
	deleteInput  bool
	preserveWAV  bool
	noPipe       bool
	skipExisting bool
	decoders     []string
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	flags := &convertFlags{}

	cmd := &cobra.Command{
		Use:   "convert [paths...]",
		Short: "Convert audio files to Opus",
		Long: `Convert every supported audio file found in the given paths to Opus.

Directories contribute the files they contain; use --recursive to descend
into subdirectories. Each output is written next to its source with an .opus
extension and carries the source's tags. With no paths the current
directory is converted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.snapshot()
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{"."}
			}
			return runConvert(cmd, cfg, args)
		},
	}

	fs := cmd.Flags()
	fs.BoolVarP(&flags.recursive, "recursive", "r", false, "Descend into subdirectories")
	fs.IntVarP(&flags.quality, "quality", "q", config.QualityUnset, "Encoder complexity passed as --comp (0-10)")
	fs.IntVarP(&flags.bitrate, "bitrate", "b", 0, "Target bitrate in kbit/s")
	fs.BoolVar(&flags.quiet, "quiet", false, "Pass --quiet to opusenc")
	fs.BoolVar(&flags.deleteInput, "delete-input", false, "Delete each source after it converts successfully")
	fs.BoolVar(&flags.preserveWAV, "preserve-wav", false, "Decode to a WAV file and keep it")
	fs.BoolVar(&flags.noPipe, "no-pipe", false, "Decode to a temporary WAV file instead of piping into the encoder")
	fs.BoolVar(&flags.skipExisting, "skip-existing", false, "Skip sources whose .opus output already exists")
	fs.StringArrayVar(&flags.decoders, "decoder", nil, "Decoder for a format as fmt=id (repeatable)")
	return cmd
}

// apply copies explicitly set flags over the configuration snapshot and
// validates the result.
func (f *convertFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	if changed("recursive") {
		cfg.Conversion.Recursive = f.recursive
	}
	if changed("quality") {
		cfg.Encoder.Quality = f.quality
	}
	if changed("bitrate") {
		cfg.Encoder.Bitrate = f.bitrate
	}
	if changed("quiet") {
		cfg.Encoder.Quiet = f.quiet
	}
	if changed("delete-input") {
		cfg.Conversion.DeleteInput = f.deleteInput
	}
	if changed("preserve-wav") {
		cfg.Conversion.PreserveWAV = f.preserveWAV
	}
	if changed("no-pipe") {
		cfg.Conversion.NoPipe = f.noPipe
	}
	if changed("skip-existing") {
		cfg.Conversion.SkipExisting = f.skipExisting
	}
	for _, raw := range f.decoders {
		format, id, err := parseDecoderFlag(raw)
		if err != nil {
			return err
		}
		cfg.Decoders[format.String()] = id
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

func parseDecoderFlag(raw string) (audio.Format, string, error) {
	name, id, ok := strings.Cut(raw, "=")
	id = strings.ToLower(strings.TrimSpace(id))
	if !ok || id == "" {
		return "", "", fmt.Errorf("--decoder %q: expected fmt=id", raw)
	}
	format, err := audio.ParseFormat(name)
	if err != nil {
		return "", "", fmt.Errorf("--decoder %q: %w", raw, err)
	}
	if err := config.ValidateDecoder(format, id); err != nil {
		return "", "", fmt.Errorf("--decoder %q: %w", raw, err)
	}
	return format, id, nil
}

func runConvert(cmd *cobra.Command, cfg *config.Config, paths []string) error {
	out := cmd.OutOrStdout()

	found, err := scan.Discover(paths, scan.Options{
		Recursive: cfg.Conversion.Recursive,
		Formats:   cfg.EnabledFormats(),
	})
	if err != nil {
		return err
	}

	baseLogger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logger := logging.NewComponentLogger(baseLogger, "cli")

	for _, path := range found.Ignored {
		logging.WarnWithContext(logger, "skipping unsupported file", "source_ignored",
			logging.String("path", path),
			logging.String(logging.FieldErrorHint, "enable the format under conversion.formats or rename the file"),
			logging.String(logging.FieldImpact, "file was not converted"),
		)
	}
	if len(found.Sources) == 0 {
		fmt.Fprintln(out, "No audio files found")
		return nil
	}

	formats, dirs := sourceFormatsAndDirs(found.Sources)
	if err := preflight.Verify(cfg, formats, dirs); err != nil {
		logging.ErrorWithContext(logger, "preflight failed", "preflight_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run `dir2opus deps` to see which tools are missing"),
		)
		return err
	}

	lock, err := runlock.Acquire(cfg.LockPath())
	if err != nil {
		logging.ErrorWithContext(logger, "cannot acquire run lock", "run_lock_failed",
			logging.String("lock", cfg.LockPath()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "wait for the other run to finish or use a different state_dir"),
		)
		return err
	}
	defer func() { _ = lock.Release() }()

	runID := uuid.NewString()
	opts := []convert.RunnerOption{convert.WithRunID(runID)}
	if cfg.Journal.Enabled {
		store, err := journal.Open(cfg.JournalPath())
		if err != nil {
			logging.WarnWithContext(logger, "journal unavailable", "journal_open_failed",
				logging.String("path", cfg.JournalPath()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the state directory"),
				logging.String(logging.FieldImpact, "this run will not appear in history"),
			)
		} else {
			defer store.Close()
			opts = append(opts, convert.WithRecorder(store))
		}
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting conversion",
		logging.String("run_id", runID),
		logging.Int("files", len(found.Sources)),
	)
	runner := convert.NewRunner(cfg.EncoderBinary(), baseLogger, opts...)
	summary := runner.Run(runCtx, convert.NewJobs(cfg, found.Sources))

	renderSummary(out, summary, shouldColorize(out))
	if summary.Interrupted {
		return context.Canceled
	}
	return nil
}

func sourceFormatsAndDirs(sources []scan.Source) ([]audio.Format, []string) {
	seenFormat := make(map[audio.Format]struct{})
	seenDir := make(map[string]struct{})
	var formats []audio.Format
	var dirs []string
	for _, src := range sources {
		if _, ok := seenFormat[src.Format]; !ok {
			seenFormat[src.Format] = struct{}{}
			formats = append(formats, src.Format)
		}
		dir := filepath.Dir(src.Path)
		if _, ok := seenDir[dir]; !ok {
			seenDir[dir] = struct{}{}
			dirs = append(dirs, dir)
		}
	}
	return formats, dirs
}
