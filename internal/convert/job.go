package convert

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"dir2opus/internal/config"
	"dir2opus/internal/encode"
	"dir2opus/internal/media/audio"
	"dir2opus/internal/scan"
	"dir2opus/internal/tags"
)

// Options is the per-job configuration snapshot. It is copied out of the
// shared config when the job is built and never mutated afterwards.
type Options struct {
	Encode       encode.Options
	DeleteInput  bool
	NoPipe       bool
	PreserveWAV  bool
	SkipExisting bool
}

// OptionsFor derives the snapshot for a source of format f. Per-format
// bitrate overrides are resolved here.
func OptionsFor(cfg *config.Config, f audio.Format) Options {
	return Options{
		Encode: encode.Options{
			Quality:           cfg.Encoder.Quality,
			Bitrate:           cfg.BitrateFor(f),
			Quiet:             cfg.Encoder.Quiet,
			StrictDecoderExit: cfg.Conversion.StrictDecoderExit,
			PreserveWAV:       cfg.Conversion.PreserveWAV,
		},
		DeleteInput:  cfg.Conversion.DeleteInput,
		NoPipe:       cfg.Conversion.NoPipe,
		PreserveWAV:  cfg.Conversion.PreserveWAV,
		SkipExisting: cfg.Conversion.SkipExisting,
	}
}

// Job is one source file converted to one .opus file.
type Job struct {
	Source  string
	Format  audio.Format
	WAVPath string
	Output  string
	// Decoder is empty for sources that need no format conversion.
	Decoder       string
	DecoderBinary string
	Options       Options
	Tags          tags.Mapping

	state    State
	conflict error
}

// ErrPathConflict marks a job whose output or intermediate path belongs to
// another source of the same batch.
var ErrPathConflict = errors.New("path claimed by another source")

// NewJob builds a pending job for src.
func NewJob(cfg *config.Config, src scan.Source) *Job {
	decoder := cfg.DecoderFor(src.Format)
	binary := ""
	if decoder != "" {
		binary = cfg.BinaryFor(decoder)
	}
	return &Job{
		Source:        src.Path,
		Format:        src.Format,
		WAVPath:       SiblingPath(src.Path, ".wav"),
		Output:        SiblingPath(src.Path, ".opus"),
		Decoder:       decoder,
		DecoderBinary: binary,
		Options:       OptionsFor(cfg, src.Format),
		state:         StatePending,
	}
}

// NewJobs builds jobs for sources in order. Sources that share a base name
// in one directory would write the same .opus file, and a decoded source may
// land its intermediate on another source's .wav. Every source path is owned
// by its own job; after that, the first job to claim an output or
// intermediate path wins and later claimants carry ErrPathConflict.
func NewJobs(cfg *config.Config, sources []scan.Source) []*Job {
	owners := make(map[string]string, 3*len(sources))
	for _, src := range sources {
		owners[src.Path] = src.Path
	}
	jobs := make([]*Job, 0, len(sources))
	for _, src := range sources {
		job := NewJob(cfg, src)
		claims := job.claims()
		for _, path := range claims {
			if owner, ok := owners[path]; ok && owner != job.Source {
				job.conflict = fmt.Errorf("%w: %s belongs to %s", ErrPathConflict, path, owner)
				break
			}
		}
		if job.conflict == nil {
			for _, path := range claims {
				owners[path] = job.Source
			}
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// claims lists the paths the job writes.
func (j *Job) claims() []string {
	if j.Format.NeedsConversion() {
		return []string{j.Output, j.WAVPath}
	}
	return []string{j.Output}
}

// Conflict returns the ErrPathConflict a job was built with, or nil.
func (j *Job) Conflict() error {
	return j.conflict
}

// State returns the job's current state.
func (j *Job) State() State {
	if j.state == "" {
		return StatePending
	}
	return j.state
}

func (j *Job) transition(next State) error {
	current := j.State()
	if !current.CanTransition(next) {
		return transitionError{from: current, to: next}
	}
	j.state = next
	return nil
}

// SiblingPath swaps the extension of path, keeping it in the same directory.
func SiblingPath(path, ext string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return base + ext
}
