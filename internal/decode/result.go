package decode

import (
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"sync"

	"dir2opus/internal/proc"
)

// Mode names the way PCM reaches the encoder.
type Mode string

const (
	ModePipe        Mode = "pipe"
	ModeFile        Mode = "file"
	ModePassthrough Mode = "passthrough"
)

// Result is the output of the decode stage: *Stream or *File.
type Result interface {
	Mode() Mode
	result()
}

// Stream is a decoder still running and writing PCM into Reader.
//
// The encoder takes ownership of Reader once it has started; Wait must be
// called exactly once the encoder is done so the decoder is reaped.
type Stream struct {
	Reader  *os.File
	Decoder string
	Source  string

	cmd    *exec.Cmd
	stderr *proc.Tail

	once    sync.Once
	outcome proc.Outcome
	err     error
}

func (*Stream) Mode() Mode { return ModePipe }

func (*Stream) result() {}

// Wait blocks until the decoder exits and classifies how it ended. Repeated
// calls return the first answer.
func (s *Stream) Wait() (proc.Outcome, error) {
	s.once.Do(func() {
		s.outcome, s.err = proc.Classify(s.cmd.Wait())
	})
	return s.outcome, s.err
}

// Stderr returns the tail of the decoder's diagnostic output.
func (s *Stream) Stderr() string {
	if s.stderr == nil {
		return ""
	}
	return s.stderr.String()
}

// Abort closes the read end, kills the decoder and reaps it. It is used when
// the encoder could not be started.
func (s *Stream) Abort() {
	if s.Reader != nil {
		_ = s.Reader.Close()
	}
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_, _ = s.Wait()
}

// File is PCM (or the untouched WAV source) already on disk.
type File struct {
	Path string
	// Intermediate is true when Path was produced by a decoder and belongs to
	// the job. Passthrough sources are never intermediate.
	Intermediate bool
}

func (f *File) Mode() Mode {
	if f.Intermediate {
		return ModeFile
	}
	return ModePassthrough
}

func (*File) result() {}

// Remove deletes an intermediate file. It never touches a passthrough source.
func (f *File) Remove() error {
	if !f.Intermediate {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
