package proc

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
)

// Kind is the coarse result of a finished process.
type Kind int

const (
	// KindSuccess means the process exited with status zero.
	KindSuccess Kind = iota
	// KindFailed means the process exited on its own with a nonzero status.
	KindFailed
	// KindSignaled means the process was terminated by a signal.
	KindSignaled
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFailed:
		return "failed"
	case KindSignaled:
		return "signaled"
	default:
		return "unknown"
	}
}

// Outcome describes how an external process ended.
type Outcome struct {
	Kind     Kind
	ExitCode int
	Signal   string
}

// Success reports whether the process exited with status zero.
func (o Outcome) Success() bool {
	return o.Kind == KindSuccess
}

// Clean reports whether the process ended without being killed by a signal.
// A nonzero exit status still counts as clean.
func (o Outcome) Clean() bool {
	return o.Kind != KindSignaled
}

func (o Outcome) String() string {
	switch o.Kind {
	case KindSuccess:
		return "exit status 0"
	case KindFailed:
		return fmt.Sprintf("exit status %d", o.ExitCode)
	case KindSignaled:
		if o.Signal != "" {
			return "terminated by signal " + o.Signal
		}
		return "terminated by signal"
	default:
		return "unknown outcome"
	}
}

// Err returns nil for a successful outcome and a descriptive error otherwise.
func (o Outcome) Err() error {
	if o.Success() {
		return nil
	}
	return errors.New(o.String())
}

// Classify turns the error returned by exec.Cmd.Wait or Run into an Outcome.
// Errors that are not exit errors (binary missing, pipe setup) are returned
// unchanged because no process outcome exists for them.
func Classify(err error) (Outcome, error) {
	if err == nil {
		return Outcome{Kind: KindSuccess}, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return Outcome{}, err
	}
	state := exitErr.ProcessState
	if state == nil {
		return Outcome{}, err
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return Outcome{Kind: KindSignaled, ExitCode: -1, Signal: ws.Signal().String()}, nil
	}
	code := state.ExitCode()
	if code < 0 {
		return Outcome{Kind: KindSignaled, ExitCode: code}, nil
	}
	return Outcome{Kind: KindFailed, ExitCode: code}, nil
}

// Describe renders a command line for logs. Arguments containing whitespace
// are quoted so the line can be pasted into a shell.
func Describe(binary string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quoteArg(binary))
	for _, arg := range args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

func quoteArg(arg string) string {
	if arg == "" {
		return "''"
	}
	if strings.ContainsAny(arg, " \t\n'\"") {
		return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
	}
	return arg
}
