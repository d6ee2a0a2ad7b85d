package proc

import (
	"fmt"
	"strings"
)

// StageError reports a failed decode or encode step for one job.
type StageError struct {
	Stage   string
	Tool    string
	Source  string
	Outcome Outcome
	// Stderr holds the tail of the tool's diagnostic output, if any.
	Stderr string
	Err    error
}

func (e *StageError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Stage, e.Tool)
	if e.Source != "" {
		fmt.Fprintf(&b, " (%s)", e.Source)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if line := lastLine(e.Stderr); line != "" {
		fmt.Fprintf(&b, " [%s]", line)
	}
	return b.String()
}

func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	}
	return strings.TrimSpace(s)
}
