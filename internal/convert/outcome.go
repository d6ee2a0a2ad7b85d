package convert

import (
	"time"

	"dir2opus/internal/decode"
	"dir2opus/internal/journal"
)

// Outcome is the terminal record of one job.
type Outcome struct {
	Source       string
	Output       string
	Format       string
	Decoder      string
	Mode         decode.Mode
	State        State
	FailedStage  string
	Err          error
	TagCount     int
	InputDeleted bool
	Started      time.Time
	Finished     time.Time
}

// Duration reports the wall time the job took.
func (o Outcome) Duration() time.Duration {
	return o.Finished.Sub(o.Started)
}

// Entry converts the outcome into a journal row.
func (o Outcome) Entry(runID string) journal.Entry {
	entry := journal.Entry{
		RunID:        runID,
		Source:       o.Source,
		Format:       o.Format,
		Decoder:      o.Decoder,
		Mode:         string(o.Mode),
		State:        string(o.State),
		FailedStage:  o.FailedStage,
		TagCount:     o.TagCount,
		InputDeleted: o.InputDeleted,
		StartedAt:    o.Started,
		FinishedAt:   o.Finished,
	}
	if o.State == StateDone || o.State == StateTagFailed || (o.State == StateSkipped && o.Err == nil) {
		entry.Output = o.Output
	}
	if o.Err != nil {
		entry.Error = o.Err.Error()
	}
	return entry
}

// Summary aggregates a run.
type Summary struct {
	RunID    string
	Outcomes []Outcome
	// Interrupted is set when the run stopped before every job was processed.
	Interrupted bool
}

// Count returns how many jobs ended in state.
func (s Summary) Count(state State) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.State == state {
			n++
		}
	}
	return n
}

// Failed returns how many jobs ended in a failure state.
func (s Summary) Failed() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.State.Failed() {
			n++
		}
	}
	return n
}
