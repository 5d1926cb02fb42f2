package harness

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/fixturekit/internal/fixture"
)

// State is the lifecycle state of a single fixture run.
type State int

const (
	Pending State = iota
	Passed
	Failed
	Errored
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalJSON encodes the state by name.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Result is the outcome of running one fixture.
type Result struct {
	ID    fixture.ID `json:"id"`
	Label string     `json:"label"`
	State State      `json:"state"`

	// Diagnostic is the human-readable failure description, e.g. a line
	// diff against the golden file. Empty when the run passed.
	Diagnostic string `json:"diagnostic,omitempty"`

	// Recorded is set when the run wrote a golden file.
	Recorded bool `json:"recorded,omitempty"`

	// Err is a *LoadFailedError or *ExecutionFailedError.
	Err error `json:"-"`
}

// NewResult creates a pending result for a fixture.
func NewResult(meta fixture.Metadata) *Result {
	return &Result{
		ID:    meta.ID,
		Label: meta.Label,
		State: Pending,
	}
}

// Passed reports whether the run passed.
func (r *Result) Passed() bool {
	return r.State == Passed
}

// Done reports whether the result has left the Pending state.
func (r *Result) Done() bool {
	return r.State != Pending
}

func (r *Result) pass() {
	r.finish(Passed, nil, "")
}

func (r *Result) fail(err *ExecutionFailedError) {
	r.finish(Failed, err, err.Diagnostic)
}

func (r *Result) errored(err *LoadFailedError) {
	r.finish(Errored, err, err.Error())
}

// finish applies the single transition out of Pending. Later calls are
// ignored.
func (r *Result) finish(state State, err error, diagnostic string) {
	if r.Done() {
		return
	}
	r.State = state
	r.Err = err
	r.Diagnostic = diagnostic
}
