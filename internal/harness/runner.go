package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/fixturekit/internal/fixture"
	"github.com/roach88/fixturekit/internal/golden"
	"github.com/roach88/fixturekit/internal/pipeline"
)

// Mode selects whether golden files are compared or rewritten.
type Mode int

const (
	// ModeVerify compares output with existing golden files.
	ModeVerify Mode = iota
	// ModeRecord writes output as the new golden files.
	ModeRecord
)

func (m Mode) String() string {
	if m == ModeRecord {
		return "record"
	}
	return "verify"
}

// RecordEnv selects ModeRecord when set to a true value.
const RecordEnv = "FIXTUREKIT_RECORD"

// ModeFromEnv returns ModeRecord when $FIXTUREKIT_RECORD is 1, t, true, y,
// yes or on (any case) and ModeVerify otherwise.
func ModeFromEnv() Mode {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(RecordEnv))) {
	case "1", "t", "true", "y", "yes", "on":
		return ModeRecord
	}
	return ModeVerify
}

// Runner executes single fixtures of a suite. It holds no per-fixture state
// and is safe for concurrent use.
type Runner struct {
	suite  *Suite
	mode   Mode
	logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithMode sets the golden mode.
func WithMode(m Mode) Option {
	return func(r *Runner) {
		r.mode = m
	}
}

// WithLogger sets the logger. The suite logger is used by default.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a runner for s. Without a suite or option logger the
// runner logs nowhere.
func NewRunner(s *Suite, opts ...Option) *Runner {
	r := &Runner{
		suite:  s,
		mode:   ModeVerify,
		logger: s.Logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	r.logger = r.logger.With("suite", s.Name)
	return r
}

// Mode returns the runner's golden mode.
func (r *Runner) Mode() Mode {
	return r.mode
}

// Run executes exactly one fixture and returns its result. Failures never
// escape as panics or errors; they are reported through the result.
func (r *Runner) Run(ctx context.Context, id fixture.ID) *Result {
	s := r.suite
	meta := s.Describe(id)
	res := NewResult(meta)
	log := r.logger.With("fixture", string(id))

	path, err := id.Resolve(s.Dir)
	if err != nil {
		res.errored(&LoadFailedError{ID: id, Err: err})
		log.Warn("fixture errored", "error", res.Err)
		return res
	}
	content, err := os.ReadFile(path)
	if err != nil {
		res.errored(&LoadFailedError{ID: id, Path: path, Err: err})
		log.Warn("fixture errored", "error", res.Err)
		return res
	}

	log.Debug("running fixture", "pipeline", s.Pipeline.Name(), "mode", r.mode.String())
	out, err := s.Pipeline.Process(ctx, pipeline.Source{ID: id, Path: path, Content: content})
	if err != nil {
		res.fail(&ExecutionFailedError{
			ID:         id,
			Diagnostic: fmt.Sprintf("pipeline %s failed: %v", s.Pipeline.Name(), err),
			Err:        err,
		})
		log.Info("fixture failed", "reason", "pipeline")
		return res
	}

	switch s.Expect {
	case ExpectBox:
		r.judgeBox(res, out)
	default:
		r.judgeGolden(res, out)
	}

	if res.Passed() {
		log.Debug("fixture passed", "recorded", res.Recorded)
	} else {
		log.Info("fixture failed", "reason", s.Expect)
	}
	return res
}

func (r *Runner) judgeBox(res *Result, out []byte) {
	got := strings.TrimSpace(string(out))
	if got == BoxOK {
		res.pass()
		return
	}
	res.fail(&ExecutionFailedError{
		ID:         res.ID,
		Diagnostic: fmt.Sprintf("expected box output %q, got:\n%s", BoxOK, out),
	})
}

func (r *Runner) judgeGolden(res *Result, out []byte) {
	store := r.suite.Goldens

	if r.mode == ModeRecord {
		if err := store.Record(res.ID, out); err != nil {
			res.fail(&ExecutionFailedError{
				ID:         res.ID,
				Diagnostic: fmt.Sprintf("failed to record golden file %s: %v", store.Path(res.ID), err),
				Err:        err,
			})
			return
		}
		res.Recorded = true
		res.pass()
		return
	}

	mismatch, err := store.Compare(res.ID, out)
	switch {
	case errors.Is(err, golden.ErrMissing):
		res.fail(&ExecutionFailedError{
			ID: res.ID,
			Diagnostic: fmt.Sprintf("golden file missing: %s\nrerun with --update or FIXTUREKIT_RECORD=1 to record it\n--- actual\n%s",
				store.Path(res.ID), out),
			Err: err,
		})
	case err != nil:
		res.fail(&ExecutionFailedError{ID: res.ID, Diagnostic: err.Error(), Err: err})
	case mismatch != nil:
		res.fail(&ExecutionFailedError{ID: res.ID, Diagnostic: mismatch.Diff, Err: mismatch})
	default:
		res.pass()
	}
}
