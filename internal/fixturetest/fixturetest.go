// Package fixturetest runs fixture suites as go test subtests.
//
//	func TestSandbox(t *testing.T) {
//	    suite := &harness.Suite{
//	        Name:     "sandbox",
//	        Dir:      "testdata/sandbox",
//	        Pipeline: pipeline.NewCUE(),
//	    }
//	    fixturetest.Run(t, suite)
//	}
//
// Run adds an AllFilesPresent subtest for the completeness check and one
// subtest per fixture, named by the fixture label. Setting
// FIXTUREKIT_RECORD=1 rewrites golden files instead of comparing them.
// A suite without a Logger logs nowhere.
package fixturetest

import (
	"testing"

	"github.com/roach88/fixturekit/internal/drift"
	"github.com/roach88/fixturekit/internal/harness"
)

type config struct {
	parallel bool
	record   bool
}

// Option configures Run.
type Option func(*config)

// Parallel runs fixture subtests in parallel.
func Parallel() Option {
	return func(c *config) {
		c.parallel = true
	}
}

// Record overrides the record mode taken from $FIXTUREKIT_RECORD.
func Record(on bool) Option {
	return func(c *config) {
		c.record = on
	}
}

// Run checks the suite for drift and runs every fixture as a subtest.
// An unavailable fixture directory fails t immediately.
func Run(t *testing.T, s *harness.Suite, opts ...Option) {
	t.Helper()

	cfg := config{record: harness.ModeFromEnv() == harness.ModeRecord}
	for _, opt := range opts {
		opt(&cfg)
	}

	mode := harness.ModeVerify
	if cfg.record {
		mode = harness.ModeRecord
	}

	if err := s.Validate(); err != nil {
		t.Fatalf("suite %s: %v", s.Name, err)
	}
	table, err := s.Table(harness.NewRunner(s, harness.WithMode(mode)))
	if err != nil {
		t.Fatalf("suite %s: %v", s.Name, err)
	}

	t.Run("AllFilesPresent", func(t *testing.T) {
		checkComplete(t, table)
	})

	for _, entry := range table.Entries() {
		t.Run(entry.Label, func(t *testing.T) {
			if cfg.parallel {
				t.Parallel()
			}
			report(t, entry, entry.Run(t.Context()))
		})
	}
}

func checkComplete(tb testing.TB, table *harness.Table) {
	tb.Helper()
	s := table.Suite()
	if _, err := table.Check(drift.NewChecker(s.Stale, s.Logger)); err != nil {
		tb.Errorf("suite %s: %v", s.Name, err)
	}
}

func report(tb testing.TB, entry harness.Entry, res *harness.Result) {
	tb.Helper()
	switch res.State {
	case harness.Passed:
		if res.Recorded {
			tb.Logf("recorded %s", entry.Golden)
		}
	case harness.Errored:
		tb.Fatalf("%s: %v", entry.ID, res.Err)
	default:
		tb.Errorf("%s: %s\n%s", entry.ID, res.State, res.Diagnostic)
	}
}
