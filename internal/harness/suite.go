package harness

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/fixturekit/internal/drift"
	"github.com/roach88/fixturekit/internal/fixture"
	"github.com/roach88/fixturekit/internal/golden"
	"github.com/roach88/fixturekit/internal/pipeline"
)

// Expectation selects how a fixture's output is judged.
type Expectation string

const (
	// ExpectGolden compares the output with the fixture's golden file.
	ExpectGolden Expectation = "golden"
	// ExpectBox requires the output, trimmed, to be exactly BoxOK.
	ExpectBox Expectation = "box"
)

// BoxOK is the output a box fixture must produce.
const BoxOK = "OK"

// ParseExpectation parses "golden" or "box". The empty string means
// ExpectGolden.
func ParseExpectation(s string) (Expectation, error) {
	switch Expectation(strings.ToLower(strings.TrimSpace(s))) {
	case "", ExpectGolden:
		return ExpectGolden, nil
	case ExpectBox:
		return ExpectBox, nil
	default:
		return "", fmt.Errorf("invalid expectation %q: must be golden or box", s)
	}
}

// Suite is one fixture directory together with everything needed to check
// and run it.
type Suite struct {
	Name       string
	Dir        string
	Pattern    *fixture.Pattern
	Exclusions *fixture.ExclusionSet
	Stale      drift.Mode
	Expect     Expectation
	Goldens    *golden.Store
	Pipeline   pipeline.Pipeline

	// Generated is an optional external list of generated tests. When nil
	// the table built from the scan is checked instead.
	Generated []fixture.ID

	Logger *slog.Logger
}

// Validate checks required fields and fills defaults.
func (s *Suite) Validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("suite name is required"))
	}
	if s.Dir == "" {
		errs = append(errs, fmt.Errorf("suite %q: dir is required", s.Name))
	}
	if s.Pipeline == nil {
		errs = append(errs, fmt.Errorf("suite %q: pipeline is required", s.Name))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if s.Pattern == nil {
		s.Pattern = fixture.DefaultPattern()
	}
	if s.Expect == "" {
		s.Expect = ExpectGolden
	}
	if s.Goldens == nil {
		s.Goldens = golden.NewStore(s.Dir, "")
	}
	if s.Logger == nil {
		s.Logger = slog.New(slog.DiscardHandler)
	}
	return nil
}

// Scan enumerates the suite's fixtures.
func (s *Suite) Scan() ([]fixture.ID, error) {
	return fixture.Scan(s.Dir, s.Pattern)
}

// Describe returns the metadata of one fixture in this suite.
func (s *Suite) Describe(id fixture.ID) fixture.Metadata {
	return fixture.Describe(s.Dir, s.Pattern, id)
}

// Table scans the fixture directory once and builds the run table. Each
// entry invokes r; a nil r means NewRunner(s). Fixtures whose golden files
// collide fail with a *GoldenCollisionError.
func (s *Suite) Table(r *Runner) (*Table, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if r == nil {
		r = NewRunner(s)
	}

	enumerated, err := s.Scan()
	if err != nil {
		return nil, err
	}
	return newTable(s, r, enumerated)
}
