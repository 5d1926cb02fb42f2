package drift

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/roach88/fixturekit/internal/fixture"
)

// Mode selects how stale generated entries are treated.
type Mode int

const (
	// Strict fails the check on any stale entry.
	Strict Mode = iota
	// Lenient logs stale entries and passes.
	Lenient
)

func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Lenient:
		return "lenient"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "strict" or "lenient". The empty string means Strict.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	default:
		return Strict, fmt.Errorf("invalid stale policy %q: must be strict or lenient", s)
	}
}

// Report is the outcome of one completeness check.
type Report struct {
	Mode       string       `json:"mode"`
	Expected   []fixture.ID `json:"expected"`
	Excluded   []fixture.ID `json:"excluded,omitempty"`
	Missing    []fixture.ID `json:"missing,omitempty"`
	Stale      []fixture.ID `json:"stale,omitempty"`
	Duplicates []fixture.ID `json:"duplicates,omitempty"`
}

// Complete reports whether the check passed under the report's mode.
func (r *Report) Complete() bool {
	if len(r.Missing) > 0 || len(r.Duplicates) > 0 {
		return false
	}
	return r.Mode == Lenient.String() || len(r.Stale) == 0
}

// Checker runs completeness checks.
type Checker struct {
	Mode   Mode
	Logger *slog.Logger
}

// NewChecker creates a checker. A nil logger discards output.
func NewChecker(mode Mode, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Checker{Mode: mode, Logger: logger}
}

// CheckComplete runs a check with a silent checker.
func CheckComplete(enumerated, excluded, generated []fixture.ID, mode Mode) (*Report, error) {
	return NewChecker(mode, nil).Check(enumerated, excluded, generated)
}

// Check compares the enumerated fixtures against the generated entries.
//
// Returns a *MissingGeneratedTestsError when expected fixtures lack an
// entry, when an entry is listed more than once, or, in Strict mode, when an
// entry has no fixture. The report is returned in every case.
func (c *Checker) Check(enumerated, excluded, generated []fixture.ID) (*Report, error) {
	enumerated = lo.Uniq(enumerated)
	expected := sorted(lo.Without(enumerated, excluded...))
	missing, stale := lo.Difference(expected, lo.Uniq(generated))
	present := lo.Filter(enumerated, func(id fixture.ID, _ int) bool {
		return lo.Contains(excluded, id)
	})

	report := &Report{
		Mode:       c.Mode.String(),
		Expected:   expected,
		Excluded:   sorted(present),
		Missing:    sorted(missing),
		Stale:      sorted(stale),
		Duplicates: sorted(lo.FindDuplicates(generated)),
	}

	if c.Mode == Lenient {
		for _, id := range report.Stale {
			c.Logger.Warn("stale generated test", "fixture", string(id))
		}
	}

	if report.Complete() {
		c.Logger.Debug("fixture set complete",
			"expected", len(report.Expected),
			"excluded", len(report.Excluded),
			"stale", len(report.Stale),
		)
		return report, nil
	}

	err := &MissingGeneratedTestsError{
		Missing:    report.Missing,
		Duplicates: report.Duplicates,
	}
	if c.Mode == Strict {
		err.Stale = report.Stale
	}
	return report, err
}

func sorted(ids []fixture.ID) []fixture.ID {
	out := slices.Clone(ids)
	if out == nil {
		out = []fixture.ID{}
	}
	slices.Sort(out)
	return out
}
