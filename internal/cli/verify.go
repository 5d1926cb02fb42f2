package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fixturekit/internal/drift"
	"github.com/roach88/fixturekit/internal/fixture"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Stale string // overrides every suite's stale policy when set
}

// SuiteVerification is the completeness report of one suite.
type SuiteVerification struct {
	Suite    string        `json:"suite"`
	Dir      string        `json:"dir"`
	Complete bool          `json:"complete"`
	Report   *drift.Report `json:"report"`
}

// VerifyResult holds the overall verify result.
type VerifyResult struct {
	Suites   []SuiteVerification `json:"suites"`
	Complete int                 `json:"complete"`
	Drifted  int                 `json:"drifted"`
	Total    int                 `json:"total"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify [suite...]",
		Short: "Check that every fixture has a test entry",
		Long: `Scan each suite's fixture directory and compare the fixtures found
against the suite's test table or its external generated list.

Fixtures without a test entry are reported as missing. Test entries
without a fixture are reported as stale; they fail the check under the
strict policy and are only logged under the lenient policy.

Exit codes:
  0 - All suites complete
  1 - Drift detected in one or more suites
  2 - Command error (bad manifest, fixture directory unavailable, etc.)

Examples:
  fixturekit verify
  fixturekit verify sandbox box
  fixturekit verify --stale lenient --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Stale, "stale", "", "stale entry policy for all suites (strict|lenient)")

	return cmd
}

func runVerify(opts *VerifyOptions, names []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	var override *drift.Mode
	if opts.Stale != "" {
		mode, err := drift.ParseMode(opts.Stale)
		if err != nil {
			return formatter.commandError(ErrCodeGeneric, err)
		}
		override = &mode
	}

	m, err := opts.loadManifest()
	if err != nil {
		return formatter.commandError(ErrCodeManifest, err)
	}
	suites, err := opts.buildSuites(m, names)
	if err != nil {
		return formatter.commandError(suiteErrorCode(err), err)
	}

	result := VerifyResult{
		Suites: make([]SuiteVerification, 0, len(suites)),
		Total:  len(suites),
	}
	var drifted []error

	for _, s := range suites {
		mode := s.Stale
		if override != nil {
			mode = *override
		}
		formatter.VerboseLog("Verifying suite %s in %s (stale: %s)", s.Name, s.Dir, mode)

		table, err := s.Table(nil)
		if err != nil {
			return formatter.commandError(scanErrorCode(err), err)
		}

		report, err := table.Check(drift.NewChecker(mode, opts.logger().With("suite", s.Name)))
		v := SuiteVerification{
			Suite:    s.Name,
			Dir:      s.Dir,
			Complete: err == nil,
			Report:   report,
		}
		result.Suites = append(result.Suites, v)

		if err != nil {
			if !errors.Is(err, drift.ErrMissingGeneratedTests) {
				return formatter.commandError(ErrCodeGeneric, err)
			}
			result.Drifted++
			drifted = append(drifted, fmt.Errorf("suite %s: %w", s.Name, err))
		} else {
			result.Complete++
		}

		if !formatter.JSON() {
			writeVerification(formatter, v, err)
		}
	}

	if result.Drifted > 0 {
		message := fmt.Sprintf("%d suite(s) drifted", result.Drifted)
		if formatter.JSON() {
			if err := formatter.Failure(ErrCodeDrift, message, result); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(formatter.Writer)
			fmt.Fprintf(formatter.Writer, "Verify Summary: %d complete, %d drifted, %d total\n",
				result.Complete, result.Drifted, result.Total)
		}
		return WrapExitError(ExitFailure, message, errors.Join(drifted...))
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintln(formatter.Writer)
	fmt.Fprintf(formatter.Writer, "%s All %d suite(s) complete\n", passMark(), result.Total)
	return nil
}

func writeVerification(f *OutputFormatter, v SuiteVerification, err error) {
	w := f.Writer
	r := v.Report
	counts := fmt.Sprintf("%d fixture(s)", len(r.Expected))
	if len(r.Excluded) > 0 {
		counts += fmt.Sprintf(", %d excluded", len(r.Excluded))
	}

	if err == nil {
		fmt.Fprintf(w, "%s %s: %s\n", passMark(), v.Suite, counts)
		for _, id := range r.Stale {
			fmt.Fprintf(w, "  %s stale test entry %s\n", warnMark(), id)
		}
		return
	}

	fmt.Fprintf(w, "%s %s: %s\n", failMark(), v.Suite, counts)
	var driftErr *drift.MissingGeneratedTestsError
	if errors.As(err, &driftErr) {
		writeIDs(w, "missing test entry", driftErr.Missing)
		writeIDs(w, "stale test entry", driftErr.Stale)
		writeIDs(w, "duplicate test entry", driftErr.Duplicates)
		return
	}
	fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(err.Error(), "\n", "\n  "))
}

func writeIDs(w io.Writer, what string, ids []fixture.ID) {
	for _, id := range ids {
		fmt.Fprintf(w, "  %s: %s\n", what, id)
	}
}

// suiteErrorCode maps suite construction errors to CLI codes.
func suiteErrorCode(err error) string {
	var unknown *unknownSuiteError
	switch {
	case errors.As(err, &unknown):
		return ErrCodeUnknownSuite
	default:
		return ErrCodeManifest
	}
}

// scanErrorCode maps table construction errors to CLI codes.
func scanErrorCode(err error) string {
	if errors.Is(err, fixture.ErrStoreUnavailable) {
		return ErrCodeStoreUnavailable
	}
	return ErrCodeGeneric
}
