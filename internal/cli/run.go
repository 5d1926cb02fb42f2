package cli

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/fixturekit/internal/fixture"
	"github.com/roach88/fixturekit/internal/harness"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Update   bool   // record golden files instead of comparing
	Filter   string // doublestar pattern over fixture IDs
	Parallel int    // concurrent fixtures
	Progress bool   // progress bar on stderr
}

// FixtureOutcome is the reported result of one fixture.
type FixtureOutcome struct {
	*harness.Result
	Golden string `json:"golden,omitempty"`
}

// RunResult holds the overall run result.
type RunResult struct {
	Suite    string           `json:"suite"`
	Mode     string           `json:"mode"`
	Fixtures []FixtureOutcome `json:"fixtures"`
	Passed   int              `json:"passed"`
	Failed   int              `json:"failed"`
	Errored  int              `json:"errored"`
	Recorded int              `json:"recorded"`
	Total    int              `json:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <suite> [fixture-id...]",
		Short: "Run fixtures against their golden expectations",
		Long: `Run fixtures of a suite through its pipeline and compare each output
with the fixture's golden file (or, for box suites, with "OK").

Without fixture IDs every fixture in the suite table runs. With --update
the output is recorded as the new golden file instead. Setting
FIXTUREKIT_RECORD=1 has the same effect.

Exit codes:
  0 - All fixtures passed
  1 - One or more fixtures failed
  2 - Command error (bad manifest, unknown fixture, etc.)

Examples:
  fixturekit run sandbox
  fixturekit run sandbox "display concept.kt"
  fixturekit run sandbox --filter "nested/**" --parallel 4
  fixturekit run sandbox --update`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFixtures(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "record golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter fixture IDs by doublestar pattern")
	cmd.Flags().IntVarP(&opts.Parallel, "parallel", "p", runtime.GOMAXPROCS(0), "number of fixtures to run concurrently")
	cmd.Flags().BoolVar(&opts.Progress, "progress", false, "show a progress bar on stderr")

	return cmd
}

func runFixtures(opts *RunOptions, suiteName string, ids []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if opts.Filter != "" && !doublestar.ValidatePattern(opts.Filter) {
		return formatter.commandError(ErrCodeInvalidFilter, fmt.Errorf("invalid filter pattern %q", opts.Filter))
	}

	m, err := opts.loadManifest()
	if err != nil {
		return formatter.commandError(ErrCodeManifest, err)
	}
	s, err := opts.buildSuite(m, suiteName)
	if err != nil {
		return formatter.commandError(suiteErrorCode(err), err)
	}

	mode := harness.ModeVerify
	if opts.Update || harness.ModeFromEnv() == harness.ModeRecord {
		mode = harness.ModeRecord
	}
	runner := harness.NewRunner(s, harness.WithMode(mode), harness.WithLogger(opts.logger()))

	table, err := s.Table(runner)
	if err != nil {
		return formatter.commandError(scanErrorCode(err), err)
	}

	entries, err := selectEntries(table, ids, opts.Filter)
	if err != nil {
		return formatter.commandError(ErrCodeUnknownFixture, err)
	}
	formatter.VerboseLog("Running %d fixture(s) of suite %s (%s)", len(entries), s.Name, mode)

	outcomes := executeEntries(commandContext(cmd), opts, entries, cmd)

	result := RunResult{
		Suite:    s.Name,
		Mode:     mode.String(),
		Fixtures: outcomes,
		Total:    len(outcomes),
	}
	for _, o := range outcomes {
		switch o.State {
		case harness.Passed:
			result.Passed++
		case harness.Errored:
			result.Errored++
		default:
			result.Failed++
		}
		if o.Recorded {
			result.Recorded++
		}
	}

	if formatter.JSON() {
		return outputRunJSON(formatter, result)
	}
	return outputRunText(formatter, result)
}

// selectEntries picks the named entries, or all entries, and applies the
// filter. Order follows the table.
func selectEntries(table *harness.Table, ids []string, filter string) ([]harness.Entry, error) {
	entries := table.Entries()
	if len(ids) > 0 {
		wanted := make(map[fixture.ID]bool, len(ids))
		for _, raw := range ids {
			id := fixture.NewID(raw)
			if _, ok := table.Lookup(id); !ok {
				return nil, fmt.Errorf("fixture %q is not in suite %s", raw, table.Suite().Name)
			}
			wanted[id] = true
		}
		selected := make([]harness.Entry, 0, len(wanted))
		for _, e := range entries {
			if wanted[e.ID] {
				selected = append(selected, e)
			}
		}
		entries = selected
	}

	if filter == "" {
		return entries, nil
	}
	filtered := make([]harness.Entry, 0, len(entries))
	for _, e := range entries {
		if ok, _ := doublestar.Match(filter, string(e.ID)); ok {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// executeEntries runs entries with bounded concurrency. Results keep the
// order of entries regardless of completion order.
func executeEntries(ctx context.Context, opts *RunOptions, entries []harness.Entry, cmd *cobra.Command) []FixtureOutcome {
	outcomes := make([]FixtureOutcome, len(entries))

	var bar *progressbar.ProgressBar
	var mu sync.Mutex
	var passed, failed int
	if opts.Progress && len(entries) > 0 {
		bar = newProgressBar(cmd, len(entries))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Parallel, 1))
	for i, entry := range entries {
		g.Go(func() error {
			res := entry.Run(ctx)
			outcomes[i] = FixtureOutcome{Result: res, Golden: entry.Golden}

			if bar != nil {
				mu.Lock()
				if res.Passed() {
					passed++
				} else {
					failed++
				}
				updateProgressBar(bar, passed, failed)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	if bar != nil {
		_ = bar.Finish()
	}
	return outcomes
}

func newProgressBar(cmd *cobra.Command, count int) *progressbar.ProgressBar {
	return progressbar.NewOptions(count,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription(progressDescription(0, 0)),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(cmd.ErrOrStderr())
		}),
	)
}

func updateProgressBar(bar *progressbar.ProgressBar, passed, failed int) {
	_ = bar.Set(passed + failed)
	bar.Describe(progressDescription(passed, failed))
}

func progressDescription(passed, failed int) string {
	return color.CyanString("Running fixtures: ") +
		color.GreenString("[passed: %d", passed) +
		" | " +
		color.RedString("failed: %d]", failed)
}

func outputRunJSON(f *OutputFormatter, result RunResult) error {
	if result.Passed == result.Total {
		return f.Success(result)
	}
	message := fmt.Sprintf("%d fixture(s) failed", result.Total-result.Passed)
	if err := f.Failure(ErrCodeFixtureFailed, message, result); err != nil {
		return err
	}
	return NewExitError(ExitFailure, message)
}

func outputRunText(f *OutputFormatter, result RunResult) error {
	w := f.Writer

	if result.Total == 0 {
		fmt.Fprintln(w, "No fixtures selected.")
		return nil
	}

	for _, o := range result.Fixtures {
		switch {
		case o.Passed() && o.Recorded:
			fmt.Fprintf(w, "%s %s (golden updated)\n", passMark(), o.ID)
		case o.Passed():
			fmt.Fprintf(w, "%s %s\n", passMark(), o.ID)
		default:
			fmt.Fprintf(w, "%s %s [%s]\n", failMark(), o.ID, o.State)
			fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(strings.TrimRight(o.Diagnostic, "\n"), "\n", "\n  "))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run Summary: %d passed, %d failed, %d errored, %d total\n",
		result.Passed, result.Failed, result.Errored, result.Total)

	if result.Passed != result.Total {
		return NewExitError(ExitFailure, fmt.Sprintf("%d fixture(s) failed", result.Total-result.Passed))
	}
	fmt.Fprintf(w, "%s All fixtures passed\n", passMark())
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
