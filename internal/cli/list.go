package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/fixturekit/internal/fixture"
)

// SuiteListing is the table of one suite.
type SuiteListing struct {
	Suite    string          `json:"suite"`
	Dir      string          `json:"dir"`
	Pipeline string          `json:"pipeline"`
	Expect   string          `json:"expect"`
	Fixtures []ListedFixture `json:"fixtures"`
	Excluded []fixture.ID    `json:"excluded,omitempty"`
}

// ListedFixture is one row of a suite table.
type ListedFixture struct {
	ID     fixture.ID `json:"id"`
	Label  string     `json:"label"`
	Golden string     `json:"golden,omitempty"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [suite...]",
		Short: "List the fixtures of each suite",
		Long: `Scan each suite's fixture directory and print the resulting test table:
fixture ID, test label and golden file.

Examples:
  fixturekit list
  fixturekit list sandbox --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runList(opts *RootOptions, names []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	m, err := opts.loadManifest()
	if err != nil {
		return formatter.commandError(ErrCodeManifest, err)
	}
	suites, err := opts.buildSuites(m, names)
	if err != nil {
		return formatter.commandError(suiteErrorCode(err), err)
	}

	listings := make([]SuiteListing, 0, len(suites))
	for _, s := range suites {
		table, err := s.Table(nil)
		if err != nil {
			return formatter.commandError(scanErrorCode(err), err)
		}
		l := SuiteListing{
			Suite:    s.Name,
			Dir:      s.Dir,
			Pipeline: s.Pipeline.Name(),
			Expect:   string(s.Expect),
			Fixtures: make([]ListedFixture, 0, table.Len()),
			Excluded: table.Excluded(),
		}
		for _, e := range table.Entries() {
			l.Fixtures = append(l.Fixtures, ListedFixture{ID: e.ID, Label: e.Label, Golden: e.Golden})
		}
		listings = append(listings, l)
	}

	if formatter.JSON() {
		return formatter.Success(listings)
	}

	w := formatter.Writer
	for i, l := range listings {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%s, %s): %d fixture(s)\n", l.Suite, l.Pipeline, l.Expect, len(l.Fixtures))
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  ID\tLABEL\tGOLDEN")
		for _, f := range l.Fixtures {
			golden := f.Golden
			if golden == "" {
				golden = "-"
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", f.ID, f.Label, golden)
		}
		for _, id := range l.Excluded {
			fmt.Fprintf(tw, "  %s\t(excluded)\t-\n", id)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
