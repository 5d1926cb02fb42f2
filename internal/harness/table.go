package harness

import (
	"context"

	"github.com/samber/lo"

	"github.com/roach88/fixturekit/internal/drift"
	"github.com/roach88/fixturekit/internal/fixture"
)

// Entry is one runnable row of a Table.
type Entry struct {
	fixture.Metadata
	Golden string `json:"golden,omitempty"`

	run func(ctx context.Context) *Result
}

// Run executes the fixture.
func (e Entry) Run(ctx context.Context) *Result {
	return e.run(ctx)
}

// Table maps every non-excluded fixture of a suite to a runnable entry.
type Table struct {
	suite      *Suite
	enumerated []fixture.ID
	excluded   []fixture.ID
	entries    []Entry
	index      map[fixture.ID]int
}

// newTable fails when two golden fixtures resolve to the same golden file.
func newTable(s *Suite, r *Runner, enumerated []fixture.ID) (*Table, error) {
	goldens := make(map[string]fixture.ID)
	t := &Table{
		suite:      s,
		enumerated: enumerated,
		excluded:   s.Exclusions.Filter(enumerated),
		index:      make(map[fixture.ID]int),
	}
	for _, id := range enumerated {
		if s.Exclusions.Contains(id) {
			continue
		}
		entry := Entry{
			Metadata: s.Describe(id),
			run: func(ctx context.Context) *Result {
				return r.Run(ctx, id)
			},
		}
		if s.Expect == ExpectGolden {
			entry.Golden = s.Goldens.Path(id)
			if prev, ok := goldens[entry.Golden]; ok {
				return nil, &GoldenCollisionError{Golden: entry.Golden, IDs: [2]fixture.ID{prev, id}}
			}
			goldens[entry.Golden] = id
		}
		t.index[id] = len(t.entries)
		t.entries = append(t.entries, entry)
	}
	return t, nil
}

// Suite returns the suite the table was built for.
func (t *Table) Suite() *Suite {
	return t.suite
}

// Entries returns the entries in enumeration order.
func (t *Table) Entries() []Entry {
	return t.entries
}

// IDs returns the entry IDs in enumeration order.
func (t *Table) IDs() []fixture.ID {
	return lo.Map(t.entries, func(e Entry, _ int) fixture.ID {
		return e.ID
	})
}

// Enumerated returns every fixture found by the scan, excluded ones included.
func (t *Table) Enumerated() []fixture.ID {
	return t.enumerated
}

// Excluded returns the scanned fixtures that the exclusion set removed.
func (t *Table) Excluded() []fixture.ID {
	return t.excluded
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Lookup returns the entry for id.
func (t *Table) Lookup(id fixture.ID) (Entry, bool) {
	i, ok := t.index[id]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// Check runs the completeness check for the table. The suite's external
// Generated list is checked when present, otherwise the table's own IDs.
func (t *Table) Check(c *drift.Checker) (*drift.Report, error) {
	generated := t.IDs()
	if t.suite.Generated != nil {
		generated = t.suite.Generated
	}
	return c.Check(t.enumerated, t.excluded, generated)
}
