package drift

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/fixturekit/internal/fixture"
)

// ErrMissingGeneratedTests is matched by every *MissingGeneratedTestsError.
var ErrMissingGeneratedTests = errors.New("fixture set and test table differ")

// MissingGeneratedTestsError lists the fixtures that drifted from the table.
type MissingGeneratedTestsError struct {
	Missing    []fixture.ID
	Stale      []fixture.ID
	Duplicates []fixture.ID
}

func (e *MissingGeneratedTestsError) Error() string {
	var b strings.Builder
	b.WriteString("fixture set and test table differ")
	writeList(&b, "missing tests for", e.Missing)
	writeList(&b, "stale tests for", e.Stale)
	writeList(&b, "duplicate tests for", e.Duplicates)
	return b.String()
}

func (e *MissingGeneratedTestsError) Is(target error) bool {
	return target == ErrMissingGeneratedTests
}

func writeList(b *strings.Builder, title string, ids []fixture.ID) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintf(b, "\n  %s %d fixture(s):", title, len(ids))
	for _, id := range ids {
		fmt.Fprintf(b, "\n    %s", id)
	}
}
