package harness

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/fixturekit/internal/fixture"
	"github.com/roach88/fixturekit/internal/pipeline"
	"github.com/roach88/fixturekit/internal/testutil"
)

// fakeCompiler upper-cases the fixture and prefixes its ID. A fixture that
// mentions "crash" makes the pipeline fail.
func fakeCompiler() pipeline.Pipeline {
	return pipeline.NewFunc("fake", func(ctx context.Context, src pipeline.Source) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := string(src.Content)
		if strings.Contains(text, "crash") {
			return nil, errors.New("internal compiler error")
		}
		return []byte("compiled " + string(src.ID) + "\n" + strings.ToUpper(text)), nil
	})
}

// boxRunner returns the fixture's last line, standing in for box().
func boxRunner() pipeline.Pipeline {
	return pipeline.NewFunc("box", func(_ context.Context, src pipeline.Source) ([]byte, error) {
		lines := strings.Split(strings.TrimSpace(string(src.Content)), "\n")
		return []byte(lines[len(lines)-1] + "\n"), nil
	})
}

func newSuite(t *testing.T, files map[string]string, exclude ...string) *Suite {
	t.Helper()
	dir := testutil.TempTree(t, files)
	exclusions, err := fixture.NewExclusionSet(exclude...)
	require.NoError(t, err)

	s := &Suite{
		Name:       "sandbox",
		Dir:        dir,
		Exclusions: exclusions,
		Pipeline:   fakeCompiler(),
	}
	require.NoError(t, s.Validate())
	return s
}
