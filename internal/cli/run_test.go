package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fixturekit/internal/harness"
	"github.com/roach88/fixturekit/internal/testutil"
)

func TestRun_ReportsFailingFixture(t *testing.T) {
	clearEnv(t)
	root := newProject(t, nil)

	stdout, _, err := execute(t, root, "run", "concepts", "--parallel", "2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, stdout, "✓ display concept.cue\n")
	assert.Contains(t, stdout, "✗ general sandbox.cue [failed]\n")
	assert.Contains(t, stdout, "  -{\"value\":3}\n")
	assert.Contains(t, stdout, "  +{\"value\":2}\n")
	assert.Contains(t, stdout, "Run Summary: 1 passed, 1 failed, 0 errored, 2 total")
	assert.NotContains(t, stdout, "draft.cue")
}

func TestRun_SelectedFixturePasses(t *testing.T) {
	clearEnv(t)
	root := newProject(t, nil)

	stdout, _, err := execute(t, root, "run", "concepts", "display concept.cue")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Run Summary: 1 passed, 0 failed, 0 errored, 1 total")
	assert.Contains(t, stdout, "✓ All fixtures passed")
}

func TestRun_FilterSelectsFixtures(t *testing.T) {
	clearEnv(t)
	root := newProject(t, nil)

	stdout, _, err := execute(t, root, "run", "concepts", "--filter", "display*")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 total")

	stdout, _, err = execute(t, root, "run", "concepts", "--filter", "nothing/**")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No fixtures selected.")
}

func TestRun_InvalidFilter(t *testing.T) {
	clearEnv(t)
	root := newProject(t, nil)

	stdout, _, err := execute(t, root, "run", "concepts", "--filter", "a/[b")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E006]")
}

func TestRun_UnknownFixture(t *testing.T) {
	clearEnv(t)
	root := newProject(t, nil)

	stdout, _, err := execute(t, root, "run", "concepts", "wip/draft.cue")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E005]")
	assert.Contains(t, stdout, `fixture "wip/draft.cue" is not in suite concepts`)
}

func TestRun_MissingSuiteArg(t *testing.T) {
	clearEnv(t)

	_, _, err := execute(t, t.TempDir(), "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestRun_UpdateRecordsGoldens(t *testing.T) {
	clearEnv(t)
	root := newProject(t, nil)
	goldenPath := filepath.Join(root, "testData", "concepts", "general sandbox.golden")

	stdout, _, err := execute(t, root, "run", "concepts", "--update")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ general sandbox.cue (golden updated)")
	assert.Equal(t, "{\"value\":2}\n", testutil.ReadFile(t, goldenPath))

	_, _, err = execute(t, root, "run", "concepts")
	assert.NoError(t, err)
}

func TestRun_RecordEnv(t *testing.T) {
	clearEnv(t)
	root := newProject(t, nil)
	t.Setenv(EnvRecord, "1")

	_, _, err := execute(t, root, "run", "concepts")
	require.NoError(t, err)
	assert.Equal(t, "{\"value\":2}\n",
		testutil.ReadFile(t, filepath.Join(root, "testData", "concepts", "general sandbox.golden")))
}

func TestRun_Progress(t *testing.T) {
	clearEnv(t)
	root := newProject(t, nil)

	stdout, stderr, err := execute(t, root, "run", "queries", "--progress")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Running fixtures")
	assert.NotContains(t, stdout, "Running fixtures")
}

func TestRun_JSON(t *testing.T) {
	clearEnv(t)
	root := newProject(t, nil)

	stdout, _, err := execute(t, root, "run", "concepts", "--format", "json")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Suite    string `json:"suite"`
			Mode     string `json:"mode"`
			Fixtures []struct {
				ID         string `json:"id"`
				Label      string `json:"label"`
				State      string `json:"state"`
				Diagnostic string `json:"diagnostic"`
				Golden     string `json:"golden"`
			} `json:"fixtures"`
			Passed int `json:"passed"`
			Failed int `json:"failed"`
			Total  int `json:"total"`
		} `json:"data"`
		Error *CLIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))

	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeFixtureFailed, resp.Error.Code)
	assert.Equal(t, "concepts", resp.Data.Suite)
	assert.Equal(t, harness.ModeVerify.String(), resp.Data.Mode)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Fixtures, 2)

	first, second := resp.Data.Fixtures[0], resp.Data.Fixtures[1]
	assert.Equal(t, "display concept.cue", first.ID)
	assert.Equal(t, "Display_concept", first.Label)
	assert.Equal(t, "passed", first.State)
	assert.Equal(t, "general sandbox.cue", second.ID)
	assert.Equal(t, "failed", second.State)
	assert.Contains(t, second.Diagnostic, "+{\"value\":2}")
	assert.Equal(t, filepath.Join(root, "testData", "concepts", "general sandbox.golden"), second.Golden)
}
