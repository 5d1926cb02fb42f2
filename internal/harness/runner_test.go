package harness

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fixturekit/internal/fixture"
	"github.com/roach88/fixturekit/internal/testutil"
)

func TestRun_GoldenMatchPasses(t *testing.T) {
	s := newSuite(t, map[string]string{
		"display concept.kt":     "fun display() = 1\n",
		"display concept.golden": "compiled display concept.kt\nFUN DISPLAY() = 1\n",
	})

	res := NewRunner(s).Run(context.Background(), "display concept.kt")

	assert.Equal(t, Passed, res.State)
	assert.True(t, res.Passed())
	assert.Equal(t, fixture.ID("display concept.kt"), res.ID)
	assert.Equal(t, "Display_concept", res.Label)
	assert.Empty(t, res.Diagnostic)
	assert.NoError(t, res.Err)
	assert.False(t, res.Recorded)
}

func TestRun_GoldenMismatchFails(t *testing.T) {
	s := newSuite(t, map[string]string{
		"general sandbox.kt":     "val x = 2\n",
		"general sandbox.golden": "compiled general sandbox.kt\nVAL X = 1\n",
	})

	res := NewRunner(s).Run(context.Background(), "general sandbox.kt")

	assert.Equal(t, Failed, res.State)
	assert.ErrorIs(t, res.Err, ErrFixtureExecutionFailed)
	assert.Contains(t, res.Err.Error(), "general sandbox.kt")
	assert.Contains(t, res.Diagnostic, "-VAL X = 1\n")
	assert.Contains(t, res.Diagnostic, "+VAL X = 2\n")

	var execErr *ExecutionFailedError
	require.ErrorAs(t, res.Err, &execErr)
	assert.Equal(t, fixture.ID("general sandbox.kt"), execErr.ID)
}

func TestRun_CRLFGoldenMatches(t *testing.T) {
	s := newSuite(t, map[string]string{
		"a.kt":     "x\n",
		"a.golden": "compiled a.kt\r\nX\r\n",
	})

	res := NewRunner(s).Run(context.Background(), "a.kt")
	assert.Equal(t, Passed, res.State, res.Diagnostic)
}

func TestRun_MissingGoldenFails(t *testing.T) {
	s := newSuite(t, map[string]string{"a.kt": "x\n"})

	res := NewRunner(s).Run(context.Background(), "a.kt")

	assert.Equal(t, Failed, res.State)
	assert.Contains(t, res.Diagnostic, filepath.Join(s.Dir, "a.golden"))
	assert.Contains(t, res.Diagnostic, "--update")
	assert.Contains(t, res.Diagnostic, "compiled a.kt\nX\n")
}

func TestRun_UnreadableFixtureErrors(t *testing.T) {
	s := newSuite(t, map[string]string{"a.kt": "x\n"})
	r := NewRunner(s)

	res := r.Run(context.Background(), "gone.kt")
	assert.Equal(t, Errored, res.State)
	assert.ErrorIs(t, res.Err, ErrFixtureLoadFailed)
	assert.ErrorIs(t, res.Err, os.ErrNotExist)
	assert.Contains(t, res.Err.Error(), "gone.kt")

	res = r.Run(context.Background(), "../outside.kt")
	assert.Equal(t, Errored, res.State)
	assert.ErrorIs(t, res.Err, ErrFixtureLoadFailed)
}

func TestRun_PipelineErrorFails(t *testing.T) {
	s := newSuite(t, map[string]string{"boom.kt": "crash\n"})

	res := NewRunner(s).Run(context.Background(), "boom.kt")

	assert.Equal(t, Failed, res.State)
	assert.Contains(t, res.Diagnostic, "pipeline fake failed")
	assert.Contains(t, res.Diagnostic, "internal compiler error")
}

func TestRun_CancelledContextFails(t *testing.T) {
	s := newSuite(t, map[string]string{"a.kt": "x\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewRunner(s).Run(ctx, "a.kt")

	assert.Equal(t, Failed, res.State)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestRun_RecordWritesGolden(t *testing.T) {
	s := newSuite(t, map[string]string{
		"nested/simple.kt":     "fun simple() {}\n",
		"nested/simple.golden": "stale\n",
	})

	res := NewRunner(s, WithMode(ModeRecord)).Run(context.Background(), "nested/simple.kt")
	require.Equal(t, Passed, res.State, res.Diagnostic)
	assert.True(t, res.Recorded)
	assert.Equal(t, "Nested/Simple", res.Label)
	assert.Equal(t, "compiled nested/simple.kt\nFUN SIMPLE() {}\n",
		testutil.ReadFile(t, filepath.Join(s.Dir, "nested", "simple.golden")))

	res = NewRunner(s).Run(context.Background(), "nested/simple.kt")
	assert.Equal(t, Passed, res.State, res.Diagnostic)
	assert.False(t, res.Recorded)
}

func TestRun_RecordCreatesMissingGolden(t *testing.T) {
	s := newSuite(t, map[string]string{"a.kt": "x\n"})

	res := NewRunner(s, WithMode(ModeRecord)).Run(context.Background(), "a.kt")
	require.Equal(t, Passed, res.State)
	assert.FileExists(t, filepath.Join(s.Dir, "a.golden"))
}

func TestRun_BoxExpectation(t *testing.T) {
	s := newSuite(t, map[string]string{
		"ok.kt":   "fun box() = \"OK\"\nOK\n",
		"fail.kt": "fun box() = \"Fail\"\nFail: expected 2\n",
	})
	s.Expect = ExpectBox
	s.Pipeline = boxRunner()
	r := NewRunner(s, WithMode(ModeRecord))

	res := r.Run(context.Background(), "ok.kt")
	assert.Equal(t, Passed, res.State)
	assert.False(t, res.Recorded)
	assert.NoFileExists(t, filepath.Join(s.Dir, "ok.golden"))

	res = r.Run(context.Background(), "fail.kt")
	assert.Equal(t, Failed, res.State)
	assert.Contains(t, res.Diagnostic, "Fail: expected 2")
}

func TestRun_FailureIsolated(t *testing.T) {
	files := map[string]string{"boom.kt": "crash\n"}
	for i := range 8 {
		name := fmt.Sprintf("f%d", i)
		files[name+".kt"] = name + "\n"
		files[name+".golden"] = fmt.Sprintf("compiled %s.kt\nF%d\n", name, i)
	}
	s := newSuite(t, files)
	r := NewRunner(s)

	ids, err := s.Scan()
	require.NoError(t, err)

	results := make([]*Result, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = r.Run(context.Background(), id)
		}()
	}
	wg.Wait()

	for _, res := range results {
		if res.ID == "boom.kt" {
			assert.Equal(t, Failed, res.State)
			continue
		}
		assert.Equal(t, Passed, res.State, "%s: %s", res.ID, res.Diagnostic)
	}
}

func TestRun_Deterministic(t *testing.T) {
	s := newSuite(t, map[string]string{
		"a.kt":     "x\n",
		"a.golden": "compiled a.kt\nY\n",
	})
	r := NewRunner(s)

	first := r.Run(context.Background(), "a.kt")
	second := r.Run(context.Background(), "a.kt")

	assert.Equal(t, first.State, second.State)
	assert.Equal(t, first.Diagnostic, second.Diagnostic)
}

func TestResult_SingleTransition(t *testing.T) {
	res := NewResult(fixture.Metadata{ID: "a.kt", Label: "A"})
	assert.Equal(t, Pending, res.State)
	assert.False(t, res.Done())

	res.fail(&ExecutionFailedError{ID: "a.kt", Diagnostic: "diff"})
	res.pass()

	assert.Equal(t, Failed, res.State)
	assert.Equal(t, "diff", res.Diagnostic)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "passed", Passed.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "errored", Errored.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestModeFromEnv(t *testing.T) {
	tests := []struct {
		value string
		want  Mode
	}{
		{"1", ModeRecord},
		{"true", ModeRecord},
		{"TRUE", ModeRecord},
		{" yes ", ModeRecord},
		{"on", ModeRecord},
		{"", ModeVerify},
		{"0", ModeVerify},
		{"false", ModeVerify},
		{"yes please", ModeVerify},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv(RecordEnv, tt.value)
			assert.Equal(t, tt.want, ModeFromEnv())
		})
	}
}

func TestNewRunner_NilLoggerDiscards(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := testutil.TempTree(t, map[string]string{"general sandbox.kt": "crash\n"})
	s := &Suite{Name: "sandbox", Dir: dir, Pipeline: fakeCompiler()}
	require.NoError(t, s.Validate())
	s.Logger = nil

	res := NewRunner(s).Run(context.Background(), "general sandbox.kt")

	assert.Equal(t, Failed, res.State)
	assert.Empty(t, buf.String())
}
