package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fixturekit/internal/testutil"
)

// TestHelperProcess is not a real test. It stands in for the external
// compiler when re-executed by the exec pipeline tests.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("FIXTUREKIT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) > 0 {
		args = args[1:]
	}

	switch os.Getenv("FIXTUREKIT_HELPER_MODE") {
	case "echo":
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		os.Stdout.Write(data)
	case "stdin":
		data, _ := io.ReadAll(os.Stdin)
		fmt.Fprintf(os.Stdout, "stdin: %s", data)
	case "diagnostic":
		fmt.Fprintf(os.Stdout, "compiling %s", args[0])
		fmt.Fprintf(os.Stderr, "%s:3:5: unresolved reference\n", args[0])
		os.Exit(3)
	case "args":
		fmt.Fprintln(os.Stdout, strings.Join(args, "|"))
	case "sleep":
		time.Sleep(10 * time.Second)
	case "fork":
		// Behaves like a wrapper script: the worker inherits stdout and
		// stderr and the wrapper waits for it.
		worker := exec.Command(os.Args[0], "-test.run=TestHelperProcess", "--")
		worker.Env = append(os.Environ(), "FIXTUREKIT_HELPER_MODE=sleep")
		worker.Stdout = os.Stdout
		worker.Stderr = os.Stderr
		if err := worker.Run(); err != nil {
			os.Exit(1)
		}
	}
	os.Exit(0)
}

func helperCommand(mode string, args ...string) Config {
	return Config{
		Kind:    KindExec,
		Command: append([]string{os.Args[0], "-test.run=TestHelperProcess", "--"}, args...),
		Env: map[string]string{
			"FIXTUREKIT_HELPER_PROCESS": "1",
			"FIXTUREKIT_HELPER_MODE":    mode,
		},
	}
}

func sourceFor(t *testing.T, dir, id string) Source {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(id))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return Source{ID: fixtureID(id), Path: path, Content: content}
}

func TestExec_CapturesStdout(t *testing.T) {
	dir := testutil.TempTree(t, map[string]string{"display concept.kt": "fun box() = \"OK\"\n"})

	p, err := NewExec(helperCommand("echo", "{fixture}"))
	require.NoError(t, err)

	out, err := p.Process(context.Background(), sourceFor(t, dir, "display concept.kt"))
	require.NoError(t, err)
	assert.Equal(t, "fun box() = \"OK\"\n", string(out))
}

func TestExec_RendersStderrAndExitCode(t *testing.T) {
	dir := testutil.TempTree(t, map[string]string{"general sandbox.kt": "x"})

	p, err := NewExec(helperCommand("diagnostic", "{fixture}"))
	require.NoError(t, err)

	out, err := p.Process(context.Background(), sourceFor(t, dir, "general sandbox.kt"))
	require.NoError(t, err, "a failing compiler is output, not a pipeline error")

	want := "compiling general sandbox.kt\n" +
		"--- stderr ---\n" +
		"general sandbox.kt:3:5: unresolved reference\n" +
		"--- exit: 3 ---\n"
	assert.Equal(t, want, string(out), "absolute paths are replaced by the fixture id")
}

func TestExec_Placeholders(t *testing.T) {
	dir := testutil.TempTree(t, map[string]string{"nested/a.kt": ""})
	src := sourceFor(t, dir, "nested/a.kt")

	p, err := NewExec(helperCommand("args", "{id}", "--dir={dir}"))
	require.NoError(t, err)

	out, err := p.Process(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "nested/a.kt|--dir="+filepath.Join(dir, "nested")+"\n", string(out))
}

func TestExec_Stdin(t *testing.T) {
	dir := testutil.TempTree(t, map[string]string{"a.kt": "payload\n"})

	cfg := helperCommand("stdin")
	cfg.Stdin = true
	p, err := NewExec(cfg)
	require.NoError(t, err)

	out, err := p.Process(context.Background(), sourceFor(t, dir, "a.kt"))
	require.NoError(t, err)
	assert.Equal(t, "stdin: payload\n", string(out))
}

func TestExec_Timeout(t *testing.T) {
	dir := testutil.TempTree(t, map[string]string{"slow.kt": ""})

	cfg := helperCommand("sleep")
	cfg.Timeout = 100 * time.Millisecond
	p, err := NewExec(cfg)
	require.NoError(t, err)

	_, err = p.Process(context.Background(), sourceFor(t, dir, "slow.kt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExec_TimeoutKillsForkedWorker(t *testing.T) {
	dir := testutil.TempTree(t, map[string]string{"slow.kt": ""})

	cfg := helperCommand("fork")
	cfg.Timeout = 200 * time.Millisecond
	p, err := NewExec(cfg)
	require.NoError(t, err)

	start := time.Now()
	_, err = p.Process(context.Background(), sourceFor(t, dir, "slow.kt"))
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, cfg.Timeout+WaitDelay+2*time.Second, "returned after %s", elapsed)
}

func TestExec_CancelKillsForkedWorker(t *testing.T) {
	dir := testutil.TempTree(t, map[string]string{"slow.kt": ""})

	p, err := NewExec(helperCommand("fork"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	time.AfterFunc(200*time.Millisecond, cancel)

	start := time.Now()
	_, err = p.Process(ctx, sourceFor(t, dir, "slow.kt"))
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, elapsed, 200*time.Millisecond+WaitDelay+2*time.Second, "returned after %s", elapsed)
}

func TestExec_MissingBinary(t *testing.T) {
	p, err := NewExec(Config{Kind: KindExec, Command: []string{filepath.Join(t.TempDir(), "no-such-compiler")}})
	require.NoError(t, err)

	_, err = p.Process(context.Background(), Source{ID: "a.kt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to run")
}

func TestNewExec_RequiresCommand(t *testing.T) {
	_, err := NewExec(Config{Kind: KindExec})
	assert.Error(t, err)
}

func TestExec_Name(t *testing.T) {
	p, err := NewExec(Config{Command: []string{"/usr/bin/kotlinc", "{fixture}"}})
	require.NoError(t, err)
	assert.Equal(t, "exec:kotlinc", p.Name())
}
