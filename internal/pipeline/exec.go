package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// WaitDelay bounds how long Process waits for the command's output pipes
// to close after the command is killed.
const WaitDelay = 2 * time.Second

// Exec runs an external command per fixture.
//
// Command arguments may use the placeholders {fixture} (absolute fixture
// path), {id} (fixture ID) and {dir} (directory holding the fixture). The
// rendered output is stdout, followed by a "--- stderr ---" section when
// stderr is non-empty and a "--- exit: N ---" line for non-zero exits.
// Occurrences of the absolute fixture path in the output are replaced with
// the fixture ID so goldens do not depend on the checkout location.
//
// On timeout or cancellation the command's whole process group is killed,
// which covers wrapper scripts that fork the real compiler.
type Exec struct {
	command []string
	dir     string
	env     []string
	stdin   bool
	timeout time.Duration
}

// NewExec creates an exec pipeline from cfg.
func NewExec(cfg Config) (*Exec, error) {
	if len(cfg.Command) == 0 || cfg.Command[0] == "" {
		return nil, fmt.Errorf("exec pipeline requires a command")
	}

	keys := make([]string, 0, len(cfg.Env))
	for k := range cfg.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+cfg.Env[k])
	}

	return &Exec{
		command: append([]string(nil), cfg.Command...),
		dir:     cfg.Dir,
		env:     env,
		stdin:   cfg.Stdin,
		timeout: cfg.Timeout,
	}, nil
}

func (e *Exec) Name() string {
	return KindExec + ":" + filepath.Base(e.command[0])
}

func (e *Exec) Process(ctx context.Context, src Source) ([]byte, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	replacer := strings.NewReplacer(
		"{fixture}", src.Path,
		"{id}", string(src.ID),
		"{dir}", filepath.Dir(src.Path),
	)
	args := make([]string, len(e.command))
	for i, a := range e.command {
		args[i] = replacer.Replace(a)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = e.dir
	cmd.Env = append(os.Environ(), e.env...)
	cmd.WaitDelay = WaitDelay
	configureProcess(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if e.stdin {
		cmd.Stdin = bytes.NewReader(src.Content)
	}

	exitCode := 0
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() != nil:
			return nil, fmt.Errorf("%s: %w", args[0], ctx.Err())
		case errors.As(err, &exitErr):
			exitCode = exitErr.ExitCode()
		default:
			return nil, fmt.Errorf("failed to run %s: %w", args[0], err)
		}
	}

	out := renderExec(stdout.Bytes(), stderr.Bytes(), exitCode)
	if src.Path != "" {
		out = bytes.ReplaceAll(out, []byte(src.Path), []byte(src.ID))
	}
	return out, nil
}

func renderExec(stdout, stderr []byte, exitCode int) []byte {
	var out bytes.Buffer
	out.Write(stdout)
	if len(stderr) > 0 {
		ensureNewline(&out)
		out.WriteString("--- stderr ---\n")
		out.Write(stderr)
	}
	if exitCode != 0 {
		ensureNewline(&out)
		fmt.Fprintf(&out, "--- exit: %d ---\n", exitCode)
	}
	return out.Bytes()
}

func ensureNewline(b *bytes.Buffer) {
	if b.Len() > 0 && b.Bytes()[b.Len()-1] != '\n' {
		b.WriteByte('\n')
	}
}
