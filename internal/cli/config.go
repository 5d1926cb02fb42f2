package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/roach88/fixturekit/internal/harness"
)

// Environment variables read by the CLI. Flags take precedence.
const (
	EnvManifest = "FIXTUREKIT_MANIFEST"
	EnvRoot     = "FIXTUREKIT_ROOT"
	EnvRecord   = harness.RecordEnv
	EnvLogLevel = "FIXTUREKIT_LOG_LEVEL"
)

// DotEnvFile is loaded from the project root when present. Variables
// already set in the environment win.
const DotEnvFile = ".env"

// loadConfig fills unset options from .env and the environment.
func (o *RootOptions) loadConfig(flags *pflag.FlagSet) error {
	envDir := o.Root
	if envDir == "" {
		envDir = os.Getenv(EnvRoot)
	}
	if envDir == "" {
		envDir = "."
	}
	if err := godotenv.Load(filepath.Join(envDir, DotEnvFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
	}

	if !flags.Changed("root") {
		o.Root = os.Getenv(EnvRoot)
	}
	if o.Root == "" {
		o.Root = "."
	}
	abs, err := filepath.Abs(o.Root)
	if err != nil {
		return fmt.Errorf("failed to resolve root: %w", err)
	}
	o.Root = abs

	if !flags.Changed("manifest") {
		o.Manifest = os.Getenv(EnvManifest)
	}
	if o.Manifest == "" {
		o.Manifest = harness.DefaultManifest
	}
	if !filepath.IsAbs(o.Manifest) {
		o.Manifest = filepath.Join(o.Root, o.Manifest)
	}
	return nil
}

// logLevel is Debug with -v, otherwise $FIXTUREKIT_LOG_LEVEL or Warn.
func (o *RootOptions) logLevel() slog.Level {
	if o.Verbose {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(os.Getenv(EnvLogLevel)))); err != nil {
		return slog.LevelWarn
	}
	return level
}

// loadManifest reads the configured manifest.
func (o *RootOptions) loadManifest() (*harness.Manifest, error) {
	return harness.LoadManifest(o.Manifest)
}

// buildSuites builds the named suites, or every suite when names is empty.
func (o *RootOptions) buildSuites(m *harness.Manifest, names []string) ([]*harness.Suite, error) {
	if len(names) == 0 {
		names = m.Names()
	}
	suites := make([]*harness.Suite, 0, len(names))
	for _, name := range names {
		s, err := o.buildSuite(m, name)
		if err != nil {
			return nil, err
		}
		suites = append(suites, s)
	}
	return suites, nil
}

func (o *RootOptions) buildSuite(m *harness.Manifest, name string) (*harness.Suite, error) {
	cfg, ok := m.Lookup(name)
	if !ok {
		return nil, &unknownSuiteError{Name: name, Known: m.Names()}
	}
	return cfg.Build(o.Root, o.logger())
}

type unknownSuiteError struct {
	Name  string
	Known []string
}

func (e *unknownSuiteError) Error() string {
	return fmt.Sprintf("unknown suite %q (manifest declares: %s)", e.Name, strings.Join(e.Known, ", "))
}
