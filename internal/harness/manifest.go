package harness

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fixturekit/internal/drift"
	"github.com/roach88/fixturekit/internal/fixture"
	"github.com/roach88/fixturekit/internal/golden"
	"github.com/roach88/fixturekit/internal/pipeline"
)

// DefaultManifest is the manifest file name looked up in the project root.
const DefaultManifest = "fixtures.yaml"

// DefaultFixtureRoot is the directory, relative to the project root, that
// holds one fixture directory per suite.
const DefaultFixtureRoot = "testData"

// Manifest lists the suites of a project.
type Manifest struct {
	Suites []SuiteConfig `yaml:"suites"`
}

// SuiteConfig is the manifest form of a Suite. Relative paths resolve
// against the project root passed to Build.
type SuiteConfig struct {
	Name          string          `yaml:"name"`
	Dir           string          `yaml:"dir,omitempty"`
	Pattern       string          `yaml:"pattern,omitempty"`
	Exclude       []string        `yaml:"exclude,omitempty"`
	Stale         string          `yaml:"stale,omitempty"`
	Expect        string          `yaml:"expect,omitempty"`
	GoldenDir     string          `yaml:"golden_dir,omitempty"`
	GoldenSuffix  string          `yaml:"golden_suffix,omitempty"`
	Generated     []string        `yaml:"generated,omitempty"`
	GeneratedFile string          `yaml:"generated_file,omitempty"`
	Pipeline      pipeline.Config `yaml:"pipeline"`
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest parses manifest YAML. Unknown fields are rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateManifest(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

func validateManifest(m *Manifest) error {
	if len(m.Suites) == 0 {
		return fmt.Errorf("suites list is required and must be non-empty")
	}
	seen := make(map[string]bool, len(m.Suites))
	for i, s := range m.Suites {
		if s.Name == "" {
			return fmt.Errorf("suites[%d]: name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("suites[%d]: duplicate suite name %q", i, s.Name)
		}
		seen[s.Name] = true
		if s.Pipeline.Kind == "" {
			return fmt.Errorf("suite %q: pipeline.kind is required", s.Name)
		}
		if s.Generated != nil && s.GeneratedFile != "" {
			return fmt.Errorf("suite %q: generated and generated_file are mutually exclusive", s.Name)
		}
	}
	return nil
}

// Names returns the suite names in manifest order.
func (m *Manifest) Names() []string {
	names := make([]string, len(m.Suites))
	for i, s := range m.Suites {
		names[i] = s.Name
	}
	return names
}

// Lookup returns the configuration of the named suite.
func (m *Manifest) Lookup(name string) (SuiteConfig, bool) {
	for _, s := range m.Suites {
		if s.Name == name {
			return s, true
		}
	}
	return SuiteConfig{}, false
}

// Build turns the configuration into a validated Suite.
func (c SuiteConfig) Build(root string, logger *slog.Logger) (*Suite, error) {
	dir := c.Dir
	if dir == "" {
		dir = filepath.Join(DefaultFixtureRoot, c.Name)
	}
	dir = resolve(root, dir)

	var errs []error

	pattern := fixture.DefaultPattern()
	if c.Pattern != "" {
		p, err := fixture.CompilePattern(c.Pattern)
		if err != nil {
			errs = append(errs, err)
		}
		pattern = p
	}

	exclusions, err := fixture.NewExclusionSet(c.Exclude...)
	if err != nil {
		errs = append(errs, err)
	}

	stale, err := drift.ParseMode(c.Stale)
	if err != nil {
		errs = append(errs, err)
	}

	expect, err := ParseExpectation(c.Expect)
	if err != nil {
		errs = append(errs, err)
	}

	cfg := c.Pipeline
	if cfg.Dir == "" {
		cfg.Dir = root
	} else {
		cfg.Dir = resolve(root, cfg.Dir)
	}
	pl, err := pipeline.New(cfg)
	if err != nil {
		errs = append(errs, err)
	}

	var generated []fixture.ID
	switch {
	case c.Generated != nil:
		generated = make([]fixture.ID, 0, len(c.Generated))
		for _, g := range c.Generated {
			generated = append(generated, fixture.NewID(g))
		}
	case c.GeneratedFile != "":
		generated, err = ReadGeneratedList(resolve(root, c.GeneratedFile))
		if err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("suite %q: %w", c.Name, errors.Join(errs...))
	}

	goldenDir := dir
	if c.GoldenDir != "" {
		goldenDir = resolve(root, c.GoldenDir)
	}

	s := &Suite{
		Name:       c.Name,
		Dir:        dir,
		Pattern:    pattern,
		Exclusions: exclusions,
		Stale:      stale,
		Expect:     expect,
		Goldens:    golden.NewStore(goldenDir, c.GoldenSuffix),
		Pipeline:   pl,
		Generated:  generated,
		Logger:     logger,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ReadGeneratedList reads an external list of generated tests: one fixture
// ID per line, blank lines and '#' comments ignored.
func ReadGeneratedList(path string) ([]fixture.ID, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read generated list: %w", err)
	}
	defer f.Close()

	ids := []fixture.ID{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ids = append(ids, fixture.NewID(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read generated list: %w", err)
	}
	return ids, nil
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) || root == "" {
		return p
	}
	return filepath.Join(root, p)
}
