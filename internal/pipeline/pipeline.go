package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/fixturekit/internal/fixture"
)

// Pipeline kinds accepted by New.
const (
	KindExec   = "exec"
	KindCUE    = "cue"
	KindSQLite = "sqlite"
)

// Source is one fixture handed to a pipeline.
type Source struct {
	ID      fixture.ID
	Path    string // absolute path of the fixture file
	Content []byte
}

// Pipeline processes one fixture and returns its observable output.
// Implementations must be safe for concurrent use.
type Pipeline interface {
	Name() string
	Process(ctx context.Context, src Source) ([]byte, error)
}

// Config selects and configures a pipeline. It is decoded from the suite
// manifest.
type Config struct {
	Kind    string            `yaml:"kind" json:"kind"`
	Command []string          `yaml:"command,omitempty" json:"command,omitempty"`
	Dir     string            `yaml:"dir,omitempty" json:"dir,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	Stdin   bool              `yaml:"stdin,omitempty" json:"stdin,omitempty"`
	Timeout time.Duration     `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// New builds the pipeline described by cfg.
func New(cfg Config) (Pipeline, error) {
	switch strings.ToLower(cfg.Kind) {
	case KindExec:
		return NewExec(cfg)
	case KindCUE:
		return NewCUE(), nil
	case KindSQLite:
		return NewSQLite(), nil
	case "":
		return nil, fmt.Errorf("pipeline kind is required (one of %s, %s, %s)", KindExec, KindCUE, KindSQLite)
	default:
		return nil, fmt.Errorf("unknown pipeline kind %q (one of %s, %s, %s)", cfg.Kind, KindExec, KindCUE, KindSQLite)
	}
}

// Func adapts a function to the Pipeline interface.
type Func struct {
	name string
	fn   func(ctx context.Context, src Source) ([]byte, error)
}

// NewFunc returns a pipeline backed by fn.
func NewFunc(name string, fn func(ctx context.Context, src Source) ([]byte, error)) *Func {
	return &Func{name: name, fn: fn}
}

func (f *Func) Name() string {
	return f.name
}

func (f *Func) Process(ctx context.Context, src Source) ([]byte, error) {
	return f.fn(ctx, src)
}
