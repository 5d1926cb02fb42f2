package harness

import (
	"errors"
	"fmt"

	"github.com/roach88/fixturekit/internal/fixture"
)

var (
	// ErrFixtureLoadFailed matches any *LoadFailedError.
	ErrFixtureLoadFailed = errors.New("fixture load failed")

	// ErrFixtureExecutionFailed matches any *ExecutionFailedError.
	ErrFixtureExecutionFailed = errors.New("fixture execution failed")
)

// LoadFailedError reports that a fixture could not be resolved or read.
type LoadFailedError struct {
	ID   fixture.ID
	Path string
	Err  error
}

func (e *LoadFailedError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("fixture %s: failed to load: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("fixture %s: failed to load %s: %v", e.ID, e.Path, e.Err)
}

func (e *LoadFailedError) Unwrap() error {
	return e.Err
}

func (e *LoadFailedError) Is(target error) bool {
	return target == ErrFixtureLoadFailed
}

// ExecutionFailedError reports that a fixture ran but did not meet its
// expectation, or that the pipeline itself failed.
type ExecutionFailedError struct {
	ID         fixture.ID
	Diagnostic string
	Err        error
}

func (e *ExecutionFailedError) Error() string {
	if e.Diagnostic == "" {
		return fmt.Sprintf("fixture %s: execution failed: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("fixture %s: execution failed\n%s", e.ID, e.Diagnostic)
}

func (e *ExecutionFailedError) Unwrap() error {
	return e.Err
}

func (e *ExecutionFailedError) Is(target error) bool {
	return target == ErrFixtureExecutionFailed
}

// GoldenCollisionError reports two fixtures that map to the same golden file.
type GoldenCollisionError struct {
	Golden string
	IDs    [2]fixture.ID
}

func (e *GoldenCollisionError) Error() string {
	return fmt.Sprintf("fixtures %s and %s share golden file %s", e.IDs[0], e.IDs[1], e.Golden)
}
