package fixture

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable is matched by every *StoreUnavailableError.
var ErrStoreUnavailable = errors.New("fixture store unavailable")

// StoreUnavailableError reports a fixture directory that is missing, not a
// directory, or unreadable. No fixture of the suite can run.
type StoreUnavailableError struct {
	Dir string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fixture store unavailable: %s: %v", e.Dir, e.Err)
	}
	return fmt.Sprintf("fixture store unavailable: %s", e.Dir)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

func (e *StoreUnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// DuplicateIDError reports two files that normalize to the same ID.
type DuplicateIDError struct {
	ID    ID
	Paths []string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate fixture id %q: %v", e.ID, e.Paths)
}
