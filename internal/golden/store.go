package golden

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/roach88/fixturekit/internal/fixture"
)

// DefaultSuffix is appended to the fixture stem to name its golden file.
const DefaultSuffix = ".golden"

// ErrMissing is returned by Compare when no golden file exists.
var ErrMissing = errors.New("golden file missing")

// Store locates, compares and records golden files for one suite.
type Store struct {
	dir    string
	suffix string
	locks  sync.Map // golden path -> *sync.Mutex
}

// NewStore creates a store rooted at dir. Golden paths mirror fixture IDs
// below dir with the fixture extension replaced by suffix.
func NewStore(dir, suffix string) *Store {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return &Store{dir: dir, suffix: suffix}
}

// Dir returns the golden root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the golden file path for a fixture.
func (s *Store) Path(id fixture.ID) string {
	rel := string(id)
	rel = strings.TrimSuffix(rel, path.Ext(rel)) + s.suffix
	return filepath.Join(s.dir, filepath.FromSlash(rel))
}

// Load reads the golden file for id. A missing file wraps ErrMissing.
func (s *Store) Load(id fixture.ID) ([]byte, error) {
	p := s.Path(id)
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissing, p)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read golden file: %w", err)
	}
	return data, nil
}

// Mismatch describes a difference between a golden file and actual output.
type Mismatch struct {
	Path     string
	Expected string
	Actual   string
	Diff     string
}

func (m *Mismatch) Error() string {
	return fmt.Sprintf("output does not match golden file %s\n%s", m.Path, m.Diff)
}

// Compare checks actual against the golden file for id.
// It returns (nil, nil) on a match and a *Mismatch when the contents differ.
// Line endings are normalized before comparison.
func (s *Store) Compare(id fixture.ID, actual []byte) (*Mismatch, error) {
	expected, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	want := normalize(expected)
	got := normalize(actual)
	if bytes.Equal(want, got) {
		return nil, nil
	}
	return &Mismatch{
		Path:     s.Path(id),
		Expected: string(want),
		Actual:   string(got),
		Diff:     Diff(string(want), string(got)),
	}, nil
}

// Record writes actual as the golden file for id.
//
// The file is written to a temporary sibling and renamed into place, so an
// interrupted run never leaves a partially written golden behind. Concurrent
// calls for the same path are serialized.
func (s *Store) Record(id fixture.ID, actual []byte) error {
	p := s.Path(id)

	mu := s.lockFor(p)
	mu.Lock()
	defer mu.Unlock()

	return WriteAtomic(p, actual)
}

func (s *Store) lockFor(p string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(p, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// WriteAtomic writes data to p through a temporary file and a rename.
func WriteAtomic(p string, data []byte) error {
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(p)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp golden file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp golden file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp golden file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp golden file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to chmod temp golden file: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("failed to move golden file into place: %w", err)
	}
	committed = true
	return nil
}

func normalize(b []byte) []byte {
	return bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
}
