package fixture

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
)

var errStop = errors.New("stop")

// Enumerate returns the fixtures under baseDir whose file name matches p.
//
// The base directory is checked eagerly; a missing, non-directory or
// unreadable baseDir yields a *StoreUnavailableError. The returned sequence
// walks the tree lazily in lexical order each time it is ranged over.
// Directories whose name starts with '.' are skipped.
//
// Errors found mid-walk are yielded once and end the sequence.
func Enumerate(baseDir string, p *Pattern) (iter.Seq2[ID, error], error) {
	if p == nil {
		return nil, fmt.Errorf("nil fixture pattern")
	}
	if err := checkStore(baseDir); err != nil {
		return nil, err
	}

	seq := func(yield func(ID, error) bool) {
		seen := make(map[ID]string)

		walkErr := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				yield("", &StoreUnavailableError{Dir: path, Err: err})
				return errStop
			}
			if d.IsDir() {
				if path != baseDir && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !p.Match(d.Name()) {
				return nil
			}

			rel, err := filepath.Rel(baseDir, path)
			if err != nil {
				yield("", &StoreUnavailableError{Dir: baseDir, Err: err})
				return errStop
			}
			id := NewID(rel)
			if prev, dup := seen[id]; dup {
				yield("", &DuplicateIDError{ID: id, Paths: []string{prev, path}})
				return errStop
			}
			seen[id] = path

			if !yield(id, nil) {
				return errStop
			}
			return nil
		})
		if walkErr != nil && !errors.Is(walkErr, errStop) {
			yield("", &StoreUnavailableError{Dir: baseDir, Err: walkErr})
		}
	}
	return seq, nil
}

// Collect drains seq into a slice, stopping at the first error.
func Collect(seq iter.Seq2[ID, error]) ([]ID, error) {
	var ids []ID
	for id, err := range seq {
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Scan is Enumerate followed by Collect.
func Scan(baseDir string, p *Pattern) ([]ID, error) {
	seq, err := Enumerate(baseDir, p)
	if err != nil {
		return nil, err
	}
	return Collect(seq)
}

func checkStore(baseDir string) error {
	info, err := os.Stat(baseDir)
	if err != nil {
		return &StoreUnavailableError{Dir: baseDir, Err: err}
	}
	if !info.IsDir() {
		return &StoreUnavailableError{Dir: baseDir, Err: fmt.Errorf("not a directory")}
	}
	f, err := os.Open(baseDir)
	if err != nil {
		return &StoreUnavailableError{Dir: baseDir, Err: err}
	}
	defer f.Close()
	if _, err := f.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		return &StoreUnavailableError{Dir: baseDir, Err: err}
	}
	return nil
}
