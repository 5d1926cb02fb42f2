// Package testutil holds helpers shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// WriteTree creates files under root. Keys are slash-separated relative
// paths, values are file contents. Parent directories are created as needed.
// Returns root for convenience.
func WriteTree(t testing.TB, root string, files map[string]string) string {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(files[name]), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return root
}

// TempTree is WriteTree into a fresh t.TempDir().
func TempTree(t testing.TB, files map[string]string) string {
	t.Helper()
	return WriteTree(t, t.TempDir(), files)
}

// ReadFile returns the contents of a file, failing the test on error.
func ReadFile(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
