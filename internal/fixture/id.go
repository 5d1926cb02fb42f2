package fixture

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// ID identifies a fixture by its slash-separated path relative to the
// suite base directory, e.g. "display concept.kt" or "nested/simple.kt".
type ID string

// NewID converts a relative filesystem path into an ID.
// Separators become slashes and the result is NFC normalized.
func NewID(rel string) ID {
	return ID(norm.NFC.String(filepath.ToSlash(filepath.Clean(rel))))
}

// String returns the ID as a plain string.
func (id ID) String() string {
	return string(id)
}

// Name returns the file name component of the ID.
func (id ID) Name() string {
	return path.Base(string(id))
}

// Dir returns the directory component of the ID, or "" for top-level fixtures.
func (id ID) Dir() string {
	d := path.Dir(string(id))
	if d == "." {
		return ""
	}
	return d
}

// Validate rejects IDs that are empty, absolute, or escape the base directory.
func (id ID) Validate() error {
	s := string(id)
	switch {
	case s == "" || s == ".":
		return fmt.Errorf("empty fixture id")
	case path.IsAbs(s) || filepath.IsAbs(s):
		return fmt.Errorf("fixture id %q must be relative", s)
	case s == ".." || strings.HasPrefix(s, "../") || path.Clean(s) != s:
		return fmt.Errorf("fixture id %q escapes the fixture directory", s)
	}
	return nil
}

// Resolve returns the absolute path of the fixture under baseDir.
func (id ID) Resolve(baseDir string) (string, error) {
	if err := id.Validate(); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(filepath.Join(baseDir, filepath.FromSlash(string(id))))
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", id, err)
	}
	return abs, nil
}

// Metadata is the declared description of one fixture, built during
// enumeration.
type Metadata struct {
	ID    ID     `json:"id"`
	Label string `json:"label"`
	Path  string `json:"path"`
}

// Describe builds the metadata record for id under baseDir.
func Describe(baseDir string, p *Pattern, id ID) Metadata {
	abs, err := id.Resolve(baseDir)
	if err != nil {
		abs = filepath.Join(baseDir, filepath.FromSlash(string(id)))
	}
	return Metadata{
		ID:    id,
		Label: Label(p, id),
		Path:  abs,
	}
}

var upper = cases.Upper(language.Und)

// Label turns an ID into an identifier-safe test label.
//
// The file stem comes from the pattern (capture group 1, or the name without
// its extension). Every character that is not a letter, digit or underscore
// becomes '_' and the first rune of each segment is upper-cased, so
// "display concept.kt" is labelled "Display_concept" and
// "nested/simple.kt" is labelled "Nested/Simple".
func Label(p *Pattern, id ID) string {
	segments := []string{}
	if dir := id.Dir(); dir != "" {
		segments = append(segments, strings.Split(dir, "/")...)
	}
	segments = append(segments, p.Stem(id.Name()))

	for i, seg := range segments {
		segments[i] = labelSegment(seg)
	}
	return strings.Join(segments, "/")
}

func labelSegment(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" {
		return "_"
	}
	first, size := utf8.DecodeRuneInString(out)
	return upper.String(string(first)) + out[size:]
}
