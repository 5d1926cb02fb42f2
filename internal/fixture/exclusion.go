package fixture

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// ExclusionSet lists fixtures intentionally omitted from the test table.
// A nil *ExclusionSet excludes nothing.
type ExclusionSet struct {
	exact    map[ID]struct{}
	patterns []string
}

// NewExclusionSet builds a set from exact IDs and doublestar patterns.
// Entries containing glob metacharacters are treated as patterns.
func NewExclusionSet(entries ...string) (*ExclusionSet, error) {
	s := &ExclusionSet{exact: make(map[ID]struct{})}
	for _, e := range entries {
		if e == "" {
			continue
		}
		if isGlob(e) {
			if !doublestar.ValidatePattern(e) {
				return nil, fmt.Errorf("invalid exclusion pattern %q", e)
			}
			s.patterns = append(s.patterns, e)
			continue
		}
		s.exact[NewID(e)] = struct{}{}
	}
	return s, nil
}

// Contains reports whether id is excluded.
func (s *ExclusionSet) Contains(id ID) bool {
	if s == nil {
		return false
	}
	if _, ok := s.exact[id]; ok {
		return true
	}
	for _, p := range s.patterns {
		if ok, _ := doublestar.Match(p, string(id)); ok {
			return true
		}
	}
	return false
}

// Filter returns the IDs from ids that are excluded, in input order.
func (s *ExclusionSet) Filter(ids []ID) []ID {
	var out []ID
	for _, id := range ids {
		if s.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}

// Len returns the number of entries in the set.
func (s *ExclusionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.exact) + len(s.patterns)
}

func isGlob(s string) bool {
	for _, r := range s {
		switch r {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
