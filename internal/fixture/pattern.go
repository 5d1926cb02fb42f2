package fixture

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// DefaultPatternExpr selects Kotlin source files and captures their stem.
const DefaultPatternExpr = `^(.+)\.kt$`

// Pattern selects which file names count as fixtures.
// It is matched against the file name only, never the full path.
type Pattern struct {
	re *regexp.Regexp
}

// CompilePattern compiles a fixture pattern.
func CompilePattern(expr string) (*Pattern, error) {
	if expr == "" {
		return nil, fmt.Errorf("empty fixture pattern")
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid fixture pattern %q: %w", expr, err)
	}
	return &Pattern{re: re}, nil
}

// MustCompilePattern is like CompilePattern but panics on error.
func MustCompilePattern(expr string) *Pattern {
	p, err := CompilePattern(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// DefaultPattern returns the pattern for DefaultPatternExpr.
func DefaultPattern() *Pattern {
	return MustCompilePattern(DefaultPatternExpr)
}

// String returns the source expression.
func (p *Pattern) String() string {
	return p.re.String()
}

// Match reports whether name is a fixture file name.
func (p *Pattern) Match(name string) bool {
	return p.re.MatchString(name)
}

// Stem returns the part of name used for labels: the first capture group
// when the pattern has one and it matched, otherwise the name without its
// extension.
func (p *Pattern) Stem(name string) string {
	if m := p.re.FindStringSubmatch(name); len(m) > 1 && m[1] != "" {
		return m[1]
	}
	return strings.TrimSuffix(name, path.Ext(name))
}
