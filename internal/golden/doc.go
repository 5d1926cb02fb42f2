// Package golden stores expected fixture outputs and compares actual
// outputs against them.
//
// Golden files live alongside the fixtures by default: the golden for
// "nested/simple.kt" is "nested/simple.golden". A separate golden directory
// can be configured instead.
//
// Writes happen only through Record, which writes to a temporary file in the
// target directory and renames it into place, holding a per-path lock so that
// fixtures recorded in parallel never interleave.
package golden
