// Package pipeline defines the contract between the fixture runner and the
// tool under test, plus the built-in pipelines.
//
// A Pipeline turns one fixture source into observable output. The output is
// what gets compared against the fixture's golden file, so every pipeline
// must be deterministic: the same source must always produce the same bytes.
//
// Built-in kinds:
//
//   - exec: runs an external command (a compiler with its plugin, a linter,
//     ...) and captures stdout, stderr and the exit status.
//   - cue: evaluates the fixture as CUE and renders the concrete value as
//     canonical JSON, or the evaluation errors as diagnostics.
//   - sqlite: runs the fixture as a SQL script against a private in-memory
//     SQLite database and renders every result set.
//
// Compile errors and non-zero exits are output, not errors: a diagnostics
// fixture is expected to fail and its golden records how. Process returns an
// error only when the pipeline itself could not run.
package pipeline
