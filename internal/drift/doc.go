// Package drift checks that a suite's test table covers exactly the
// fixtures on disk.
//
// Given the enumerated fixtures, the excluded fixtures and the IDs of the
// test table (or an external list of generated tests), the checker computes
//
//	expected = enumerated - excluded
//	missing  = expected - generated
//	stale    = generated - expected
//
// and fails when missing is non-empty. Stale entries fail in Strict mode
// and are logged as warnings in Lenient mode. Every listing is sorted so the
// same inputs always produce the same report.
package drift
