// Package fixture models the fixture store of a suite: a directory tree that
// holds one source file per test case.
//
// A fixture is identified by its path relative to the suite base directory
// (an ID). IDs are slash separated and NFC normalized, so the same tree
// produces the same IDs on every platform and across runs.
//
// # Enumeration
//
// Enumerate walks the base directory and yields every file whose name
// matches the suite Pattern:
//
//	seq, err := fixture.Enumerate("testData/sandbox", fixture.DefaultPattern())
//	if err != nil {
//	    return err // *StoreUnavailableError
//	}
//	for id, err := range seq {
//	    ...
//	}
//
// The sequence is lazy and restartable: ranging over it again re-scans the
// directory.
//
// # Exclusions
//
// An ExclusionSet lists fixtures that are intentionally left out of the
// test table. Entries are either exact IDs or doublestar patterns:
//
//	excl, err := fixture.NewExclusionSet("wip/**", "broken.kt")
package fixture
