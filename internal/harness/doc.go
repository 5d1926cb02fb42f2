// Package harness runs fixture suites.
//
// A Suite names a fixture directory, the pattern that selects fixture files,
// the fixtures excluded from the table, the pipeline that turns one fixture
// into observable output, and how that output is judged.
//
// # Manifest Format
//
// Suites are declared in a YAML manifest, normally fixtures.yaml:
//
//	suites:
//	  - name: sandbox
//	    dir: testData/sandbox
//	    pattern: '^(.+)\.kt$'
//	    exclude: ["wip/**"]
//	    stale: strict
//	    expect: golden
//	    pipeline:
//	      kind: exec
//	      command: ["kotlinc", "-Xplugin=build/koncept.jar", "{fixture}"]
//	      timeout: 2m
//
// # Tables
//
// Suite.Table scans the fixture directory once and builds one Entry per
// fixture that is not excluded. The same scan feeds the completeness check,
// so a fixture added on disk always shows up either as a runnable entry or
// as a drift report.
//
//	table, err := suite.Table(harness.NewRunner(suite))
//	if err != nil {
//	    return err
//	}
//	if _, err := table.Check(drift.NewChecker(suite.Stale, logger)); err != nil {
//	    return err
//	}
//	for _, entry := range table.Entries() {
//	    result := entry.Run(ctx)
//	    fmt.Println(result.Label, result.State)
//	}
//
// # Results
//
// Each run moves a Result from Pending to exactly one of Passed, Failed or
// Errored. Errored means the fixture could not be read; Failed means the
// pipeline ran and its output did not meet the expectation.
package harness
