// Package harness is a small sequential test framework in the spirit of the
// standard "testing" package, built for suites that run as a standalone
// binary against a live system instead of under "go test".
//
// Test functions have the type `func(*harness.H)` and are registered on a
// Group. Groups are handed to a Suite, which runs them one test at a time in
// sorted order:
//
//	var group harness.Group
//	group.Name = "Summaries"
//	group.Tests.Add("TestBoardRoster", func(h *harness.H) {
//	    ...
//	})
//	suite := harness.NewSuite(harness.Options{Verbose: true}, &group)
//	err := suite.Run(context.Background())
//
// Within a test, Error, Fail, FailNow and their relatives record a failure:
// the system under test did not behave as expected. Abort and any panic
// record an error instead: the test itself could not do its job. H satisfies
// the TestingT interfaces of testify's assert and require packages, so those
// assertions report failures through the harness.
//
// Selectors given in Options.Match use dotted names: "Summaries" runs every
// test in that group, "Summaries.TestBoardRoster" runs one test, and shell
// glob patterns such as "Glossary.*Audio*" are accepted.
//
// Every test's outcome is passed to the suite's Result, which keeps the
// success, error and failure totals for the end-of-run summary.
package harness
