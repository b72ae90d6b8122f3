// Package shared holds helpers used by tests across the dscleaner packages.
//
// The testutil subpackage provides a buffered slog handler for asserting on
// log output and builders for CSV and XLSX upload fixtures.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    body := testutil.CSVFixture(testutil.SampleRows)
//	    ...
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "dataset uploaded")
//	}
package shared
