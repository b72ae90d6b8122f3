// Package dataset holds the in-memory table model and the cleaning transforms
// applied to it: missing-value summaries and imputation, duplicate detection,
// IQR outlier detection and removal, and train/test splitting.
//
// Every transform takes a *Table and returns a new *Table; inputs are never
// mutated, so a failed operation leaves the caller's table untouched.
package dataset
