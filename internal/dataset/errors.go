package dataset

import "errors"

// Sentinel errors returned by the table transforms. Callers match them with errors.Is.
var (
	// ErrInvalidArgument reports a bad method name, missing fill value or out-of-range fraction
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound reports a column that does not exist in the table
	ErrNotFound = errors.New("not found")
)
