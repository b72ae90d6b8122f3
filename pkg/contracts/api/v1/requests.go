// Package api contains the request and response contracts of the dscleaner
// HTTP API. Version v1 is the current stable API version.
package api

// HandleMissingRequest selects a missing-data method. FillValue is only read
// for the fill_value method and may be a number, string or boolean.
type HandleMissingRequest struct {
	MissingMethod string `json:"missing_method" validate:"required"`
	FillValue     any    `json:"fill_value,omitempty"`
}

// SplitRequest requests a train/test split of the current dataset.
// TestSize accepts a JSON number or a numeric string and defaults to the
// configured test size when absent.
type SplitRequest struct {
	TargetColumn string `json:"target_column" validate:"required"`
	TestSize     any    `json:"test_size,omitempty"`
	Stratify     string `json:"stratify,omitempty" validate:"omitempty,oneof=yes no"`
}
