package api

// Envelope wraps every successful JSON response
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// MissingColumn is the missing-value count of one column
type MissingColumn struct {
	Column         string  `json:"column"`
	MissingCount   int     `json:"missing_count"`
	MissingPercent float64 `json:"missing_percent"`
}

// DatasetSummary describes the current dataset after an operation.
// Preview holds the first rows as plain JSON values, null for absent cells.
type DatasetSummary struct {
	Shape                [2]int          `json:"shape"`
	Columns              []string        `json:"columns"`
	Preview              [][]any         `json:"preview"`
	MissingSummary       []MissingColumn `json:"missing_summary"`
	TotalMissing         int             `json:"total_missing"`
	DuplicateCount       int             `json:"duplicate_count"`
	ShowMissingOptions   bool            `json:"show_missing_options"`
	ShowDuplicateOptions bool            `json:"show_duplicate_options"`
}

// UploadResponse is returned by POST /api/upload
type UploadResponse struct {
	Filename  string `json:"filename"`
	Format    string `json:"format"`
	SizeBytes int64  `json:"size_bytes"`
	DatasetSummary
}

// DuplicatesResponse lists every row that belongs to a duplicate group
type DuplicatesResponse struct {
	DuplicateCount int      `json:"duplicate_count"`
	Columns        []string `json:"columns"`
	Rows           [][]any  `json:"rows"`
}

// OutlierBounds are the IQR fences of one numeric column
type OutlierBounds struct {
	Q1         float64 `json:"q1"`
	Q3         float64 `json:"q3"`
	IQR        float64 `json:"iqr"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// OutlierColumn is the outlier count of one numeric column. Bounds is nil
// when the column has no values.
type OutlierColumn struct {
	Column       string         `json:"column"`
	OutlierCount int            `json:"outlier_count"`
	Bounds       *OutlierBounds `json:"bounds,omitempty"`
}

// OutlierResponse is returned by POST /api/detect_outliers
type OutlierResponse struct {
	Columns            []OutlierColumn `json:"columns"`
	TotalOutliers      int             `json:"total_outliers"`
	RowsAffected       int             `json:"rows_affected"`
	ShowOutlierSummary bool            `json:"show_outlier_summary"`
}

// SplitResponse is returned by POST /api/train_test_split
type SplitResponse struct {
	TargetColumn string  `json:"target_column"`
	TestSize     float64 `json:"test_size"`
	Stratified   bool    `json:"stratified"`
	TrainShape   [2]int  `json:"train_shape"`
	TestShape    [2]int  `json:"test_shape"`
}
