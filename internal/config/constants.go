package config

// Application constants
const (
	AppName = "dscleaner"

	// 100MB
	DefaultMaxUploadBytes int64 = 100 << 20

	// Download file names
	CleanedFileName = "cleaned_data.csv"
	ReportFileName  = "profile_report.html"
)

// SplitFileName returns the download name for a train or test partition
func SplitFileName(dataset string) string {
	return dataset + "_dataset.csv"
}
