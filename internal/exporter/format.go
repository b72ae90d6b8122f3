package exporter

import (
	"dscleaner/internal/dataset"
)

// formatRecord renders row i of t as CSV fields
func formatRecord(t *dataset.Table, i int) []string {
	record := make([]string, t.NumCols())
	for j, c := range t.Columns() {
		record[j] = c.Format(i)
	}
	return record
}
