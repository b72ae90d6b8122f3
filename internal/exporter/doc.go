// Package exporter serialises dataset tables as CSV.
//
// WriteTable streams a table to any io.Writer and backs the HTTP downloads.
// CSVWriter writes named files under an output directory for the command-line
// tool, optionally with a UTF-8 BOM so that Excel detects the encoding.
//
// Example usage:
//
//	w := exporter.NewCSVWriter("out")
//	path, err := w.WriteFile("cleaned_data.csv", table, exporter.WriteOptions{BOMPrefix: true})
package exporter
