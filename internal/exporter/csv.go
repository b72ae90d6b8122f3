package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"dscleaner/internal/dataset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteTable writes t as CSV: one header row, then one record per row with
// absent values as empty fields.
func WriteTable(w io.Writer, t *dataset.Table, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i := 0; i < t.NumRows(); i++ {
		if err := writer.Write(formatRecord(t, i)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// Encode returns t as CSV bytes without a BOM
func Encode(t *dataset.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, t, WriteOptions{}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CSVWriter writes tables into a fixed output directory
type CSVWriter struct {
	dir    string
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir, logger: slog.Default()}
}

// WithLogger sets the logger used for write events
func (w *CSVWriter) WithLogger(logger *slog.Logger) *CSVWriter {
	w.logger = logger
	return w
}

// WriteFile writes t to name inside the output directory, replacing any
// existing file, and returns the full path.
func (w *CSVWriter) WriteFile(name string, t *dataset.Table, options WriteOptions) (string, error) {
	fullPath := filepath.Join(w.dir, filepath.Base(name))

	w.logger.Info("Writing CSV file",
		slog.String("file_path", name),
		slog.String("full_path", fullPath),
		slog.Int("record_count", t.NumRows()))

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	if err := WriteTable(file, t, options); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	return fullPath, nil
}
