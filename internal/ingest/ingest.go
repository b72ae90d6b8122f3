// Package ingest turns uploaded CSV and Excel files into dataset tables.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"dscleaner/internal/dataset"
)

// Format identifies a supported upload format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var (
	// ErrUnsupportedFormat is returned for any file that is not .csv or .xlsx
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmptyFile is returned when a file has no header row
	ErrEmptyFile = errors.New("no columns to parse from file")
)

// DetectFormat maps a filename to its format by extension (case-insensitive).
func DetectFormat(filename string) (Format, error) {
	base := filepath.Base(filename)
	if strings.HasPrefix(base, "~$") {
		return "", fmt.Errorf("%w: %s is a temporary Excel file", ErrUnsupportedFormat, base)
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, base)
	}
}

// Read parses r according to the extension of filename.
func Read(filename string, r io.Reader) (*dataset.Table, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}
	var records [][]string
	switch format {
	case FormatCSV:
		records, err = readCSV(r)
	case FormatXLSX:
		records, err = readXLSX(r)
	}
	if err != nil {
		return nil, err
	}
	return Build(records)
}

// ReadFile opens path and parses it with Read
func ReadFile(path string) (*dataset.Table, error) {
	if _, err := DetectFormat(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return Read(path, f)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return records, nil
}

// readXLSX returns the rows of the first worksheet
func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// Build turns raw records (first record is the header) into a typed table.
// Short rows are padded with absent values; cells beyond the header are ignored.
func Build(records [][]string) (*dataset.Table, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, ErrEmptyFile
	}
	header := uniqueHeaders(records[0])
	body := records[1:]

	columns := make([]*dataset.Column, len(header))
	for j, name := range header {
		raw := make([]string, len(body))
		for i, rec := range body {
			if j < len(rec) {
				raw[i] = rec[j]
			}
		}
		columns[j] = inferColumn(name, raw)
	}
	return dataset.New(columns...)
}

// uniqueHeaders names blank headers "Unnamed: i" and suffixes repeated names
// with ".1", ".2", ...
func uniqueHeaders(raw []string) []string {
	out := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		candidate := name
		for n := 1; used[candidate]; n++ {
			candidate = name + "." + strconv.Itoa(n)
		}
		used[candidate] = true
		out[i] = candidate
	}
	return out
}
