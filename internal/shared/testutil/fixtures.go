package testutil

import (
	"bytes"
	"encoding/csv"
	"mime/multipart"
	"testing"

	"github.com/xuri/excelize/v2"
)

// SampleRows is a small dataset with one missing value, one duplicate row and
// one outlier in "score".
var SampleRows = [][]string{
	{"id", "city", "score", "label"},
	{"1", "Paris", "10", "yes"},
	{"2", "Rome", "", "no"},
	{"3", "Oslo", "12", "yes"},
	{"3", "Oslo", "12", "yes"},
	{"4", "Lima", "11", "no"},
	{"5", "Kyiv", "13", "yes"},
	{"6", "Rome", "900", "no"},
}

// CSVFixture encodes rows as CSV
func CSVFixture(rows [][]string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.WriteAll(rows)
	return buf.Bytes()
}

// XLSXFixture writes rows to the first sheet of a new workbook
func XLSXFixture(t *testing.T, rows [][]string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			t.Fatalf("set row %d: %v", i, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// MultipartFile builds a multipart body with a single "file" part and returns
// the body and its content type.
func MultipartFile(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, w.FormDataContentType()
}
