package ingest

import (
	"math"
	"strconv"
	"strings"

	"dscleaner/internal/dataset"
)

// missingTokens are the raw strings read as absent values. Matching is exact.
var missingTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// IsMissingToken reports whether s is read as an absent value
func IsMissingToken(s string) bool {
	_, ok := missingTokens[s]
	return ok
}

// inferColumn picks the narrowest kind that holds every present value: number,
// then bool, then text. A column with no present values is numeric.
func inferColumn(name string, raw []string) *dataset.Column {
	numeric, boolean := true, true
	for _, s := range raw {
		if IsMissingToken(s) {
			continue
		}
		if numeric {
			if _, ok := parseNumber(s); !ok {
				numeric = false
			}
		}
		if boolean {
			if _, ok := parseBool(s); !ok {
				boolean = false
			}
		}
		if !numeric && !boolean {
			break
		}
	}

	col := &dataset.Column{Name: name, Cells: make([]dataset.Cell, len(raw))}
	switch {
	case numeric:
		col.Kind = dataset.KindNumber
	case boolean:
		col.Kind = dataset.KindBool
	default:
		col.Kind = dataset.KindText
	}

	for i, s := range raw {
		if IsMissingToken(s) {
			col.Cells[i] = dataset.NullCell()
			continue
		}
		switch col.Kind {
		case dataset.KindNumber:
			v, _ := parseNumber(s)
			col.Cells[i] = dataset.NumberCell(v)
		case dataset.KindBool:
			v, _ := parseBool(s)
			col.Cells[i] = dataset.BoolCell(v)
		default:
			col.Cells[i] = dataset.TextCell(s)
		}
	}
	return col
}

// parseNumber accepts finite decimal numbers surrounded by optional spaces.
// Infinities are kept as text so they never reach JSON output.
func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}
