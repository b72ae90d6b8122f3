package dataset

import (
	"sort"
)

// IQRMultiplier scales the interquartile range to obtain the fences.
const IQRMultiplier = 1.5

// Bounds are the IQR fences computed for one numeric column.
type Bounds struct {
	Q1    float64 `json:"q1"`
	Q3    float64 `json:"q3"`
	IQR   float64 `json:"iqr"`
	Lower float64 `json:"lower_bound"`
	Upper float64 `json:"upper_bound"`
}

// Outside reports whether v lies strictly outside the fences
func (b Bounds) Outside(v float64) bool {
	return v < b.Lower || v > b.Upper
}

// ComputeBounds returns the IQR fences of the given values. ok is false for an
// empty slice or when a fence does not fit in a float64.
func ComputeBounds(values []float64) (Bounds, bool) {
	if len(values) == 0 {
		return Bounds{}, false
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1 := sortedQuantile(sorted, 0.25)
	q3 := sortedQuantile(sorted, 0.75)
	iqr := q3 - q1
	lower, upper := q1-IQRMultiplier*iqr, q3+IQRMultiplier*iqr
	if !finite(q1, q3, iqr, lower, upper) {
		return Bounds{}, false
	}
	return Bounds{
		Q1:    q1,
		Q3:    q3,
		IQR:   iqr,
		Lower: lower,
		Upper: upper,
	}, true
}

// OutlierFlags has the shape of the table it was computed from: one boolean per
// cell, true where the value lies outside its column's fences.
type OutlierFlags struct {
	Columns []string
	Flags   [][]bool // Flags[column][row]
	rows    int
}

// NumRows returns the row count of the source table
func (f *OutlierFlags) NumRows() int { return f.rows }

// RowFlagged reports whether any cell in row i is flagged
func (f *OutlierFlags) RowFlagged(i int) bool {
	for _, col := range f.Flags {
		if col[i] {
			return true
		}
	}
	return false
}

// Any reports whether at least one cell is flagged
func (f *OutlierFlags) Any() bool {
	for _, col := range f.Flags {
		for _, flagged := range col {
			if flagged {
				return true
			}
		}
	}
	return false
}

// OutlierSummary holds the per-column flagged-cell counts and fences of every
// numeric column. Columns without values, or whose fences overflow, have a count
// of zero and no bounds.
type OutlierSummary struct {
	Counts map[string]int
	Bounds map[string]Bounds
	// Order lists the numeric columns in table order
	Order []string
}

// Total returns the number of flagged cells
func (s OutlierSummary) Total() int {
	n := 0
	for _, c := range s.Counts {
		n += c
	}
	return n
}

// DetectOutliers flags numeric cells outside [Q1-1.5*IQR, Q3+1.5*IQR] per column.
// Absent cells and non-numeric columns are never flagged.
func DetectOutliers(t *Table) (*OutlierFlags, OutlierSummary) {
	flags := &OutlierFlags{
		Columns: t.ColumnNames(),
		Flags:   make([][]bool, t.NumCols()),
		rows:    t.NumRows(),
	}
	summary := OutlierSummary{
		Counts: make(map[string]int),
		Bounds: make(map[string]Bounds),
	}

	for j, c := range t.Columns() {
		col := make([]bool, t.NumRows())
		flags.Flags[j] = col
		if c.Kind != KindNumber {
			continue
		}
		summary.Order = append(summary.Order, c.Name)
		summary.Counts[c.Name] = 0

		b, ok := ComputeBounds(c.Numbers())
		if !ok {
			continue
		}
		summary.Bounds[c.Name] = b
		for i, cell := range c.Cells {
			if !cell.Null && b.Outside(cell.Num) {
				col[i] = true
				summary.Counts[c.Name]++
			}
		}
	}
	return flags, summary
}

// RemoveOutliers drops every row with at least one flagged cell, preserving order.
func RemoveOutliers(t *Table) *Table {
	flags, _ := DetectOutliers(t)
	keep := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		if !flags.RowFlagged(i) {
			keep = append(keep, i)
		}
	}
	return t.SelectRows(keep)
}
