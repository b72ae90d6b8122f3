package report

import (
	"context"
	"math"
	"sort"
	"strconv"

	"dscleaner/internal/dataset"
)

// Overview is the content shared by both report modes
type Overview struct {
	Rows     int
	Columns  int
	MemoryMB float64
	Info     []ColumnInfo
	Describe []DescribeRow
}

// ColumnInfo describes one column
type ColumnInfo struct {
	Name       string
	Type       string
	NonNull    int
	MissingPct float64
}

// DescribeRow holds the summary statistics of a numeric column. Undefined
// statistics are NaN.
type DescribeRow struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// ValueCount is a value with its frequency
type ValueCount struct {
	Value string
	Count int
}

// ColumnProfile extends ColumnInfo with cardinality details
type ColumnProfile struct {
	Name     string
	Distinct int
	Top      []ValueCount
}

// OutlierRow is the IQR result for one numeric column
type OutlierRow struct {
	Column    string
	Count     int
	HasBounds bool
	Bounds    dataset.Bounds
}

// CorrelationMatrix holds pairwise Pearson coefficients between numeric columns
type CorrelationMatrix struct {
	Columns []string
	Values  [][]float64
}

// RichProfile is the content of the rich report
type RichProfile struct {
	Overview
	Duplicates   int
	Profiles     []ColumnProfile
	Outliers     []OutlierRow
	Correlations CorrelationMatrix
	PreviewCols  []string
	Preview      [][]string
}

const topValues = 3

func buildOverview(t *dataset.Table) Overview {
	o := Overview{
		Rows:     t.NumRows(),
		Columns:  t.NumCols(),
		MemoryMB: float64(memoryBytes(t)) / (1024 * 1024),
	}
	for _, stat := range dataset.MissingSummary(t) {
		c, _ := t.Column(stat.Column)
		o.Info = append(o.Info, ColumnInfo{
			Name:       stat.Column,
			Type:       c.Kind.String(),
			NonNull:    t.NumRows() - stat.Count,
			MissingPct: stat.Percent,
		})
		if c.Kind == dataset.KindNumber {
			o.Describe = append(o.Describe, describe(c))
		}
	}
	return o
}

func describe(c *dataset.Column) DescribeRow {
	values := c.Numbers()
	row := DescribeRow{
		Column: c.Name,
		Count:  len(values),
		Mean:   dataset.Mean(values),
		Std:    dataset.StdDev(values),
		Min:    dataset.Quantile(values, 0),
		Q1:     dataset.Quantile(values, 0.25),
		Median: dataset.Quantile(values, 0.5),
		Q3:     dataset.Quantile(values, 0.75),
		Max:    dataset.Quantile(values, 1),
	}
	return row
}

// memoryBytes approximates the in-memory footprint: eight bytes per numeric or
// boolean cell, the string length plus a header for text cells.
func memoryBytes(t *dataset.Table) int {
	total := 0
	for _, c := range t.Columns() {
		for _, cell := range c.Cells {
			if c.Kind == dataset.KindText {
				total += 16 + len(cell.Text)
				continue
			}
			total += 8
		}
	}
	return total
}

func buildRich(ctx context.Context, t *dataset.Table, previewRows int) (*RichProfile, error) {
	p := &RichProfile{
		Overview:    buildOverview(t),
		Duplicates:  dataset.DuplicateCount(t),
		PreviewCols: t.ColumnNames(),
	}

	for _, c := range t.Columns() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.Profiles = append(p.Profiles, ColumnProfile{
			Name:     c.Name,
			Distinct: dataset.DistinctCount(c),
			Top:      topN(c, topValues),
		})
	}

	_, summary := dataset.DetectOutliers(t)
	for _, name := range summary.Order {
		b, ok := summary.Bounds[name]
		p.Outliers = append(p.Outliers, OutlierRow{
			Column:    name,
			Count:     summary.Counts[name],
			HasBounds: ok,
			Bounds:    b,
		})
	}

	corr, err := correlations(ctx, t)
	if err != nil {
		return nil, err
	}
	p.Correlations = corr

	n := previewRows
	if n > t.NumRows() {
		n = t.NumRows()
	}
	for i := 0; i < n; i++ {
		row := make([]string, t.NumCols())
		for j, c := range t.Columns() {
			row[j] = c.Format(i)
		}
		p.Preview = append(p.Preview, row)
	}
	return p, nil
}

// topN returns the n most frequent non-null values, ties broken by value text
func topN(c *dataset.Column, n int) []ValueCount {
	counts := make(map[string]int)
	for i, cell := range c.Cells {
		if !cell.Null {
			counts[c.Format(i)]++
		}
	}
	out := make([]ValueCount, 0, len(counts))
	for v, k := range counts {
		out = append(out, ValueCount{Value: v, Count: k})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// correlations computes pairwise coefficients over rows where both values are present
func correlations(ctx context.Context, t *dataset.Table) (CorrelationMatrix, error) {
	var cols []*dataset.Column
	for _, c := range t.Columns() {
		if c.Kind == dataset.KindNumber {
			cols = append(cols, c)
		}
	}
	m := CorrelationMatrix{Values: make([][]float64, len(cols))}
	for i, a := range cols {
		if err := ctx.Err(); err != nil {
			return CorrelationMatrix{}, err
		}
		m.Columns = append(m.Columns, a.Name)
		m.Values[i] = make([]float64, len(cols))
		for j, b := range cols {
			if j < i {
				m.Values[i][j] = m.Values[j][i]
				continue
			}
			m.Values[i][j] = pairwise(a, b)
		}
	}
	return m, nil
}

func pairwise(a, b *dataset.Column) float64 {
	var x, y []float64
	for i := range a.Cells {
		if a.Cells[i].Null || b.Cells[i].Null {
			continue
		}
		x = append(x, a.Cells[i].Num)
		y = append(y, b.Cells[i].Num)
	}
	return dataset.Correlation(x, y)
}

// formatNumber renders v with six significant digits; undefined values render as NaN
func formatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}
