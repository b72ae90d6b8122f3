package dataset

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean, NaN for an empty slice.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

// StdDev returns the sample standard deviation (n-1 denominator), NaN below two values.
func StdDev(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.StdDev(x, nil)
}

// Median returns the middle value (allocates a sorted copy), NaN for an empty slice.
func Median(x []float64) float64 {
	return Quantile(x, 0.5)
}

// Quantile returns the p-th quantile (0 <= p <= 1) of x using linear
// interpolation between the closest order statistics: rank = p*(n-1).
// Returns NaN for an empty slice.
func Quantile(x []float64, p float64) float64 {
	n := len(x)
	if n == 0 {
		return math.NaN()
	}
	cp := make([]float64, n)
	copy(cp, x)
	sort.Float64s(cp)
	return sortedQuantile(cp, p)
}

// sortedQuantile is Quantile over an already sorted slice
func sortedQuantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	rank := p * float64(n-1)
	lower := int(math.Floor(rank))
	upper := lower + 1
	if upper >= n {
		return sorted[lower]
	}
	weight := rank - float64(lower)
	if d := sorted[upper] - sorted[lower]; !math.IsInf(d, 0) {
		return sorted[lower] + d*weight
	}
	// the gap overflows for values near ±MaxFloat64
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// finite reports whether none of vs is NaN or infinite
func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Correlation returns the Pearson correlation of two equal-length samples,
// NaN when either sample has zero variance.
func Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

// modeCell returns the most frequent non-null cell of a column. Ties resolve to
// the first value in sorted order. ok is false when the column has no values.
func modeCell(c *Column) (Cell, bool) {
	type entry struct {
		cell  Cell
		count int
	}
	counts := make(map[string]*entry)
	for _, cell := range c.Cells {
		if cell.Null {
			continue
		}
		key := cellKey(c.Kind, cell)
		if e, ok := counts[key]; ok {
			e.count++
			continue
		}
		counts[key] = &entry{cell: cell, count: 1}
	}
	if len(counts) == 0 {
		return Cell{}, false
	}

	entries := make([]*entry, 0, len(counts))
	for _, e := range counts {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return cellLess(c.Kind, entries[i].cell, entries[j].cell)
	})
	return entries[0].cell, true
}

// cellLess orders two non-null cells of the same kind
func cellLess(kind Kind, a, b Cell) bool {
	switch kind {
	case KindNumber:
		return a.Num < b.Num
	case KindBool:
		return !a.Bool && b.Bool
	default:
		return a.Text < b.Text
	}
}
