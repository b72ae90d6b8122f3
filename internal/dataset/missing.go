package dataset

import (
	"fmt"
	"math"

	"github.com/spf13/cast"
)

// MissingMethod selects how HandleMissing treats absent values.
type MissingMethod string

const (
	DropRows    MissingMethod = "drop_rows"
	DropColumns MissingMethod = "drop_columns"
	FillMean    MissingMethod = "fill_mean"
	FillMedian  MissingMethod = "fill_median"
	FillMode    MissingMethod = "fill_mode"
	FillValue   MissingMethod = "fill_value"
)

// MissingMethods lists every recognised method in display order
var MissingMethods = []MissingMethod{DropRows, DropColumns, FillMean, FillMedian, FillMode, FillValue}

// Valid reports whether m is a recognised method
func (m MissingMethod) Valid() bool {
	for _, known := range MissingMethods {
		if m == known {
			return true
		}
	}
	return false
}

// MissingStat is the missing-value count and percentage of one column.
type MissingStat struct {
	Column  string  `json:"column"`
	Count   int     `json:"missing_count"`
	Percent float64 `json:"missing_percent"`
}

// MissingSummary reports absent values per column against the total row count.
// The percentage is 0 for an empty table.
func MissingSummary(t *Table) []MissingStat {
	out := make([]MissingStat, 0, t.NumCols())
	rows := t.NumRows()
	for _, c := range t.Columns() {
		count := c.NullCount()
		pct := 0.0
		if rows > 0 {
			pct = 100 * float64(count) / float64(rows)
		}
		out = append(out, MissingStat{Column: c.Name, Count: count, Percent: pct})
	}
	return out
}

// TotalMissing returns the number of absent cells across the table
func TotalMissing(t *Table) int {
	n := 0
	for _, c := range t.Columns() {
		n += c.NullCount()
	}
	return n
}

// HandleMissing applies method to t and returns a new table. fill is only used by
// FillValue and must be non-nil for it.
func HandleMissing(t *Table, method MissingMethod, fill any) (*Table, error) {
	switch method {
	case DropRows:
		return dropIncompleteRows(t), nil
	case DropColumns:
		return dropIncompleteColumns(t), nil
	case FillMean:
		return fillNumeric(t, Mean), nil
	case FillMedian:
		return fillNumeric(t, Median), nil
	case FillMode:
		return fillMode(t), nil
	case FillValue:
		if fill == nil {
			return nil, fmt.Errorf("%w: fill_value must be provided when method='fill_value'", ErrInvalidArgument)
		}
		return fillLiteral(t, fill), nil
	default:
		return nil, fmt.Errorf("%w: invalid method %q specified", ErrInvalidArgument, method)
	}
}

func dropIncompleteRows(t *Table) *Table {
	keep := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		complete := true
		for _, c := range t.Columns() {
			if c.Cells[i].Null {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}
	return t.SelectRows(keep)
}

func dropIncompleteColumns(t *Table) *Table {
	names := make([]string, 0, t.NumCols())
	for _, c := range t.Columns() {
		if c.NullCount() == 0 {
			names = append(names, c.Name)
		}
	}
	out, _ := t.SelectColumns(names)
	return out
}

// fillNumeric fills numeric columns with agg(non-null values). Columns whose
// aggregate is undefined or overflows keep their nulls.
func fillNumeric(t *Table, agg func([]float64) float64) *Table {
	return mapColumns(t, func(c *Column) *Column {
		if c.Kind != KindNumber || c.NullCount() == 0 {
			return c.Clone()
		}
		v := agg(c.Numbers())
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return c.Clone()
		}
		return fillColumn(c, NumberCell(v))
	})
}

func fillMode(t *Table) *Table {
	return mapColumns(t, func(c *Column) *Column {
		if c.NullCount() == 0 {
			return c.Clone()
		}
		mode, ok := modeCell(c)
		if !ok {
			return c.Clone()
		}
		return fillColumn(c, mode)
	})
}

// fillLiteral fills every absent cell with fill, coerced to the column kind. A
// numeric or boolean column that cannot hold fill is converted to text first.
func fillLiteral(t *Table, fill any) *Table {
	return mapColumns(t, func(c *Column) *Column {
		if c.NullCount() == 0 {
			return c.Clone()
		}
		switch c.Kind {
		case KindNumber:
			if v, err := cast.ToFloat64E(fill); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
				return fillColumn(c, NumberCell(v))
			}
		case KindBool:
			if v, ok := fill.(bool); ok {
				return fillColumn(c, BoolCell(v))
			}
		}
		return fillColumn(toText(c), TextCell(cast.ToString(fill)))
	})
}

func fillColumn(c *Column, v Cell) *Column {
	out := c.Clone()
	for i := range out.Cells {
		if out.Cells[i].Null {
			out.Cells[i] = v
		}
	}
	return out
}

// toText converts a column to text, keeping absent values absent
func toText(c *Column) *Column {
	out := &Column{Name: c.Name, Kind: KindText, Cells: make([]Cell, len(c.Cells))}
	for i, cell := range c.Cells {
		if cell.Null {
			out.Cells[i] = NullCell()
			continue
		}
		out.Cells[i] = TextCell(FormatCell(c.Kind, cell))
	}
	return out
}

func mapColumns(t *Table, fn func(*Column) *Column) *Table {
	if t.NumCols() == 0 {
		return t.Clone()
	}
	cols := make([]*Column, t.NumCols())
	for i, c := range t.Columns() {
		cols[i] = fn(c)
	}
	return MustNew(cols...)
}
