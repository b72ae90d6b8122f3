package dataset

import (
	"fmt"
	"strconv"
)

// Kind is the value type shared by every cell of a column.
type Kind int

const (
	KindNumber Kind = iota
	KindText
	KindBool
)

// String returns the name used in summaries and reports
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "text"
	}
}

// Cell is a single value. Only the field matching the column kind is meaningful.
type Cell struct {
	Null bool
	Num  float64
	Text string
	Bool bool
}

// NullCell returns an absent value
func NullCell() Cell { return Cell{Null: true} }

// NumberCell returns a numeric value
func NumberCell(v float64) Cell { return Cell{Num: v} }

// TextCell returns a text value
func TextCell(v string) Cell { return Cell{Text: v} }

// BoolCell returns a boolean value
func BoolCell(v bool) Cell { return Cell{Bool: v} }

// Column is a named, homogeneous sequence of cells.
type Column struct {
	Name  string
	Kind  Kind
	Cells []Cell
}

// Table is an ordered set of columns with positional row alignment.
// Tables are treated as immutable values: every transform returns a new Table.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New builds a table from columns. All columns must have the same length and
// distinct names.
func New(columns ...*Column) (*Table, error) {
	t := &Table{
		columns: make([]*Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if c == nil {
			return nil, fmt.Errorf("%w: column %d is nil", ErrInvalidArgument, i)
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate column name %q", ErrInvalidArgument, c.Name)
		}
		if i == 0 {
			t.rows = len(c.Cells)
		} else if len(c.Cells) != t.rows {
			return nil, fmt.Errorf("%w: column %q has %d rows, expected %d", ErrInvalidArgument, c.Name, len(c.Cells), t.rows)
		}
		t.index[c.Name] = i
		t.columns = append(t.columns, c)
	}
	return t, nil
}

// MustNew is New for fixtures whose shape is known to be valid.
func MustNew(columns ...*Column) *Table {
	t, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// empty returns a table with no columns. Dropping every column keeps the row count.
func empty(rows int) *Table {
	return &Table{index: map[string]int{}, rows: rows}
}

// NumRows returns the row count
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the column count
func (t *Table) NumCols() int { return len(t.columns) }

// Shape returns [rows, columns]
func (t *Table) Shape() [2]int { return [2]int{t.rows, len(t.columns)} }

// Columns returns the columns in order. Callers must not modify them.
func (t *Table) Columns() []*Column { return t.columns }

// ColumnNames returns the column names in order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Row returns row i as plain JSON-friendly values (float64, string, bool or nil).
func (t *Table) Row(i int) []any {
	out := make([]any, len(t.columns))
	for j, c := range t.columns {
		out[j] = c.Value(i)
	}
	return out
}

// Head returns up to n leading rows as plain values
func (t *Table) Head(n int) [][]any {
	if n > t.rows {
		n = t.rows
	}
	rows := make([][]any, n)
	for i := 0; i < n; i++ {
		rows[i] = t.Row(i)
	}
	return rows
}

// SelectRows returns a new table with the given rows, in the given order.
func (t *Table) SelectRows(rows []int) *Table {
	if len(t.columns) == 0 {
		return empty(len(rows))
	}
	cols := make([]*Column, len(t.columns))
	for j, c := range t.columns {
		cells := make([]Cell, len(rows))
		for k, r := range rows {
			cells[k] = c.Cells[r]
		}
		cols[j] = &Column{Name: c.Name, Kind: c.Kind, Cells: cells}
	}
	return MustNew(cols...)
}

// SelectColumns returns a new table with the named columns, in the given order.
func (t *Table) SelectColumns(names []string) (*Table, error) {
	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		c, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("%w: column %q", ErrNotFound, name)
		}
		cols = append(cols, c.Clone())
	}
	if len(cols) == 0 {
		return empty(t.rows), nil
	}
	return New(cols...)
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.Clone()
	}
	if len(cols) == 0 {
		return empty(t.rows)
	}
	return MustNew(cols...)
}

// Clone returns a deep copy of the column
func (c *Column) Clone() *Column {
	cells := make([]Cell, len(c.Cells))
	copy(cells, c.Cells)
	return &Column{Name: c.Name, Kind: c.Kind, Cells: cells}
}

// NullCount returns the number of absent cells
func (c *Column) NullCount() int {
	n := 0
	for _, cell := range c.Cells {
		if cell.Null {
			n++
		}
	}
	return n
}

// Numbers returns the non-null values of a numeric column
func (c *Column) Numbers() []float64 {
	if c.Kind != KindNumber {
		return nil
	}
	out := make([]float64, 0, len(c.Cells))
	for _, cell := range c.Cells {
		if !cell.Null {
			out = append(out, cell.Num)
		}
	}
	return out
}

// Value returns cell i as a plain value
func (c *Column) Value(i int) any {
	cell := c.Cells[i]
	if cell.Null {
		return nil
	}
	switch c.Kind {
	case KindNumber:
		return cell.Num
	case KindBool:
		return cell.Bool
	default:
		return cell.Text
	}
}

// Format renders cell i as text; absent values render as the empty string.
func (c *Column) Format(i int) string {
	return FormatCell(c.Kind, c.Cells[i])
}

// FormatCell renders a cell of the given kind as text
func FormatCell(kind Kind, cell Cell) string {
	if cell.Null {
		return ""
	}
	switch kind {
	case KindNumber:
		return strconv.FormatFloat(cell.Num, 'f', -1, 64)
	case KindBool:
		if cell.Bool {
			return "True"
		}
		return "False"
	default:
		return cell.Text
	}
}
