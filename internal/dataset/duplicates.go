package dataset

import (
	"math"
	"strconv"
	"strings"
)

// DuplicateSummary counts rows that repeat an earlier row (full-row equality,
// absent values equal to absent values) and returns every row that belongs to a
// duplicate group, first occurrences included, in original order.
func DuplicateSummary(t *Table) (int, *Table) {
	keys := rowKeys(t)
	groups := make(map[string]int, len(keys))
	for _, k := range keys {
		groups[k]++
	}

	count := 0
	seen := make(map[string]struct{}, len(keys))
	members := make([]int, 0)
	for i, k := range keys {
		if groups[k] > 1 {
			members = append(members, i)
		}
		if _, dup := seen[k]; dup {
			count++
			continue
		}
		seen[k] = struct{}{}
	}
	return count, t.SelectRows(members)
}

// DuplicateCount is DuplicateSummary without materialising the duplicate rows
func DuplicateCount(t *Table) int {
	seen := make(map[string]struct{}, t.NumRows())
	count := 0
	for _, k := range rowKeys(t) {
		if _, dup := seen[k]; dup {
			count++
			continue
		}
		seen[k] = struct{}{}
	}
	return count
}

// RemoveDuplicates keeps the first occurrence of each distinct row, preserving order.
func RemoveDuplicates(t *Table) *Table {
	seen := make(map[string]struct{}, t.NumRows())
	keep := make([]int, 0, t.NumRows())
	for i, k := range rowKeys(t) {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, i)
	}
	return t.SelectRows(keep)
}

func rowKeys(t *Table) []string {
	keys := make([]string, t.NumRows())
	var b strings.Builder
	for i := range keys {
		b.Reset()
		for _, c := range t.Columns() {
			k := cellKey(c.Kind, c.Cells[i])
			// length prefix keeps "a,b"+"c" distinct from "a"+"b,c"
			b.WriteString(strconv.Itoa(len(k)))
			b.WriteByte(':')
			b.WriteString(k)
		}
		keys[i] = b.String()
	}
	return keys
}

// cellKey encodes a cell so that equal values produce equal keys
func cellKey(kind Kind, cell Cell) string {
	if cell.Null {
		return "\x00"
	}
	switch kind {
	case KindNumber:
		if cell.Num == 0 {
			// -0 and +0 compare equal
			return "n0"
		}
		return "n" + strconv.FormatUint(math.Float64bits(cell.Num), 16)
	case KindBool:
		if cell.Bool {
			return "b1"
		}
		return "b0"
	default:
		return "s" + cell.Text
	}
}
