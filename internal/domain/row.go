package domain

import "strings"

// FieldRow is a Row backed by parallel column and cell slices, as produced by
// a SQL result set. Lookups try the exact column name first and fall back to
// a case-insensitive match.
type FieldRow struct {
	index map[string]int
	fold  map[string]int
	cells []Cell
}

// NewRow builds a FieldRow. Extra columns or cells beyond the shorter of the
// two slices are ignored. For duplicate column names the first one wins.
func NewRow(columns []string, cells []Cell) *FieldRow {
	n := min(len(columns), len(cells))
	r := &FieldRow{
		index: make(map[string]int, n),
		fold:  make(map[string]int, n),
		cells: cells[:n],
	}
	for i := 0; i < n; i++ {
		if _, ok := r.index[columns[i]]; !ok {
			r.index[columns[i]] = i
		}
		key := strings.ToLower(columns[i])
		if _, ok := r.fold[key]; !ok {
			r.fold[key] = i
		}
	}
	return r
}

// Lookup implements Row.
func (r *FieldRow) Lookup(column string) (Cell, bool) {
	if r == nil {
		return Cell{}, false
	}
	if i, ok := r.index[column]; ok {
		return r.cells[i], true
	}
	if i, ok := r.fold[strings.ToLower(column)]; ok {
		return r.cells[i], true
	}
	return Cell{}, false
}

// ValuesRow builds a FieldRow from column/value pairs with no database type
// information. Useful for rows assembled outside of a SQL driver.
func ValuesRow(values map[string]any) *FieldRow {
	columns := make([]string, 0, len(values))
	cells := make([]Cell, 0, len(values))
	for k, v := range values {
		columns = append(columns, k)
		cells = append(cells, Cell{Value: v})
	}
	return NewRow(columns, cells)
}
