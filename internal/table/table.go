// Package table provides the in-memory tabular structure the warehouse
// pipeline operates on. A Table has an ordered set of named columns and rows
// of loosely typed cells; a nil cell is the missing-value marker.
package table

// Row maps a column name to a cell value. Valid cell types are string,
// float64, int, time.Time and nil (missing).
type Row map[string]any

// Table is an ordered collection of columns and rows. Rows may carry nil
// cells for columns that have no value; a column absent from the table is
// absent from every row.
type Table struct {
	cols []string
	rows []Row
}

// New creates an empty table with the given columns.
func New(cols ...string) *Table {
	t := &Table{cols: make([]string, len(cols))}
	copy(t.cols, cols)
	return t
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	copy(out, t.cols)
	return out
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.cols {
		if c == name {
			return true
		}
	}
	return false
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Append adds a row. Cells for unknown columns are dropped; known columns
// without an entry stay missing.
func (t *Table) Append(row Row) {
	r := make(Row, len(t.cols))
	for _, c := range t.cols {
		if v, ok := row[c]; ok {
			r[c] = v
		}
	}
	t.rows = append(t.rows, r)
}

// Cell returns the value at row i, column name. Missing values and absent
// columns both come back as nil.
func (t *Table) Cell(i int, name string) any {
	if i < 0 || i >= len(t.rows) {
		return nil
	}
	return t.rows[i][name]
}

// SetCell overwrites the value at row i, column name. It is a no-op when the
// column does not exist.
func (t *Table) SetCell(i int, name string, v any) {
	if i < 0 || i >= len(t.rows) || !t.HasColumn(name) {
		return
	}
	t.rows[i][name] = v
}

// Column returns all values of a column, one per row.
func (t *Table) Column(name string) []any {
	out := make([]any, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[name]
	}
	return out
}

// AddColumn appends a new column whose value for every existing row is
// produced by fill. Adding an existing column is a no-op.
func (t *Table) AddColumn(name string, fill func(i int) any) {
	if t.HasColumn(name) {
		return
	}
	t.cols = append(t.cols, name)
	for i, r := range t.rows {
		r[name] = fill(i)
	}
}

// RenameColumns renames columns according to mapping (old name -> new name).
// Names not present in the mapping pass through unchanged.
func (t *Table) RenameColumns(mapping map[string]string) {
	for i, c := range t.cols {
		newName, ok := mapping[c]
		if !ok || newName == c {
			continue
		}
		t.cols[i] = newName
		for _, r := range t.rows {
			if v, exists := r[c]; exists {
				delete(r, c)
				r[newName] = v
			}
		}
	}
}

// Select returns a new table holding only the listed columns, in the listed
// order, skipping names the table does not have. Rows are copied.
func (t *Table) Select(cols ...string) *Table {
	kept := make([]string, 0, len(cols))
	for _, c := range cols {
		if t.HasColumn(c) {
			kept = append(kept, c)
		}
	}
	out := New(kept...)
	for _, r := range t.rows {
		out.Append(r)
	}
	return out
}

// Clone returns a deep copy of the table. Cell values themselves are not
// copied; all supported cell types are immutable.
func (t *Table) Clone() *Table {
	out := New(t.cols...)
	out.rows = make([]Row, len(t.rows))
	for i, r := range t.rows {
		cp := make(Row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out.rows[i] = cp
	}
	return out
}
