package ir

import "encoding/json"

// RowSet is the result of a read: column names plus rows of cell values.
// Rows keep the column order of the statement that produced them.
type RowSet struct {
	Columns []string  `json:"columns"`
	Rows    [][]Value `json:"rows"`
}

// NewRowSet creates an empty row set with the given columns.
func NewRowSet(columns []string) *RowSet {
	return &RowSet{Columns: columns, Rows: [][]Value{}}
}

// Len returns the number of rows.
func (rs *RowSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// Index returns the position of a column, or -1.
func (rs *RowSet) Index(column string) int {
	for i, c := range rs.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Get returns the value at row i for the named column.
// Returns Null{} when the row or column does not exist.
func (rs *RowSet) Get(i int, column string) Value {
	idx := rs.Index(column)
	if idx < 0 || i < 0 || i >= len(rs.Rows) {
		return Null{}
	}
	return rs.Rows[i][idx]
}

// Maps returns every row as a column -> native Go value map.
func (rs *RowSet) Maps() []map[string]any {
	out := make([]map[string]any, len(rs.Rows))
	for i, row := range rs.Rows {
		m := make(map[string]any, len(rs.Columns))
		for j, col := range rs.Columns {
			m[col] = Native(row[j])
		}
		out[i] = m
	}
	return out
}

// Strings returns every row formatted for display.
func (rs *RowSet) Strings() [][]string {
	out := make([][]string, len(rs.Rows))
	for i, row := range rs.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = Format(v)
		}
		out[i] = cells
	}
	return out
}

// MarshalJSON renders rows as objects so JSON consumers do not depend on column order.
func (rs *RowSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Columns []string         `json:"columns"`
		Rows    []map[string]any `json:"rows"`
	}{
		Columns: rs.Columns,
		Rows:    rs.Maps(),
	})
}
