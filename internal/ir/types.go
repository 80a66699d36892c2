package ir

import "slices"

// Column is one column of a table as reported by the store's metadata query.
type Column struct {
	CID        int     `json:"cid"`
	Name       string  `json:"name"`
	Type       string  `json:"type"` // declared type, opaque to the engine
	NotNull    bool    `json:"not_null"`
	Default    *string `json:"default,omitempty"`
	PrimaryKey int     `json:"primary_key"` // 1-based position in the primary key, 0 if not part of it
}

// Table is a named relation with its live column list.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// ColumnNames returns column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Has reports whether the table has a column with the given name.
func (t *Table) Has(name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// PrimaryKey returns the primary key columns ordered by key position.
// Returns nil for tables without a declared primary key.
func (t *Table) PrimaryKey() []string {
	var pk []Column
	for _, c := range t.Columns {
		if c.PrimaryKey > 0 {
			pk = append(pk, c)
		}
	}
	slices.SortFunc(pk, func(a, b Column) int { return a.PrimaryKey - b.PrimaryKey })

	names := make([]string, len(pk))
	for i, c := range pk {
		names[i] = c.Name
	}
	if len(names) == 0 {
		return nil
	}
	return names
}

// Assignment is one column = value pair of an UPDATE.
// Value is raw operator text; it is always bound as a parameter.
type Assignment struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// Result describes the outcome of a write statement.
type Result struct {
	OpID         string `json:"op_id"`
	Seq          int64  `json:"seq"` // engine-local operation counter
	RowsAffected int64  `json:"rows_affected"`
	LastInsertID int64  `json:"last_insert_id,omitempty"`
}
