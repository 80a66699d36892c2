package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/tabledesk/internal/ir"
)

// ErrTableNotFound is returned by Describe when the catalog has no such table.
var ErrTableNotFound = errors.New("table not found")

// Querier is the subset of *store.Store the introspector needs.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row
}

// Introspector answers questions about tables and their columns.
type Introspector struct {
	db Querier
}

// New returns an Introspector reading through db.
func New(db Querier) *Introspector {
	return &Introspector{db: db}
}

const columnsQuery = `SELECT cid, name, type, "notnull", dflt_value, pk
FROM pragma_table_info(?)
ORDER BY cid`

// Columns returns the columns of table in declaration order.
// A table that does not exist yields an empty slice and no error.
func (i *Introspector) Columns(ctx context.Context, table string) ([]ir.Column, error) {
	rows, err := i.db.Query(ctx, columnsQuery, table)
	if err != nil {
		return nil, fmt.Errorf("introspect %q: %w", table, err)
	}
	defer rows.Close()

	columns := []ir.Column{}
	for rows.Next() {
		var (
			col     ir.Column
			notNull int
			dflt    sql.NullString
		)
		if err := rows.Scan(&col.CID, &col.Name, &col.Type, &notNull, &dflt, &col.PrimaryKey); err != nil {
			return nil, fmt.Errorf("scan column of %q: %w", table, err)
		}
		col.NotNull = notNull != 0
		if dflt.Valid {
			d := dflt.String
			col.Default = &d
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns of %q: %w", table, err)
	}
	return columns, nil
}

// ColumnNames returns only the column names of table, in declaration order.
func (i *Introspector) ColumnNames(ctx context.Context, table string) ([]string, error) {
	cols, err := i.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cols))
	for j, c := range cols {
		names[j] = c.Name
	}
	return names, nil
}

// TableExists reports whether the catalog lists a table with this exact name.
func (i *Introspector) TableExists(ctx context.Context, table string) (bool, error) {
	var n int
	err := i.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
		table,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup table %q: %w", table, err)
	}
	return n > 0, nil
}

// Tables lists user tables sorted by name. SQLite's internal tables are skipped.
func (i *Introspector) Tables(ctx context.Context) ([]string, error) {
	rows, err := i.db.Query(ctx,
		`SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\'
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Describe checks that table exists and returns it with its columns.
// Missing tables are reported as ErrTableNotFound.
func (i *Introspector) Describe(ctx context.Context, table string) (*ir.Table, error) {
	ok, err := i.TableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	cols, err := i.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	return &ir.Table{Name: table, Columns: cols}, nil
}
