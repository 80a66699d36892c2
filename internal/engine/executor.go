package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/tabledesk/internal/ir"
	"github.com/roach88/tabledesk/internal/predicate"
	"github.com/roach88/tabledesk/internal/queryir"
	"github.com/roach88/tabledesk/internal/querysql"
)

// Insert adds one row. fields and values pair up positionally.
//
// The arity check runs before anything else, so a mismatched call never
// touches the store.
func (e *Engine) Insert(ctx context.Context, table string, fields, values []string) (ir.Result, error) {
	if len(fields) != len(values) {
		return ir.Result{}, NewArityMismatch(table, len(fields), len(values))
	}

	tbl, err := e.resolve(ctx, table)
	if err != nil {
		return ir.Result{}, err
	}

	stmt, err := BuildInsert(table, tbl.ColumnNames(), fields, values)
	if err != nil {
		return ir.Result{}, err
	}
	return e.exec(ctx, "insert", table, stmt, false)
}

// Update sets one column on the rows matching where, given in predicate
// syntax. A blank where is rejected with MISSING_PREDICATE.
func (e *Engine) Update(ctx context.Context, table, column, value, where string) (ir.Result, error) {
	return e.UpdateSet(ctx, table, []ir.Assignment{{Column: column, Value: value}}, where)
}

// UpdateSet applies several assignments to the rows matching where, given in
// predicate syntax. A blank where is rejected with MISSING_PREDICATE.
func (e *Engine) UpdateSet(ctx context.Context, table string, sets []ir.Assignment, where string) (ir.Result, error) {
	pred, err := parseWhere(table, where, "update")
	if err != nil {
		return ir.Result{}, err
	}
	return e.UpdateWhere(ctx, table, sets, pred)
}

// UpdateWhere applies every assignment to the rows matching pred.
func (e *Engine) UpdateWhere(ctx context.Context, table string, sets []ir.Assignment, pred queryir.Predicate) (ir.Result, error) {
	tbl, err := e.resolve(ctx, table)
	if err != nil {
		return ir.Result{}, err
	}

	stmt, err := BuildUpdate(table, tbl.ColumnNames(), sets, pred)
	if err != nil {
		return ir.Result{}, err
	}
	e.logger.Debug("update filter", "table", table, "where", predicate.Format(pred))
	return e.exec(ctx, "update", table, stmt, false)
}

// Delete removes the rows matching where, given in predicate syntax.
// Deleting rows that are already gone succeeds with zero rows affected.
func (e *Engine) Delete(ctx context.Context, table, where string) (ir.Result, error) {
	pred, err := parseWhere(table, where, "delete")
	if err != nil {
		return ir.Result{}, err
	}
	return e.DeleteWhere(ctx, table, pred)
}

// DeleteWhere removes the rows matching pred.
func (e *Engine) DeleteWhere(ctx context.Context, table string, pred queryir.Predicate) (ir.Result, error) {
	tbl, err := e.resolve(ctx, table)
	if err != nil {
		return ir.Result{}, err
	}

	stmt, err := BuildDelete(table, tbl.ColumnNames(), pred)
	if err != nil {
		return ir.Result{}, err
	}
	e.logger.Debug("delete filter", "table", table, "where", predicate.Format(pred))
	return e.exec(ctx, "delete", table, stmt, false)
}

// DeleteAll removes every row of table. This is the only unfiltered write.
func (e *Engine) DeleteAll(ctx context.Context, table string) (ir.Result, error) {
	if _, err := e.resolve(ctx, table); err != nil {
		return ir.Result{}, err
	}
	return e.exec(ctx, "delete_all", table, queryir.Delete{From: table}, true)
}

// SelectAll returns every row and column of table.
func (e *Engine) SelectAll(ctx context.Context, table string) (*ir.RowSet, error) {
	return e.SelectWhere(ctx, table, nil, SelectOptions{})
}

// Select returns the rows matching where. A blank where selects every row.
func (e *Engine) Select(ctx context.Context, table, where string) (*ir.RowSet, error) {
	pred, err := parseOptionalWhere(table, where)
	if err != nil {
		return nil, err
	}
	return e.SelectWhere(ctx, table, pred, SelectOptions{})
}

// SelectWith is Select with a column list, ordering and limit.
func (e *Engine) SelectWith(ctx context.Context, table, where string, opts SelectOptions) (*ir.RowSet, error) {
	pred, err := parseOptionalWhere(table, where)
	if err != nil {
		return nil, err
	}
	return e.SelectWhere(ctx, table, pred, opts)
}

// SelectWhere returns the rows matching pred (all rows when nil).
func (e *Engine) SelectWhere(ctx context.Context, table string, pred queryir.Predicate, opts SelectOptions) (*ir.RowSet, error) {
	tbl, err := e.resolve(ctx, table)
	if err != nil {
		return nil, err
	}

	stmt, err := BuildSelect(tbl, pred, opts)
	if err != nil {
		return nil, err
	}
	return e.query(ctx, table, stmt)
}

// Count returns the number of rows matching where. A blank where counts
// every row.
func (e *Engine) Count(ctx context.Context, table, where string) (int64, error) {
	pred, err := parseOptionalWhere(table, where)
	if err != nil {
		return 0, err
	}
	return e.CountWhere(ctx, table, pred)
}

// CountWhere returns the number of rows matching pred (all rows when nil).
func (e *Engine) CountWhere(ctx context.Context, table string, pred queryir.Predicate) (int64, error) {
	tbl, err := e.resolve(ctx, table)
	if err != nil {
		return 0, err
	}

	stmt, err := BuildCount(table, tbl.ColumnNames(), pred)
	if err != nil {
		return 0, err
	}

	query, args, err := e.compile(table, stmt, false)
	if err != nil {
		return 0, err
	}
	log := e.opLogger("count", table)
	log.Debug("executing query", "sql", query, "params", len(args))

	var n int64
	if err := e.store.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, e.storeFailure(log, table, err)
	}
	return n, nil
}

// CreateTable creates an allow-listed table from a definition. Used by
// entity profiles to bootstrap their tables.
func (e *Engine) CreateTable(ctx context.Context, ct queryir.CreateTable) (ir.Result, error) {
	if !e.allowed[ct.Name] {
		return ir.Result{}, NewTableNotAllowed(ct.Name)
	}
	if result := queryir.Validate(ct, nil); !result.IsValid {
		return ir.Result{}, &Error{
			Code:    ErrCodeSchemaMismatch,
			Message: "invalid table definition: " + problemsError(result.Problems).Error(),
			Table:   ct.Name,
		}
	}
	return e.exec(ctx, "create_table", ct.Name, ct, false)
}

// exec compiles and runs a write statement.
func (e *Engine) exec(ctx context.Context, op, table string, stmt queryir.Statement, allowUnfiltered bool) (ir.Result, error) {
	query, args, err := e.compile(table, stmt, allowUnfiltered)
	if err != nil {
		return ir.Result{}, err
	}

	res := ir.Result{OpID: e.ids.Generate(), Seq: e.clock.Next()}
	log := e.logger.With("op", op, "op_id", res.OpID, "seq", res.Seq, "table", table)
	log.Debug("executing statement", "sql", query, "params", len(args))

	sqlRes, err := e.store.Exec(ctx, query, args...)
	if err != nil {
		return ir.Result{}, e.storeFailure(log, table, err)
	}

	if res.RowsAffected, err = sqlRes.RowsAffected(); err != nil {
		return ir.Result{}, e.storeFailure(log, table, err)
	}
	if op == "insert" {
		if res.LastInsertID, err = sqlRes.LastInsertId(); err != nil {
			return ir.Result{}, e.storeFailure(log, table, err)
		}
	}

	log.Info("statement executed", "rows_affected", res.RowsAffected)
	return res, nil
}

// query compiles and runs a read statement.
func (e *Engine) query(ctx context.Context, table string, stmt queryir.Statement) (*ir.RowSet, error) {
	query, args, err := e.compile(table, stmt, false)
	if err != nil {
		return nil, err
	}

	log := e.opLogger("select", table)
	log.Debug("executing query", "sql", query, "params", len(args))

	rows, err := e.store.Query(ctx, query, args...)
	if err != nil {
		return nil, e.storeFailure(log, table, err)
	}
	defer rows.Close()

	rs, err := scanRows(rows)
	if err != nil {
		return nil, e.storeFailure(log, table, err)
	}
	log.Debug("query returned", "rows", rs.Len())
	return rs, nil
}

func (e *Engine) compile(table string, stmt queryir.Statement, allowUnfiltered bool) (string, []any, error) {
	query, args, err := e.compiler(allowUnfiltered).Compile(stmt)
	if errors.Is(err, querysql.ErrUnfiltered) {
		return "", nil, NewMissingPredicate(table, "statement")
	}
	if err != nil {
		return "", nil, NewInvalidPredicate(table, err)
	}
	return query, args, nil
}

func (e *Engine) opLogger(op, table string) *slog.Logger {
	return e.logger.With("op", op, "seq", e.clock.Next(), "table", table)
}

func (e *Engine) storeFailure(log *slog.Logger, table string, err error) error {
	serr := NewStoreError(table, err)
	log.Warn("statement failed", "kind", serr.Kind, "error", err)
	return serr
}

// scanRows reads every row, converting cells with the declared column type.
func scanRows(rows *sql.Rows) (*ir.RowSet, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column types: %w", err)
	}

	names := make([]string, len(types))
	declTypes := make([]string, len(types))
	for i, ct := range types {
		names[i] = ct.Name()
		declTypes[i] = ct.DatabaseTypeName()
	}

	rs := ir.NewRowSet(names)
	for rows.Next() {
		raw := make([]any, len(types))
		ptrs := make([]any, len(types))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make([]ir.Value, len(raw))
		for i, v := range raw {
			row[i] = ir.FromDriver(v, declTypes[i])
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return rs, nil
}

// parseWhere parses a required predicate.
func parseWhere(table, where, op string) (queryir.Predicate, error) {
	pred, err := predicate.Parse(where)
	if errors.Is(err, predicate.ErrEmptyPredicate) {
		return nil, NewMissingPredicate(table, op)
	}
	if err != nil {
		return nil, NewInvalidPredicate(table, err)
	}
	return pred, nil
}

// parseOptionalWhere parses a predicate where blank means "no filter".
func parseOptionalWhere(table, where string) (queryir.Predicate, error) {
	pred, err := predicate.Parse(where)
	if errors.Is(err, predicate.ErrEmptyPredicate) {
		return nil, nil
	}
	if err != nil {
		return nil, NewInvalidPredicate(table, err)
	}
	return pred, nil
}
