package engine

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/tabledesk/internal/ir"
	"github.com/roach88/tabledesk/internal/queryir"
)

// SelectOptions shape a read.
type SelectOptions struct {
	// Columns restricts the result columns. Nil selects every column.
	Columns []string

	// OrderBy overrides the default order (the primary key, if any).
	OrderBy []string

	// Limit caps the number of rows. Zero means no limit.
	Limit int
}

// BuildInsert validates an insert against columns and returns its statement.
//
// Checks run in this order: ArityMismatch, EmptyFieldSet, DuplicateField,
// SchemaMismatch. Field names are trimmed; values are NFC-normalized and
// bound as strings, leaving type conversion to the column affinity.
func BuildInsert(table string, columns, fields, values []string) (queryir.Insert, error) {
	if len(fields) != len(values) {
		return queryir.Insert{}, NewArityMismatch(table, len(fields), len(values))
	}
	if len(fields) == 0 {
		return queryir.Insert{}, NewEmptyFieldSet(table)
	}

	trimmed, err := normalizeFields(table, fields)
	if err != nil {
		return queryir.Insert{}, err
	}

	if unknown := unknownFields(trimmed, columns); len(unknown) > 0 {
		return queryir.Insert{}, NewSchemaMismatch(table, unknown)
	}

	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = norm.NFC.String(v)
	}

	return queryir.Insert{Into: table, Fields: trimmed, Values: vals}, nil
}

// BuildUpdate validates an update against columns and returns its statement.
// A nil predicate is rejected; clearing a column everywhere is not an update.
func BuildUpdate(table string, columns []string, sets []ir.Assignment, pred queryir.Predicate) (queryir.Update, error) {
	if len(sets) == 0 {
		return queryir.Update{}, NewEmptyFieldSet(table)
	}
	if pred == nil {
		return queryir.Update{}, NewMissingPredicate(table, "update")
	}

	names := make([]string, len(sets))
	for i, s := range sets {
		names[i] = s.Column
	}
	trimmed, err := normalizeFields(table, names)
	if err != nil {
		return queryir.Update{}, err
	}

	stmt := queryir.Update{Table: table, Filter: pred}
	for i, s := range sets {
		stmt.Set = append(stmt.Set, queryir.Set{Column: trimmed[i], Value: norm.NFC.String(s.Value)})
	}

	if err := checkStatement(table, stmt, columns); err != nil {
		return queryir.Update{}, err
	}
	return stmt, nil
}

// BuildDelete validates a delete against columns and returns its statement.
// A nil predicate is rejected; see Engine.DeleteAll.
func BuildDelete(table string, columns []string, pred queryir.Predicate) (queryir.Delete, error) {
	if pred == nil {
		return queryir.Delete{}, NewMissingPredicate(table, "delete")
	}

	stmt := queryir.Delete{From: table, Filter: pred}
	if err := checkStatement(table, stmt, columns); err != nil {
		return queryir.Delete{}, err
	}
	return stmt, nil
}

// BuildSelect validates a read against the table and returns its statement.
// Without an explicit order, rows come back in primary key order.
func BuildSelect(tbl *ir.Table, pred queryir.Predicate, opts SelectOptions) (queryir.Select, error) {
	stmt := queryir.Select{
		From:    tbl.Name,
		Columns: opts.Columns,
		Filter:  pred,
		OrderBy: opts.OrderBy,
		Limit:   opts.Limit,
	}
	if len(stmt.OrderBy) == 0 {
		stmt.OrderBy = tbl.PrimaryKey()
	}

	if err := checkStatement(tbl.Name, stmt, tbl.ColumnNames()); err != nil {
		return queryir.Select{}, err
	}

	// Drivers parse DATE/TIME/TIMESTAMP cells into time.Time, which cannot
	// reproduce the stored text. Read those columns back as text instead.
	var timeCols []string
	for _, c := range tbl.Columns {
		if isTimeType(c.Type) {
			timeCols = append(timeCols, c.Name)
		}
	}
	if len(timeCols) == 0 {
		return stmt, nil
	}
	if len(stmt.Columns) == 0 {
		stmt.Columns = tbl.ColumnNames()
	}
	for _, c := range stmt.Columns {
		if slices.Contains(timeCols, c) {
			stmt.AsText = append(stmt.AsText, c)
		}
	}
	return stmt, nil
}

// isTimeType reports whether a declared type makes the SQLite drivers
// return time.Time values.
func isTimeType(declType string) bool {
	base, _, _ := strings.Cut(declType, "(")
	switch strings.ToUpper(strings.TrimSpace(base)) {
	case "DATE", "DATETIME", "TIME", "TIMESTAMP":
		return true
	}
	return false
}

// BuildCount validates a count against columns and returns its statement.
func BuildCount(table string, columns []string, pred queryir.Predicate) (queryir.Count, error) {
	stmt := queryir.Count{From: table, Filter: pred}
	if err := checkStatement(table, stmt, columns); err != nil {
		return queryir.Count{}, err
	}
	return stmt, nil
}

// checkStatement maps queryir validation findings onto engine errors.
// Unknown fields win over structural problems.
func checkStatement(table string, stmt queryir.Statement, columns []string) error {
	result := queryir.Validate(stmt, columns)
	if result.IsValid {
		return nil
	}
	if len(result.UnknownFields) > 0 {
		return NewSchemaMismatch(table, result.UnknownFields)
	}
	return NewInvalidPredicate(table, problemsError(result.Problems))
}

type problemsError []string

func (p problemsError) Error() string {
	return strings.Join(p, "; ")
}

// normalizeFields trims field names and rejects blanks and repeats.
func normalizeFields(table string, fields []string) ([]string, error) {
	out := make([]string, len(fields))
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			return nil, NewSchemaMismatch(table, []string{""})
		}
		if slices.Contains(out[:i], f) {
			return nil, NewDuplicateField(table, f)
		}
		out[i] = f
	}
	return out, nil
}

// unknownFields returns fields absent from columns, in input order.
func unknownFields(fields, columns []string) []string {
	var unknown []string
	for _, f := range fields {
		if !slices.Contains(columns, f) {
			unknown = append(unknown, f)
		}
	}
	return unknown
}
