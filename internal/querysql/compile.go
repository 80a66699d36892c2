package querysql

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/tabledesk/internal/ir"
	"github.com/roach88/tabledesk/internal/queryir"
)

// ErrUnfiltered is returned when an UPDATE or DELETE has no filter and the
// compiler was not told to allow that.
var ErrUnfiltered = errors.New("statement without filter would affect every row")

// SQLCompiler compiles queryir statements to parameterized SQL for SQLite.
//
// CRITICAL: All values are parameterized (never interpolated).
// Identifiers are double-quoted with embedded quotes doubled; callers must
// still validate them against the live schema first.
type SQLCompiler struct {
	// AllowUnfiltered permits UPDATE and DELETE without a WHERE clause.
	// Only the explicit delete-all path sets it.
	AllowUnfiltered bool
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a statement to parameterized SQL.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(s queryir.Statement) (string, []any, error) {
	if s == nil {
		return "", nil, fmt.Errorf("cannot compile nil statement")
	}

	switch stmt := s.(type) {
	case queryir.Select:
		return c.compileSelect(stmt)
	case *queryir.Select:
		return c.compileSelect(*stmt)
	case queryir.Insert:
		return c.compileInsert(stmt)
	case *queryir.Insert:
		return c.compileInsert(*stmt)
	case queryir.Update:
		return c.compileUpdate(stmt)
	case *queryir.Update:
		return c.compileUpdate(*stmt)
	case queryir.Delete:
		return c.compileDelete(stmt)
	case *queryir.Delete:
		return c.compileDelete(*stmt)
	case queryir.Count:
		return c.compileCount(stmt)
	case *queryir.Count:
		return c.compileCount(*stmt)
	case queryir.CreateTable:
		return c.compileCreateTable(stmt)
	case *queryir.CreateTable:
		return c.compileCreateTable(*stmt)
	default:
		return "", nil, fmt.Errorf("unsupported statement type: %T", s)
	}
}

// QuoteIdent quotes an identifier for SQLite: wrapped in double quotes with
// embedded double quotes doubled.
func QuoteIdent(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty identifier")
	}
	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("identifier %q contains NUL", name)
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`, nil
}

func quoteList(names []string) (string, error) {
	parts := make([]string, len(names))
	for i, n := range names {
		q, err := QuoteIdent(n)
		if err != nil {
			return "", err
		}
		parts[i] = q
	}
	return strings.Join(parts, ", "), nil
}

// selectList quotes columns, wrapping those in asText in a CAST to TEXT
// under their own name so drivers hand back the stored text unparsed.
func selectList(columns, asText []string) (string, error) {
	parts := make([]string, len(columns))
	for i, name := range columns {
		quoted, err := QuoteIdent(name)
		if err != nil {
			return "", err
		}
		if slices.Contains(asText, name) {
			quoted = fmt.Sprintf("CAST(%s AS TEXT) AS %s", quoted, quoted)
		}
		parts[i] = quoted
	}
	return strings.Join(parts, ", "), nil
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	from, err := QuoteIdent(q.From)
	if err != nil {
		return "", nil, fmt.Errorf("select table: %w", err)
	}

	cols := "*"
	if len(q.AsText) > 0 && len(q.Columns) == 0 {
		return "", nil, fmt.Errorf("select columns: text columns need an explicit column list")
	}
	if len(q.Columns) > 0 {
		if cols, err = selectList(q.Columns, q.AsText); err != nil {
			return "", nil, fmt.Errorf("select columns: %w", err)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", cols, from)

	var params []any
	if q.Filter != nil {
		where, whereParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		sb.WriteString(" WHERE " + where)
		params = whereParams
	}

	if len(q.OrderBy) > 0 {
		parts := make([]string, len(q.OrderBy))
		for i, col := range q.OrderBy {
			quoted, err := QuoteIdent(col)
			if err != nil {
				return "", nil, fmt.Errorf("order by: %w", err)
			}
			parts[i] = quoted + " ASC"
		}
		sb.WriteString(" ORDER BY " + strings.Join(parts, ", "))
	}

	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		params = append(params, int64(q.Limit))
	}

	return sb.String(), params, nil
}

func (c *SQLCompiler) compileInsert(q queryir.Insert) (string, []any, error) {
	into, err := QuoteIdent(q.Into)
	if err != nil {
		return "", nil, fmt.Errorf("insert table: %w", err)
	}
	if len(q.Fields) == 0 {
		return "", nil, fmt.Errorf("insert into %s has no fields", into)
	}
	if len(q.Fields) != len(q.Values) {
		return "", nil, fmt.Errorf("insert into %s has %d fields but %d values", into, len(q.Fields), len(q.Values))
	}

	fields, err := quoteList(q.Fields)
	if err != nil {
		return "", nil, fmt.Errorf("insert fields: %w", err)
	}

	params := make([]any, len(q.Values))
	for i, v := range q.Values {
		if params[i], err = toParam(v); err != nil {
			return "", nil, fmt.Errorf("insert value %d: %w", i, err)
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(q.Values)), ", ")
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", into, fields, placeholders)
	return sql, params, nil
}

func (c *SQLCompiler) compileUpdate(q queryir.Update) (string, []any, error) {
	table, err := QuoteIdent(q.Table)
	if err != nil {
		return "", nil, fmt.Errorf("update table: %w", err)
	}
	if len(q.Set) == 0 {
		return "", nil, fmt.Errorf("update %s has no assignments", table)
	}

	sets := make([]string, len(q.Set))
	params := make([]any, 0, len(q.Set))
	for i, s := range q.Set {
		col, err := QuoteIdent(s.Column)
		if err != nil {
			return "", nil, fmt.Errorf("update column: %w", err)
		}
		p, err := toParam(s.Value)
		if err != nil {
			return "", nil, fmt.Errorf("update value for %s: %w", col, err)
		}
		sets[i] = col + " = ?"
		params = append(params, p)
	}

	sql := fmt.Sprintf("UPDATE %s SET %s", table, strings.Join(sets, ", "))

	where, whereParams, err := c.compileFilter(q.Filter)
	if err != nil {
		return "", nil, fmt.Errorf("update %s: %w", table, err)
	}
	return sql + where, append(params, whereParams...), nil
}

func (c *SQLCompiler) compileDelete(q queryir.Delete) (string, []any, error) {
	from, err := QuoteIdent(q.From)
	if err != nil {
		return "", nil, fmt.Errorf("delete table: %w", err)
	}

	where, params, err := c.compileFilter(q.Filter)
	if err != nil {
		return "", nil, fmt.Errorf("delete from %s: %w", from, err)
	}
	return "DELETE FROM " + from + where, params, nil
}

func (c *SQLCompiler) compileCount(q queryir.Count) (string, []any, error) {
	from, err := QuoteIdent(q.From)
	if err != nil {
		return "", nil, fmt.Errorf("count table: %w", err)
	}

	sql := "SELECT COUNT(*) FROM " + from
	if q.Filter == nil {
		return sql, nil, nil
	}
	where, params, err := c.compilePredicate(q.Filter)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	return sql + " WHERE " + where, params, nil
}

// compileFilter renders the WHERE clause of a write statement, enforcing
// AllowUnfiltered.
func (c *SQLCompiler) compileFilter(p queryir.Predicate) (string, []any, error) {
	if p == nil {
		if !c.AllowUnfiltered {
			return "", nil, ErrUnfiltered
		}
		return "", nil, nil
	}
	where, params, err := c.compilePredicate(p)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	return " WHERE " + where, params, nil
}

func (c *SQLCompiler) compileCreateTable(q queryir.CreateTable) (string, []any, error) {
	name, err := QuoteIdent(q.Name)
	if err != nil {
		return "", nil, fmt.Errorf("create table: %w", err)
	}
	if len(q.Columns) == 0 {
		return "", nil, fmt.Errorf("create table %s has no columns", name)
	}

	defs := make([]string, len(q.Columns))
	for i, col := range q.Columns {
		def, err := compileColumnDef(col)
		if err != nil {
			return "", nil, fmt.Errorf("create table %s: %w", name, err)
		}
		defs[i] = def
	}

	ifNotExists := ""
	if q.IfNotExists {
		ifNotExists = "IF NOT EXISTS "
	}
	sql := fmt.Sprintf("CREATE TABLE %s%s (\n    %s\n)", ifNotExists, name, strings.Join(defs, ",\n    "))
	return sql, nil, nil
}

func compileColumnDef(col queryir.ColumnDef) (string, error) {
	name, err := QuoteIdent(col.Name)
	if err != nil {
		return "", err
	}
	if !queryir.ValidType(col.Type) {
		return "", fmt.Errorf("column %s has unsupported type %q", name, col.Type)
	}

	parts := []string{name, col.Type}
	if col.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
		if col.AutoIncrement {
			parts = append(parts, "AUTOINCREMENT")
		}
	}
	if col.NotNull {
		parts = append(parts, "NOT NULL")
	}
	switch col.Default {
	case queryir.NoDefault:
	case queryir.DefaultTimestamp, queryir.DefaultDate:
		parts = append(parts, "DEFAULT "+string(col.Default))
	default:
		return "", fmt.Errorf("column %s has unsupported default %q", name, col.Default)
	}
	return strings.Join(parts, " "), nil
}

// compilePredicate compiles a predicate to a WHERE fragment.
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case queryir.Compare:
		return c.compileCompare(pred)
	case *queryir.Compare:
		return c.compileCompare(*pred)
	case queryir.Between:
		return c.compileBetween(pred)
	case *queryir.Between:
		return c.compileBetween(*pred)
	case queryir.IsNull:
		return compileIsNull(pred.Field, pred.Negate)
	case *queryir.IsNull:
		return compileIsNull(pred.Field, pred.Negate)
	case queryir.And:
		return c.compileJunction(pred.Predicates, " AND ", "1 = 1")
	case *queryir.And:
		return c.compileJunction(pred.Predicates, " AND ", "1 = 1")
	case queryir.Or:
		return c.compileJunction(pred.Predicates, " OR ", "1 = 0")
	case *queryir.Or:
		return c.compileJunction(pred.Predicates, " OR ", "1 = 0")
	case queryir.Not:
		return c.compileNot(pred)
	case *queryir.Not:
		return c.compileNot(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileCompare(cmp queryir.Compare) (string, []any, error) {
	if !cmp.Op.Valid() {
		return "", nil, fmt.Errorf("unsupported operator %q", cmp.Op)
	}

	if isNull(cmp.Value) {
		switch cmp.Op {
		case queryir.OpEq:
			return compileIsNull(cmp.Field, false)
		case queryir.OpNe:
			return compileIsNull(cmp.Field, true)
		default:
			return "", nil, fmt.Errorf("field %q cannot be compared to NULL with %s", cmp.Field, cmp.Op)
		}
	}

	field, err := QuoteIdent(cmp.Field)
	if err != nil {
		return "", nil, err
	}
	param, err := toParam(cmp.Value)
	if err != nil {
		return "", nil, fmt.Errorf("convert value: %w", err)
	}
	return fmt.Sprintf("%s %s ?", field, cmp.Op), []any{param}, nil
}

func (c *SQLCompiler) compileBetween(b queryir.Between) (string, []any, error) {
	if isNull(b.Low) || isNull(b.High) {
		return "", nil, fmt.Errorf("field %q: BETWEEN bounds cannot be NULL", b.Field)
	}
	field, err := QuoteIdent(b.Field)
	if err != nil {
		return "", nil, err
	}
	low, err := toParam(b.Low)
	if err != nil {
		return "", nil, err
	}
	high, err := toParam(b.High)
	if err != nil {
		return "", nil, err
	}
	return field + " BETWEEN ? AND ?", []any{low, high}, nil
}

func compileIsNull(field string, negate bool) (string, []any, error) {
	quoted, err := QuoteIdent(field)
	if err != nil {
		return "", nil, err
	}
	if negate {
		return quoted + " IS NOT NULL", nil, nil
	}
	return quoted + " IS NULL", nil, nil
}

// compileJunction joins sub-predicates with AND/OR. Multiple parts are
// parenthesised so nesting never depends on operator precedence.
func (c *SQLCompiler) compileJunction(preds []queryir.Predicate, sep, empty string) (string, []any, error) {
	if len(preds) == 0 {
		return empty, nil, nil
	}

	parts := make([]string, 0, len(preds))
	var params []any
	for _, p := range preds {
		sql, ps, err := c.compilePredicate(p)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}

	if len(parts) == 1 {
		return parts[0], params, nil
	}
	return "(" + strings.Join(parts, sep) + ")", params, nil
}

func (c *SQLCompiler) compileNot(n queryir.Not) (string, []any, error) {
	if n.Predicate == nil {
		return "", nil, fmt.Errorf("NOT without operand")
	}
	sql, params, err := c.compilePredicate(n.Predicate)
	if err != nil {
		return "", nil, err
	}
	return "NOT (" + sql + ")", params, nil
}

func isNull(v ir.Value) bool {
	switch v.(type) {
	case nil, ir.Null:
		return true
	}
	return false
}

// toParam converts a statement value to a driver parameter.
// ir.Value literals are unwrapped; plain Go scalars pass through.
func toParam(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case ir.Value:
		return ir.Native(val), nil
	case string, int64, float64, bool, []byte:
		return val, nil
	case int:
		return int64(val), nil
	default:
		return nil, fmt.Errorf("unsupported parameter type: %T", v)
	}
}
