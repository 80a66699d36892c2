package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabledesk/internal/ir"
	"github.com/roach88/tabledesk/internal/queryir"
)

func TestCompile_SelectAll(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.Select{From: "roles"})
	require.NoError(t, err)

	assert.Equal(t, `SELECT * FROM "roles"`, sql)
	assert.Empty(t, params)
}

func TestCompile_SelectFiltered(t *testing.T) {
	stmt := &queryir.Select{
		From:    "roles",
		Columns: []string{"id", "name"},
		Filter:  queryir.Eq("name", ir.String("admin")),
		OrderBy: []string{"id"},
		Limit:   10,
	}

	sql, params, err := NewSQLCompiler().Compile(stmt)
	require.NoError(t, err)

	assert.Equal(t, `SELECT "id", "name" FROM "roles" WHERE "name" = ? ORDER BY "id" ASC LIMIT ?`, sql)
	assert.Equal(t, []any{"admin", int64(10)}, params)
}

func TestCompile_SelectAsText(t *testing.T) {
	sql, _, err := NewSQLCompiler().Compile(queryir.Select{
		From:    "users",
		Columns: []string{"id", "created_at"},
		AsText:  []string{"created_at"},
	})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id", CAST("created_at" AS TEXT) AS "created_at" FROM "users"`, sql)

	_, _, err = NewSQLCompiler().Compile(queryir.Select{From: "users", AsText: []string{"created_at"}})
	assert.Error(t, err)
}

func TestCompile_Insert(t *testing.T) {
	stmt := queryir.Insert{
		Into:   "roles",
		Fields: []string{"name", "description"},
		Values: []any{"admin", "full access"},
	}

	sql, params, err := NewSQLCompiler().Compile(stmt)
	require.NoError(t, err)

	assert.Equal(t, `INSERT INTO "roles" ("name", "description") VALUES (?, ?)`, sql)
	assert.Equal(t, []any{"admin", "full access"}, params)
}

func TestCompile_InsertArity(t *testing.T) {
	_, _, err := NewSQLCompiler().Compile(queryir.Insert{
		Into:   "roles",
		Fields: []string{"name"},
		Values: []any{"a", "b"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 fields but 2 values")

	_, _, err = NewSQLCompiler().Compile(queryir.Insert{Into: "roles"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fields")
}

func TestCompile_Update(t *testing.T) {
	stmt := queryir.Update{
		Table:  "roles",
		Set:    []queryir.Set{{Column: "description", Value: "x"}},
		Filter: queryir.Eq("id", ir.Int(1)),
	}

	sql, params, err := NewSQLCompiler().Compile(stmt)
	require.NoError(t, err)

	assert.Equal(t, `UPDATE "roles" SET "description" = ? WHERE "id" = ?`, sql)
	assert.Equal(t, []any{"x", int64(1)}, params)
}

func TestCompile_Delete(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.Delete{
		From:   "roles",
		Filter: queryir.Eq("id", ir.Int(1)),
	})
	require.NoError(t, err)

	assert.Equal(t, `DELETE FROM "roles" WHERE "id" = ?`, sql)
	assert.Equal(t, []any{int64(1)}, params)
}

func TestCompile_UnfilteredWritesRequireOptIn(t *testing.T) {
	stmts := []queryir.Statement{
		queryir.Delete{From: "roles"},
		queryir.Update{Table: "roles", Set: []queryir.Set{{Column: "description", Value: "x"}}},
	}

	for _, stmt := range stmts {
		_, _, err := NewSQLCompiler().Compile(stmt)
		assert.ErrorIs(t, err, ErrUnfiltered)
	}

	c := &SQLCompiler{AllowUnfiltered: true}
	sql, params, err := c.Compile(queryir.Delete{From: "roles"})
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "roles"`, sql)
	assert.Empty(t, params)
}

func TestCompile_Count(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.Count{From: "roles"})
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "roles"`, sql)
	assert.Empty(t, params)

	sql, params, err = NewSQLCompiler().Compile(&queryir.Count{
		From:   "inson",
		Filter: queryir.Compare{Field: "familya", Op: queryir.OpLike, Value: ir.String("%ov%")},
	})
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "inson" WHERE "familya" LIKE ?`, sql)
	assert.Equal(t, []any{"%ov%"}, params)
}

func TestCompile_Predicates(t *testing.T) {
	tests := []struct {
		name   string
		pred   queryir.Predicate
		where  string
		params []any
	}{
		{
			name:   "not equal",
			pred:   queryir.Compare{Field: "id", Op: queryir.OpNe, Value: ir.Int(2)},
			where:  `"id" != ?`,
			params: []any{int64(2)},
		},
		{
			name:   "not like",
			pred:   queryir.Compare{Field: "name", Op: queryir.OpNotLike, Value: ir.String("a%")},
			where:  `"name" NOT LIKE ?`,
			params: []any{"a%"},
		},
		{
			name:  "equals null",
			pred:  queryir.Eq("description", ir.Null{}),
			where: `"description" IS NULL`,
		},
		{
			name:  "not equals null",
			pred:  queryir.Compare{Field: "description", Op: queryir.OpNe, Value: ir.Null{}},
			where: `"description" IS NOT NULL`,
		},
		{
			name:   "between",
			pred:   queryir.Between{Field: "boyi", Low: ir.Int(150), High: ir.Float(180.5)},
			where:  `"boyi" BETWEEN ? AND ?`,
			params: []any{int64(150), 180.5},
		},
		{
			name:  "is not null",
			pred:  &queryir.IsNull{Field: "email", Negate: true},
			where: `"email" IS NOT NULL`,
		},
		{
			name: "and of or",
			pred: queryir.And{Predicates: []queryir.Predicate{
				queryir.Or{Predicates: []queryir.Predicate{
					queryir.Eq("id", ir.Int(1)),
					queryir.Eq("id", ir.Int(2)),
				}},
				queryir.Not{Predicate: queryir.IsNull{Field: "name"}},
			}},
			where:  `(("id" = ? OR "id" = ?) AND NOT ("name" IS NULL))`,
			params: []any{int64(1), int64(2)},
		},
		{
			name:  "empty and",
			pred:  queryir.And{},
			where: `1 = 1`,
		},
		{
			name:  "empty or",
			pred:  queryir.Or{},
			where: `1 = 0`,
		},
		{
			name:   "single-element and",
			pred:   queryir.And{Predicates: []queryir.Predicate{queryir.Eq("id", ir.Int(1))}},
			where:  `"id" = ?`,
			params: []any{int64(1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := NewSQLCompiler().Compile(queryir.Count{From: "t", Filter: tt.pred})
			require.NoError(t, err)
			assert.Equal(t, `SELECT COUNT(*) FROM "t" WHERE `+tt.where, sql)
			if tt.params == nil {
				assert.Empty(t, params)
			} else {
				assert.Equal(t, tt.params, params)
			}
		})
	}
}

func TestCompile_PredicateErrors(t *testing.T) {
	tests := []struct {
		name string
		pred queryir.Predicate
	}{
		{"bad operator", queryir.Compare{Field: "id", Op: "; DROP", Value: ir.Int(1)}},
		{"null ordering", queryir.Compare{Field: "id", Op: queryir.OpGt, Value: ir.Null{}}},
		{"null between", queryir.Between{Field: "id", Low: ir.Int(1), High: ir.Null{}}},
		{"empty not", queryir.Not{}},
		{"empty field", queryir.IsNull{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewSQLCompiler().Compile(queryir.Count{From: "t", Filter: tt.pred})
			assert.Error(t, err)
		})
	}
}

func TestCompile_ValuesNeverInSQL(t *testing.T) {
	hostile := "'; DROP TABLE roles; --"

	stmts := []queryir.Statement{
		queryir.Insert{Into: "roles", Fields: []string{"name"}, Values: []any{hostile}},
		queryir.Update{
			Table:  "roles",
			Set:    []queryir.Set{{Column: "description", Value: hostile}},
			Filter: queryir.Eq("name", ir.String(hostile)),
		},
		queryir.Delete{From: "roles", Filter: queryir.Compare{Field: "name", Op: queryir.OpLike, Value: ir.String(hostile)}},
		queryir.Select{From: "roles", Filter: queryir.Between{Field: "name", Low: ir.String(hostile), High: ir.String(hostile)}},
	}

	for _, stmt := range stmts {
		sql, params, err := NewSQLCompiler().Compile(stmt)
		require.NoError(t, err)
		assert.NotContains(t, sql, "DROP")
		assert.Contains(t, params, hostile)
	}
}

func TestQuoteIdent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"roles", `"roles"`},
		{"first name", `"first name"`},
		{`we"ird`, `"we""ird"`},
		{`x"; DROP TABLE roles; --`, `"x""; DROP TABLE roles; --"`},
	}
	for _, tt := range tests {
		got, err := QuoteIdent(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := QuoteIdent("")
	assert.Error(t, err)
	_, err = QuoteIdent("a\x00b")
	assert.Error(t, err)
}

func TestCompile_CreateTable(t *testing.T) {
	stmt := queryir.CreateTable{
		Name: "inson",
		Columns: []queryir.ColumnDef{
			{Name: "id", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
			{Name: "familya", Type: "TEXT", NotNull: true},
			{Name: "boyi", Type: "INTEGER"},
			{Name: "saqlangan_vaqt", Type: "TIMESTAMP", Default: queryir.DefaultTimestamp},
		},
		IfNotExists: true,
	}

	sql, params, err := NewSQLCompiler().Compile(stmt)
	require.NoError(t, err)
	assert.Nil(t, params)
	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "inson" (
    "id" INTEGER PRIMARY KEY AUTOINCREMENT,
    "familya" TEXT NOT NULL,
    "boyi" INTEGER,
    "saqlangan_vaqt" TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`, sql)
}

func TestCompile_CreateTableRejectsRawSQL(t *testing.T) {
	badType := queryir.CreateTable{Name: "t", Columns: []queryir.ColumnDef{{Name: "a", Type: "TEXT); DROP TABLE roles; --"}}}
	_, _, err := NewSQLCompiler().Compile(badType)
	assert.Error(t, err)

	badDefault := queryir.CreateTable{Name: "t", Columns: []queryir.ColumnDef{{Name: "a", Type: "TEXT", Default: "1); DROP TABLE roles; --"}}}
	_, _, err = NewSQLCompiler().Compile(badDefault)
	assert.Error(t, err)

	_, _, err = NewSQLCompiler().Compile(queryir.CreateTable{Name: "t"})
	assert.Error(t, err)
}

func TestCompile_NilAndUnknown(t *testing.T) {
	_, _, err := NewSQLCompiler().Compile(nil)
	assert.Error(t, err)
}

func TestToParam(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{nil, nil},
		{ir.Null{}, nil},
		{ir.String("a"), "a"},
		{ir.Int(3), int64(3)},
		{ir.Float(1.5), 1.5},
		{"raw", "raw"},
		{7, int64(7)},
	}
	for _, tt := range tests {
		got, err := toParam(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := toParam(struct{}{})
	assert.Error(t, err)
}
