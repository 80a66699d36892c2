package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabledesk/internal/ir"
	"github.com/roach88/tabledesk/internal/queryir"
)

var rolesColumns = []string{"id", "name", "description"}

func TestBuildInsert_Subset(t *testing.T) {
	stmt, err := BuildInsert("roles", rolesColumns, []string{"name", " description "}, []string{"admin", "full access"})
	require.NoError(t, err)

	assert.Equal(t, queryir.Insert{
		Into:   "roles",
		Fields: []string{"name", "description"},
		Values: []any{"admin", "full access"},
	}, stmt)
}

func TestBuildInsert_Errors(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		fields  []string
		values  []string
		code    ErrorCode
		fields0 []string
	}{
		{
			name:    "arity checked before schema",
			columns: rolesColumns,
			fields:  []string{"nope", "name"},
			values:  []string{"x"},
			code:    ErrCodeArityMismatch,
		},
		{
			name:    "empty field set",
			columns: rolesColumns,
			code:    ErrCodeEmptyFieldSet,
		},
		{
			name:    "duplicate field",
			columns: rolesColumns,
			fields:  []string{"name", "name "},
			values:  []string{"a", "b"},
			code:    ErrCodeDuplicateField,
			fields0: []string{"name"},
		},
		{
			name:    "unknown field",
			columns: rolesColumns,
			fields:  []string{"name", "title", "owner"},
			values:  []string{"a", "b", "c"},
			code:    ErrCodeSchemaMismatch,
			fields0: []string{"title", "owner"},
		},
		{
			name:    "blank field",
			columns: rolesColumns,
			fields:  []string{"  "},
			values:  []string{"a"},
			code:    ErrCodeSchemaMismatch,
			fields0: []string{""},
		},
		{
			name:    "empty column list rejects every field",
			columns: []string{},
			fields:  []string{"name"},
			values:  []string{"a"},
			code:    ErrCodeSchemaMismatch,
			fields0: []string{"name"},
		},
		{
			name:    "case sensitive names",
			columns: rolesColumns,
			fields:  []string{"Name"},
			values:  []string{"a"},
			code:    ErrCodeSchemaMismatch,
			fields0: []string{"Name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildInsert("roles", tt.columns, tt.fields, tt.values)
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err))
			assert.True(t, IsValidationError(err))

			if tt.fields0 != nil {
				var ee *Error
				require.ErrorAs(t, err, &ee)
				assert.Equal(t, tt.fields0, ee.Fields)
			}
		})
	}
}

func TestBuildInsert_NormalizesValues(t *testing.T) {
	// "e" followed by a combining acute accent.
	stmt, err := BuildInsert("roles", rolesColumns, []string{"name"}, []string{"cafe\u0301"})
	require.NoError(t, err)
	assert.Equal(t, []any{"caf\u00e9"}, stmt.Values)
}

func TestBuildUpdate(t *testing.T) {
	pred := queryir.Eq("id", ir.Int(1))

	stmt, err := BuildUpdate("roles", rolesColumns, []ir.Assignment{{Column: "description", Value: "x"}}, pred)
	require.NoError(t, err)
	assert.Equal(t, queryir.Update{
		Table:  "roles",
		Set:    []queryir.Set{{Column: "description", Value: "x"}},
		Filter: pred,
	}, stmt)
}

func TestBuildUpdate_Errors(t *testing.T) {
	set := []ir.Assignment{{Column: "description", Value: "x"}}
	idIs1 := queryir.Eq("id", ir.Int(1))

	tests := []struct {
		name string
		sets []ir.Assignment
		pred queryir.Predicate
		code ErrorCode
	}{
		{"no assignments", nil, idIs1, ErrCodeEmptyFieldSet},
		{"no predicate", set, nil, ErrCodeMissingPredicate},
		{"unknown target", []ir.Assignment{{Column: "title", Value: "x"}}, idIs1, ErrCodeSchemaMismatch},
		{"unknown predicate field", set, queryir.Eq("owner", ir.String("a")), ErrCodeSchemaMismatch},
		{"duplicate target", []ir.Assignment{{Column: "name", Value: "a"}, {Column: "name", Value: "b"}}, idIs1, ErrCodeDuplicateField},
		{"bad predicate", set, queryir.Compare{Field: "id", Op: queryir.OpLt, Value: ir.Null{}}, ErrCodeInvalidPredicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildUpdate("roles", rolesColumns, tt.sets, tt.pred)
			assert.Equal(t, tt.code, CodeOf(err))
		})
	}
}

func TestBuildDelete(t *testing.T) {
	_, err := BuildDelete("roles", rolesColumns, nil)
	assert.Equal(t, ErrCodeMissingPredicate, CodeOf(err))

	_, err = BuildDelete("roles", rolesColumns, queryir.Eq("nope", ir.Int(1)))
	assert.True(t, IsSchemaMismatch(err))

	stmt, err := BuildDelete("roles", rolesColumns, queryir.Eq("id", ir.Int(1)))
	require.NoError(t, err)
	assert.Equal(t, "roles", stmt.From)
}

func TestBuildSelect_DefaultsToPrimaryKeyOrder(t *testing.T) {
	tbl := &ir.Table{Name: "roles", Columns: []ir.Column{
		{Name: "id", PrimaryKey: 1},
		{Name: "name"},
	}}

	stmt, err := BuildSelect(tbl, nil, SelectOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, stmt.OrderBy)

	stmt, err = BuildSelect(tbl, nil, SelectOptions{OrderBy: []string{"name"}, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, stmt.OrderBy)
	assert.Equal(t, 5, stmt.Limit)

	_, err = BuildSelect(tbl, nil, SelectOptions{Columns: []string{"secret"}})
	assert.True(t, IsSchemaMismatch(err))
}

func TestBuildSelect_TimeColumnsAsText(t *testing.T) {
	tbl := &ir.Table{Name: "users", Columns: []ir.Column{
		{Name: "id", Type: "INTEGER", PrimaryKey: 1},
		{Name: "username", Type: "TEXT"},
		{Name: "created_at", Type: "TIMESTAMP"},
		{Name: "born", Type: "date"},
	}}

	stmt, err := BuildSelect(tbl, nil, SelectOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "username", "created_at", "born"}, stmt.Columns)
	assert.Equal(t, []string{"created_at", "born"}, stmt.AsText)

	stmt, err = BuildSelect(tbl, nil, SelectOptions{Columns: []string{"username", "born"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"born"}, stmt.AsText)

	roles := &ir.Table{Name: "roles", Columns: []ir.Column{{Name: "id", Type: "INTEGER"}, {Name: "name", Type: "TEXT"}}}
	stmt, err = BuildSelect(roles, nil, SelectOptions{})
	require.NoError(t, err)
	assert.Nil(t, stmt.Columns)
	assert.Nil(t, stmt.AsText)
}

func TestIsTimeType(t *testing.T) {
	for _, typ := range []string{"DATE", "datetime", " Timestamp ", "TIME", "TIMESTAMP(3)"} {
		assert.True(t, isTimeType(typ), typ)
	}
	for _, typ := range []string{"", "TEXT", "INTEGER", "DATETEXT"} {
		assert.False(t, isTimeType(typ), typ)
	}
}

func TestBuildCount(t *testing.T) {
	_, err := BuildCount("roles", rolesColumns, nil)
	require.NoError(t, err)

	_, err = BuildCount("roles", rolesColumns, queryir.IsNull{Field: "nope"})
	assert.True(t, IsSchemaMismatch(err))
}
