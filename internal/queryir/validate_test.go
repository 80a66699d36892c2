package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabledesk/internal/ir"
)

var rolesColumns = []string{"id", "name", "description"}

func TestValidate_ValidStatements(t *testing.T) {
	tests := []struct {
		name string
		stmt Statement
	}{
		{"select all", Select{From: "roles"}},
		{"select filtered", &Select{From: "roles", Columns: []string{"name"}, Filter: Eq("id", ir.Int(1)), OrderBy: []string{"id"}}},
		{"insert", Insert{Into: "roles", Fields: []string{"name", "description"}, Values: []any{"admin", "full access"}}},
		{"update", Update{Table: "roles", Set: []Set{{Column: "description", Value: "x"}}, Filter: Eq("id", ir.Int(1))}},
		{"delete", Delete{From: "roles", Filter: Eq("id", ir.Int(1))}},
		{"count", Count{From: "roles"}},
		{"null equality", Delete{From: "roles", Filter: Eq("description", ir.Null{})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.stmt, rolesColumns)
			assert.True(t, result.IsValid, "problems: %v unknown: %v", result.Problems, result.UnknownFields)
		})
	}
}

func TestValidate_AccumulatesUnknownFields(t *testing.T) {
	stmt := Update{
		Table: "roles",
		Set:   []Set{{Column: "title", Value: "x"}, {Column: "name", Value: "y"}},
		Filter: And{Predicates: []Predicate{
			Eq("owner", ir.String("a")),
			Eq("title", ir.String("b")),
		}},
	}

	result := Validate(stmt, rolesColumns)

	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"title", "owner"}, result.UnknownFields)
	assert.Empty(t, result.Problems)
}

func TestValidate_EmptyColumnListRejectsEveryField(t *testing.T) {
	result := Validate(Insert{Into: "no_such_table", Fields: []string{"a"}, Values: []any{"1"}}, nil)

	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"a"}, result.UnknownFields)
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name    string
		stmt    Statement
		problem string
	}{
		{"nil statement", nil, "nil statement"},
		{"arity", Insert{Into: "roles", Fields: []string{"name"}, Values: []any{"a", "b"}}, "1 fields but 2 values"},
		{"no assignments", Update{Table: "roles", Filter: Eq("id", ir.Int(1))}, "no assignments"},
		{"bad operator", Delete{From: "roles", Filter: Compare{Field: "id", Op: "~", Value: ir.Int(1)}}, "unsupported operator"},
		{"null ordering", Delete{From: "roles", Filter: Compare{Field: "id", Op: OpLt, Value: ir.Null{}}}, "compared to NULL"},
		{"null bounds", Count{From: "roles", Filter: Between{Field: "id", Low: ir.Null{}, High: ir.Int(2)}}, "cannot be NULL"},
		{"empty not", Count{From: "roles", Filter: Not{}}, "NOT without operand"},
		{"empty field", Count{From: "roles", Filter: IsNull{}}, "empty field name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.stmt, rolesColumns)
			assert.False(t, result.IsValid)
			require.NotEmpty(t, result.Problems)
			assert.Contains(t, result.Problems[0], tt.problem)
		})
	}
}

func TestValidate_CreateTable(t *testing.T) {
	valid := CreateTable{
		Name: "inson",
		Columns: []ColumnDef{
			{Name: "id", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
			{Name: "familya", Type: "TEXT", NotNull: true},
			{Name: "saqlangan_vaqt", Type: "TIMESTAMP", Default: DefaultTimestamp},
		},
		IfNotExists: true,
	}
	assert.True(t, Validate(valid, nil).IsValid)

	invalid := CreateTable{
		Name: "inson",
		Columns: []ColumnDef{
			{Name: "id", Type: "TEXT", AutoIncrement: true},
			{Name: "id", Type: "VARCHAR(10)"},
		},
	}
	result := Validate(invalid, nil)
	assert.False(t, result.IsValid)
	assert.Len(t, result.Problems, 3)
}
