package queryir

import (
	"fmt"
	"slices"
)

// ValidationResult lists every problem found in a statement.
type ValidationResult struct {
	// IsValid is true when UnknownFields and Problems are both empty.
	IsValid bool

	// UnknownFields lists referenced columns absent from the column list,
	// in first-reference order without duplicates.
	UnknownFields []string

	// Problems lists structural issues (bad operators, NULL ordering, ...).
	Problems []string
}

// Fields returns the columns referenced by a predicate, in first-reference
// order without duplicates. A nil predicate references nothing.
func Fields(p Predicate) []string {
	seen := map[string]bool{}
	var out []string
	walkFields(p, func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	})
	return out
}

func walkFields(p Predicate, visit func(string)) {
	switch pred := p.(type) {
	case nil:
	case Compare:
		visit(pred.Field)
	case *Compare:
		visit(pred.Field)
	case Between:
		visit(pred.Field)
	case *Between:
		visit(pred.Field)
	case IsNull:
		visit(pred.Field)
	case *IsNull:
		visit(pred.Field)
	case And:
		for _, sub := range pred.Predicates {
			walkFields(sub, visit)
		}
	case *And:
		walkFields(*pred, visit)
	case Or:
		for _, sub := range pred.Predicates {
			walkFields(sub, visit)
		}
	case *Or:
		walkFields(*pred, visit)
	case Not:
		walkFields(pred.Predicate, visit)
	case *Not:
		walkFields(pred.Predicate, visit)
	}
}

// Validate checks every column a statement references against columns, the
// live column list of its table. It accumulates all problems instead of
// stopping at the first one.
//
// Validate is a pure function with no side effects. CreateTable is checked
// for well-formed definitions only, since its table does not exist yet.
func Validate(stmt Statement, columns []string) ValidationResult {
	v := &validator{columns: columns, seen: map[string]bool{}}
	v.validateStatement(stmt)

	return ValidationResult{
		IsValid:       len(v.unknown) == 0 && len(v.problems) == 0,
		UnknownFields: v.unknown,
		Problems:      v.problems,
	}
}

// validator accumulates findings during traversal.
type validator struct {
	columns  []string
	seen     map[string]bool
	unknown  []string
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) checkField(name string) {
	if name == "" {
		v.addProblem("empty field name")
		return
	}
	if slices.Contains(v.columns, name) || v.seen[name] {
		return
	}
	v.seen[name] = true
	v.unknown = append(v.unknown, name)
}

func (v *validator) validateStatement(s Statement) {
	switch stmt := s.(type) {
	case nil:
		v.addProblem("nil statement")
	case Select:
		for _, c := range stmt.Columns {
			v.checkField(c)
		}
		v.validatePredicate(stmt.Filter)
		for _, c := range stmt.OrderBy {
			v.checkField(c)
		}
		for _, c := range stmt.AsText {
			v.checkField(c)
		}
	case *Select:
		v.validateStatement(*stmt)
	case Insert:
		if len(stmt.Fields) != len(stmt.Values) {
			v.addProblem("insert has %d fields but %d values", len(stmt.Fields), len(stmt.Values))
		}
		for _, f := range stmt.Fields {
			v.checkField(f)
		}
	case *Insert:
		v.validateStatement(*stmt)
	case Update:
		if len(stmt.Set) == 0 {
			v.addProblem("update has no assignments")
		}
		for _, set := range stmt.Set {
			v.checkField(set.Column)
		}
		v.validatePredicate(stmt.Filter)
	case *Update:
		v.validateStatement(*stmt)
	case Delete:
		v.validatePredicate(stmt.Filter)
	case *Delete:
		v.validateStatement(*stmt)
	case Count:
		v.validatePredicate(stmt.Filter)
	case *Count:
		v.validateStatement(*stmt)
	case CreateTable:
		v.validateCreate(stmt)
	case *CreateTable:
		v.validateStatement(*stmt)
	default:
		v.addProblem("unknown statement type: %T", s)
	}
}

func (v *validator) validateCreate(ct CreateTable) {
	if len(ct.Columns) == 0 {
		v.addProblem("table %q has no columns", ct.Name)
	}
	names := map[string]bool{}
	for _, col := range ct.Columns {
		if col.Name == "" {
			v.addProblem("empty column name in table %q", ct.Name)
		}
		if names[col.Name] {
			v.addProblem("duplicate column %q", col.Name)
		}
		names[col.Name] = true
		if !ValidType(col.Type) {
			v.addProblem("column %q has unsupported type %q", col.Name, col.Type)
		}
		if col.AutoIncrement && (!col.PrimaryKey || col.Type != "INTEGER") {
			v.addProblem("column %q: AUTOINCREMENT requires INTEGER PRIMARY KEY", col.Name)
		}
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		// nil predicates are valid (no filter)
	case Compare:
		v.checkField(pred.Field)
		if !pred.Op.Valid() {
			v.addProblem("unsupported operator %q", pred.Op)
		}
		if isNull(pred.Value) && pred.Op != OpEq && pred.Op != OpNe {
			v.addProblem("field %q compared to NULL with %s", pred.Field, pred.Op)
		}
	case *Compare:
		v.validatePredicate(*pred)
	case Between:
		v.checkField(pred.Field)
		if isNull(pred.Low) || isNull(pred.High) {
			v.addProblem("field %q: BETWEEN bounds cannot be NULL", pred.Field)
		}
	case *Between:
		v.validatePredicate(*pred)
	case IsNull:
		v.checkField(pred.Field)
	case *IsNull:
		v.validatePredicate(*pred)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case *And:
		v.validatePredicate(*pred)
	case Or:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case *Or:
		v.validatePredicate(*pred)
	case Not:
		if pred.Predicate == nil {
			v.addProblem("NOT without operand")
		}
		v.validatePredicate(pred.Predicate)
	case *Not:
		v.validatePredicate(*pred)
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}
