package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tabledesk/internal/ir"
)

// CompileProfile parses a CUE value into an EntityProfile.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the profile struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`profile: student: { table: "student", columns: {...} }`)
//	p, err := CompileProfile(v.LookupPath(cue.ParsePath("profile.student")))
//
// CompileProfile only checks shape. Semantic checks (types, ranges, search
// fields) belong to Validate.
func CompileProfile(v cue.Value) (*ir.EntityProfile, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if !v.Exists() {
		return nil, &CompileError{
			Field:   "profile",
			Message: "profile does not exist",
			Pos:     v.Pos(),
		}
	}

	p := &ir.EntityProfile{}

	// Profile name from struct label (the path selector)
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		p.Name = labels[len(labels)-1].String()
	}

	table, err := lookupString(v, "table")
	if err != nil {
		return nil, err
	}
	if table == "" {
		// Table defaults to the profile name.
		table = p.Name
	}
	p.Table = table

	if p.Description, err = lookupString(v, "description"); err != nil {
		return nil, err
	}
	if p.Stamp, err = lookupString(v, "stamp"); err != nil {
		return nil, err
	}

	p.Fields, err = parseColumns(v)
	if err != nil {
		return nil, err
	}
	if len(p.Fields) == 0 {
		return nil, &CompileError{
			Field:   "columns",
			Message: "at least one column is required",
			Pos:     v.Pos(),
		}
	}

	p.Search, err = lookupStrings(v, "search")
	if err != nil {
		return nil, err
	}

	return p, nil
}

// parseColumns extracts column definitions in declaration order.
func parseColumns(v cue.Value) ([]ir.FieldSpec, error) {
	var fields []ir.FieldSpec

	colsVal := v.LookupPath(cue.ParsePath("columns"))
	if !colsVal.Exists() {
		return fields, nil
	}

	iter, err := colsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		name := iter.Label()
		col := iter.Value()

		// Shorthand: `name: "TEXT"`.
		if s, err := col.String(); err == nil {
			fields = append(fields, ir.FieldSpec{Name: name, Type: s})
			continue
		}
		if col.IncompleteKind() != cue.StructKind {
			return nil, &CompileError{
				Field:   fmt.Sprintf("columns.%s", name),
				Message: "column must be a type string or a struct",
				Pos:     col.Pos(),
			}
		}

		f := ir.FieldSpec{Name: name}
		typeVal := col.LookupPath(cue.ParsePath("type"))
		if !typeVal.Exists() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("columns.%s.type", name),
				Message: "column type is required",
				Pos:     col.Pos(),
			}
		}
		if f.Type, err = typeVal.String(); err != nil {
			return nil, formatCUEError(err)
		}

		if reqVal := col.LookupPath(cue.ParsePath("required")); reqVal.Exists() {
			if f.Required, err = reqVal.Bool(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if f.Format, err = lookupString(col, "format"); err != nil {
			return nil, err
		}
		if f.Label, err = lookupString(col, "label"); err != nil {
			return nil, err
		}
		if f.Min, err = lookupNumber(col, "min"); err != nil {
			return nil, err
		}
		if f.Max, err = lookupNumber(col, "max"); err != nil {
			return nil, err
		}
		if f.Enum, err = lookupStrings(col, "enum"); err != nil {
			return nil, err
		}

		fields = append(fields, f)
	}

	return fields, nil
}

// lookupString returns the string at path, or "" when absent.
func lookupString(v cue.Value, path string) (string, error) {
	val := v.LookupPath(cue.ParsePath(path))
	if !val.Exists() {
		return "", nil
	}
	s, err := val.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// lookupStrings returns the list of strings at path, or nil when absent.
func lookupStrings(v cue.Value, path string) ([]string, error) {
	val := v.LookupPath(cue.ParsePath(path))
	if !val.Exists() {
		return nil, nil
	}
	iter, err := val.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// lookupNumber returns the number at path, or nil when absent.
// Both int and float literals are accepted.
func lookupNumber(v cue.Value, path string) (*float64, error) {
	val := v.LookupPath(cue.ParsePath(path))
	if !val.Exists() {
		return nil, nil
	}
	switch val.IncompleteKind() {
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
	default:
		return nil, &CompileError{
			Field:   path,
			Message: fmt.Sprintf("must be a number, got %v", val.IncompleteKind()),
			Pos:     val.Pos(),
		}
	}
	n, err := val.Float64()
	if err != nil {
		return nil, formatCUEError(err)
	}
	return &n, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
