package entity

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/tabledesk/internal/compiler"
	"github.com/roach88/tabledesk/internal/engine"
	"github.com/roach88/tabledesk/internal/ir"
)

// StampLayout is the text layout of stamp values. It matches SQLite's
// CURRENT_TIMESTAMP so defaulted and explicit stamps sort together.
const StampLayout = time.DateTime

// checkValues validates raw input against the profile and returns the fields
// and normalized values to write, in profile order.
//
// With partial set (updates), absent fields are left alone and blank optional
// fields are skipped. Otherwise every required field must be present.
func (e *Entity) checkValues(raw map[string]string, partial bool) ([]string, []string, error) {
	table := e.profile.Table

	var unknown []string
	for name := range raw {
		if _, ok := e.profile.Field(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return nil, nil, engine.NewSchemaMismatch(table, unknown)
	}
	if _, ok := raw[e.profile.Stamp]; ok && e.profile.Stamp != "" {
		return nil, nil, engine.NewInvalidValue(table, e.profile.Stamp, "is set automatically")
	}

	var fields, values []string
	for _, f := range e.profile.Fields {
		if f.Name == e.profile.Stamp {
			continue
		}
		v, present := raw[f.Name]
		v = trimNFC(v)
		if v == "" {
			if f.Required && (!partial || present) {
				return nil, nil, engine.NewInvalidValue(table, f.Name, "is required")
			}
			continue
		}

		val, err := parseField(f, v)
		if err != nil {
			return nil, nil, engine.NewInvalidValue(table, f.Name, err.Error())
		}
		fields = append(fields, f.Name)
		values = append(values, ir.Format(val))
	}

	if len(fields) == 0 {
		return nil, nil, engine.NewEmptyFieldSet(table)
	}
	return fields, values, nil
}

// parseField converts one non-blank raw value to its typed form and applies
// the field's checks.
func parseField(f ir.FieldSpec, raw string) (ir.Value, error) {
	var val ir.Value
	switch f.Type {
	case ir.TypeInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a whole number", raw)
		}
		val = ir.Int(n)
	case ir.TypeReal:
		x, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", raw)
		}
		val = ir.Float(x)
	case ir.TypeDate:
		if _, err := time.Parse(time.DateOnly, raw); err != nil {
			return nil, fmt.Errorf("%q is not a date (YYYY-MM-DD)", raw)
		}
		val = ir.String(raw)
	case ir.TypeTimestamp:
		if _, err := time.Parse(StampLayout, raw); err != nil {
			return nil, fmt.Errorf("%q is not a timestamp (YYYY-MM-DD HH:MM:SS)", raw)
		}
		val = ir.String(raw)
	default:
		val = ir.String(raw)
	}

	switch f.Format {
	case compiler.FormatDate:
		if _, err := time.Parse(time.DateOnly, raw); err != nil {
			return nil, fmt.Errorf("%q is not a date (YYYY-MM-DD)", raw)
		}
	case compiler.FormatDateTime:
		if _, err := time.Parse(StampLayout, raw); err != nil {
			return nil, fmt.Errorf("%q is not a timestamp (YYYY-MM-DD HH:MM:SS)", raw)
		}
	}

	if f.IsNumeric() {
		x := numberOf(val)
		if f.Min != nil && x < *f.Min {
			return nil, fmt.Errorf("%s is below the minimum %v", raw, *f.Min)
		}
		if f.Max != nil && x > *f.Max {
			return nil, fmt.Errorf("%s is above the maximum %v", raw, *f.Max)
		}
	}

	if len(f.Enum) > 0 && !slices.Contains(f.Enum, raw) {
		return nil, fmt.Errorf("%q is not one of %s", raw, strings.Join(f.Enum, ", "))
	}

	return val, nil
}

func numberOf(v ir.Value) float64 {
	switch n := v.(type) {
	case ir.Int:
		return float64(n)
	case ir.Float:
		return float64(n)
	}
	return 0
}

func trimNFC(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
