package ir

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Value is a sealed interface over the cell types SQLite can return.
// Only Null, String, Int, Float, and Bool implement it.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null is SQL NULL.
// Using an explicit type keeps every cell a non-nil Value.
type Null struct{}

func (Null) irValue() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String is a TEXT value.
type String string

func (String) irValue() {}

// Int is an INTEGER value.
type Int int64

func (Int) irValue() {}

// Float is a REAL value.
type Float float64

func (Float) irValue() {}

// Bool is a boolean literal. SQLite stores it as 0/1; it only appears in predicates.
type Bool bool

func (Bool) irValue() {}

// Native converts a Value to the Go type database/sql binds as a parameter.
func Native(v Value) any {
	switch val := v.(type) {
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	default:
		return nil
	}
}

// Format renders a Value for console display.
// NULL renders as "NULL" so it is distinguishable from an empty string.
func Format(v Value) string {
	switch val := v.(type) {
	case String:
		return string(val)
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(val))
	default:
		return "NULL"
	}
}

// Literal renders a Value as SQL-like literal text for diagnostics.
// Never used to build executable statements.
func Literal(v Value) string {
	switch val := v.(type) {
	case String:
		return "'" + strings.ReplaceAll(string(val), "'", "''") + "'"
	case Null:
		return "NULL"
	default:
		return Format(v)
	}
}

// FromDriver converts a value scanned by database/sql into a Value.
// declType is the column's declared type; it selects the text layout for
// time.Time values the driver produced from DATE/DATETIME/TIMESTAMP columns.
func FromDriver(src any, declType string) Value {
	switch val := src.(type) {
	case nil:
		return Null{}
	case int64:
		return Int(val)
	case int:
		return Int(int64(val))
	case float64:
		return Float(val)
	case bool:
		if val {
			return Int(1)
		}
		return Int(0)
	case []byte:
		return String(string(val))
	case string:
		return String(val)
	case time.Time:
		return String(formatTime(val, declType))
	default:
		return String(fmt.Sprint(val))
	}
}

// formatTime picks the shortest layout that keeps every part of t: a DATE
// at midnight UTC is a bare date, whole UTC seconds use DateTime, anything
// with a fraction or an offset uses RFC 3339.
func formatTime(t time.Time, declType string) string {
	_, offset := t.Zone()
	utc := offset == 0
	if utc && t.Nanosecond() == 0 {
		h, m, sec := t.Clock()
		if h == 0 && m == 0 && sec == 0 && strings.EqualFold(strings.TrimSpace(declType), "DATE") {
			return t.Format(time.DateOnly)
		}
		return t.Format(time.DateTime)
	}
	return t.Format(time.RFC3339Nano)
}

// FromAny converts a plain Go value (as produced by YAML or JSON decoding)
// into a Value. Unsupported types are rendered with fmt.Sprint.
func FromAny(v any) Value {
	switch val := v.(type) {
	case nil:
		return Null{}
	case Value:
		return val
	case string:
		return String(val)
	case int:
		return Int(int64(val))
	case int64:
		return Int(val)
	case uint64:
		return Int(int64(val))
	case float64:
		if val == float64(int64(val)) {
			return Int(int64(val))
		}
		return Float(val)
	case bool:
		return Bool(val)
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return Int(n)
		}
		f, _ := val.Float64()
		return Float(f)
	default:
		return String(fmt.Sprint(val))
	}
}

// Equal compares two values loosely: numbers compare numerically, and a
// String compares equal to a number with the same display form. This mirrors
// SQLite's type affinity, where "1" written to an INTEGER column reads back as 1.
func Equal(a, b Value) bool {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}
	_, aNull := a.(Null)
	_, bNull := b.(Null)
	if aNull || bNull {
		return aNull && bNull
	}

	af, aNum := numeric(a)
	bf, bNum := numeric(b)
	if aNum && bNum {
		return af == bf
	}
	return Format(a) == Format(b)
}

func numeric(v Value) (float64, bool) {
	switch val := v.(type) {
	case Int:
		return float64(val), true
	case Float:
		return float64(val), true
	case Bool:
		if val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
