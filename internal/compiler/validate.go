package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/tabledesk/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedIRType = "E100" // unsupported IR type for validation

	// EntityProfile errors (E101-E109)
	ErrProfileTableEmpty  = "E101" // table is required
	ErrProfileNoColumns   = "E102" // at least one column required
	ErrInvalidIdentifier  = "E103" // table or column name is not a plain identifier
	ErrInvalidFieldType   = "E104" // invalid column type
	ErrDuplicateName      = "E105" // duplicate column name
	ErrInvalidStamp       = "E106" // stamp column missing or not a time column
	ErrInvalidRange       = "E107" // min/max misuse
	ErrInvalidEnum        = "E108" // enum misuse
	ErrInvalidFormat      = "E109" // unknown format or format on wrong type
	ErrUnknownSearchField = "E110" // search names a column the profile lacks
	ErrReservedColumn     = "E111" // column collides with the generated id
)

// Formats accepted on TEXT/DATE/TIMESTAMP columns.
const (
	FormatDate     = "date"     // YYYY-MM-DD
	FormatDateTime = "datetime" // YYYY-MM-DD HH:MM:SS
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates a compiled profile.
// Returns all errors found (does not fail-fast).
func Validate(v any) []ValidationError {
	switch p := v.(type) {
	case *ir.EntityProfile:
		return validateProfile(p)
	case ir.EntityProfile:
		return validateProfile(&p)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

var identPattern = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_]*$`)

func validateProfile(p *ir.EntityProfile) []ValidationError {
	var errs []ValidationError

	// E101: table is required
	switch {
	case strings.TrimSpace(p.Table) == "":
		errs = append(errs, ValidationError{
			Field:   "table",
			Message: "table is required and must be non-empty",
			Code:    ErrProfileTableEmpty,
		})
	case !identPattern.MatchString(p.Table):
		errs = append(errs, ValidationError{
			Field:   "table",
			Message: fmt.Sprintf("table %q is not a plain identifier", p.Table),
			Code:    ErrInvalidIdentifier,
		})
	case strings.HasPrefix(strings.ToLower(p.Table), "sqlite_"):
		errs = append(errs, ValidationError{
			Field:   "table",
			Message: fmt.Sprintf("table %q uses the reserved sqlite_ prefix", p.Table),
			Code:    ErrInvalidIdentifier,
		})
	}

	// E102: at least one column besides the stamp
	if len(p.FieldNames()) == 0 {
		errs = append(errs, ValidationError{
			Field:   "columns",
			Message: "at least one column besides the stamp is required",
			Code:    ErrProfileNoColumns,
		})
	}

	seen := make(map[string]bool)
	for i, f := range p.Fields {
		path := fmt.Sprintf("columns[%d]", i)

		if !identPattern.MatchString(f.Name) {
			errs = append(errs, ValidationError{
				Field:   path + ".name",
				Message: fmt.Sprintf("column %q is not a plain identifier", f.Name),
				Code:    ErrInvalidIdentifier,
			})
		}
		if strings.EqualFold(f.Name, "id") {
			errs = append(errs, ValidationError{
				Field:   path + ".name",
				Message: "id is generated for every profile table",
				Code:    ErrReservedColumn,
			})
		}

		// E105: duplicate column name (SQLite names are case-insensitive)
		key := strings.ToLower(f.Name)
		if seen[key] {
			errs = append(errs, ValidationError{
				Field:   path + ".name",
				Message: fmt.Sprintf("duplicate column name: %q", f.Name),
				Code:    ErrDuplicateName,
			})
		}
		seen[key] = true

		errs = append(errs, validateField(f, path)...)
	}

	// E106: stamp must name a time-like column
	if p.Stamp != "" {
		f, ok := p.Field(p.Stamp)
		switch {
		case !ok:
			errs = append(errs, ValidationError{
				Field:   "stamp",
				Message: fmt.Sprintf("stamp column %q is not declared in columns", p.Stamp),
				Code:    ErrInvalidStamp,
			})
		case f.Type != ir.TypeTimestamp && f.Type != ir.TypeText:
			errs = append(errs, ValidationError{
				Field:   "stamp",
				Message: fmt.Sprintf("stamp column %q must be TIMESTAMP or TEXT, got %s", p.Stamp, f.Type),
				Code:    ErrInvalidStamp,
			})
		}
	}

	// E110: search fields must be declared
	for i, name := range p.Search {
		if _, ok := p.Field(name); !ok {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("search[%d]", i),
				Message: fmt.Sprintf("search field %q is not a declared column", name),
				Code:    ErrUnknownSearchField,
			})
		}
	}

	return errs
}

// validateField checks one column's type and value constraints.
func validateField(f ir.FieldSpec, path string) []ValidationError {
	var errs []ValidationError

	// E104: invalid type
	if !isValidType(f.Type) {
		errs = append(errs, ValidationError{
			Field:   path + ".type",
			Message: fmt.Sprintf("invalid type %q for %s (valid: TEXT, INTEGER, REAL, DATE, TIMESTAMP)", f.Type, f.Name),
			Code:    ErrInvalidFieldType,
		})
	}

	// E107: min/max only on numeric columns, min <= max
	if (f.Min != nil || f.Max != nil) && !f.IsNumeric() {
		errs = append(errs, ValidationError{
			Field:   path,
			Message: fmt.Sprintf("min/max require an INTEGER or REAL column, %s is %s", f.Name, f.Type),
			Code:    ErrInvalidRange,
		})
	}
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		errs = append(errs, ValidationError{
			Field:   path,
			Message: fmt.Sprintf("min %v is greater than max %v", *f.Min, *f.Max),
			Code:    ErrInvalidRange,
		})
	}

	// E108: enum only on text columns, no blanks or repeats
	if len(f.Enum) > 0 {
		if f.Type != ir.TypeText {
			errs = append(errs, ValidationError{
				Field:   path + ".enum",
				Message: fmt.Sprintf("enum requires a TEXT column, %s is %s", f.Name, f.Type),
				Code:    ErrInvalidEnum,
			})
		}
		seen := make(map[string]bool)
		for _, e := range f.Enum {
			if strings.TrimSpace(e) == "" || seen[e] {
				errs = append(errs, ValidationError{
					Field:   path + ".enum",
					Message: fmt.Sprintf("enum entries must be unique and non-empty, got %q", e),
					Code:    ErrInvalidEnum,
				})
			}
			seen[e] = true
		}
	}

	// E109: format
	switch f.Format {
	case "":
	case FormatDate, FormatDateTime:
		if f.IsNumeric() {
			errs = append(errs, ValidationError{
				Field:   path + ".format",
				Message: fmt.Sprintf("format %q cannot apply to %s column %s", f.Format, f.Type, f.Name),
				Code:    ErrInvalidFormat,
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   path + ".format",
			Message: fmt.Sprintf("unknown format %q (valid: date, datetime)", f.Format),
			Code:    ErrInvalidFormat,
		})
	}

	return errs
}

// isValidType checks if a type string is a valid profile column type.
func isValidType(t string) bool {
	switch t {
	case ir.TypeText, ir.TypeInteger, ir.TypeReal, ir.TypeDate, ir.TypeTimestamp:
		return true
	default:
		return false
	}
}
