package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/tabledesk/internal/store"
)

// Error is the single error type returned by engine operations.
//
// Every code except ErrCodeStoreError is a validation error: it is produced
// before any statement is sent to the database.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Table is the table the operation targeted, if known.
	Table string

	// Fields lists the offending field names (unknown, duplicated, invalid).
	Fields []string

	// Kind classifies the driver failure for ErrCodeStoreError.
	Kind store.ErrorKind

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeSchemaMismatch indicates a field absent from the live column list.
	ErrCodeSchemaMismatch ErrorCode = "SCHEMA_MISMATCH"

	// ErrCodeArityMismatch indicates insert field and value counts differ.
	ErrCodeArityMismatch ErrorCode = "ARITY_MISMATCH"

	// ErrCodeEmptyFieldSet indicates a write with no fields.
	ErrCodeEmptyFieldSet ErrorCode = "EMPTY_FIELD_SET"

	// ErrCodeDuplicateField indicates the same field named twice in one write.
	ErrCodeDuplicateField ErrorCode = "DUPLICATE_FIELD"

	// ErrCodeTableNotFound indicates the catalog has no such table.
	ErrCodeTableNotFound ErrorCode = "TABLE_NOT_FOUND"

	// ErrCodeTableNotAllowed indicates a table outside the allow-list.
	ErrCodeTableNotAllowed ErrorCode = "TABLE_NOT_ALLOWED"

	// ErrCodeInvalidPredicate indicates a predicate that does not parse or
	// cannot be expressed.
	ErrCodeInvalidPredicate ErrorCode = "INVALID_PREDICATE"

	// ErrCodeMissingPredicate indicates an update or delete without a filter.
	ErrCodeMissingPredicate ErrorCode = "MISSING_PREDICATE"

	// ErrCodeInvalidValue indicates a value rejected by a profile validator.
	ErrCodeInvalidValue ErrorCode = "INVALID_VALUE"

	// ErrCodeStoreError indicates the database rejected the statement.
	ErrCodeStoreError ErrorCode = "STORE_ERROR"
)

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Table != "" {
		fmt.Fprintf(&sb, " (table=%s)", e.Table)
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

func hasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// IsSchemaMismatch returns true if err is a schema mismatch.
func IsSchemaMismatch(err error) bool { return hasCode(err, ErrCodeSchemaMismatch) }

// IsArityMismatch returns true if err is an arity mismatch.
func IsArityMismatch(err error) bool { return hasCode(err, ErrCodeArityMismatch) }

// IsTableNotFound returns true if err reports a missing table.
func IsTableNotFound(err error) bool { return hasCode(err, ErrCodeTableNotFound) }

// IsTableNotAllowed returns true if err reports a table outside the allow-list.
func IsTableNotAllowed(err error) bool { return hasCode(err, ErrCodeTableNotAllowed) }

// IsInvalidPredicate returns true if err reports a malformed predicate.
func IsInvalidPredicate(err error) bool { return hasCode(err, ErrCodeInvalidPredicate) }

// IsStoreError returns true if the database rejected the statement.
func IsStoreError(err error) bool { return hasCode(err, ErrCodeStoreError) }

// IsValidationError returns true for every engine error raised before the
// statement reached the database.
func IsValidationError(err error) bool {
	code := CodeOf(err)
	return code != "" && code != ErrCodeStoreError
}

// NewSchemaMismatch reports fields absent from the table.
func NewSchemaMismatch(table string, unknown []string) *Error {
	return &Error{
		Code:    ErrCodeSchemaMismatch,
		Message: fmt.Sprintf("unknown field(s): %s", strings.Join(unknown, ", ")),
		Table:   table,
		Fields:  unknown,
	}
}

// NewArityMismatch reports differing field and value counts.
func NewArityMismatch(table string, fields, values int) *Error {
	return &Error{
		Code:    ErrCodeArityMismatch,
		Message: fmt.Sprintf("%d field(s) but %d value(s)", fields, values),
		Table:   table,
	}
}

// NewEmptyFieldSet reports a write without fields.
func NewEmptyFieldSet(table string) *Error {
	return &Error{
		Code:    ErrCodeEmptyFieldSet,
		Message: "no fields given",
		Table:   table,
	}
}

// NewDuplicateField reports a field named more than once.
func NewDuplicateField(table, field string) *Error {
	return &Error{
		Code:    ErrCodeDuplicateField,
		Message: fmt.Sprintf("field %q given more than once", field),
		Table:   table,
		Fields:  []string{field},
	}
}

// NewTableNotFound reports a table missing from the catalog.
func NewTableNotFound(table string) *Error {
	return &Error{
		Code:    ErrCodeTableNotFound,
		Message: fmt.Sprintf("table %q does not exist", table),
		Table:   table,
	}
}

// NewTableNotAllowed reports a table outside the allow-list.
func NewTableNotAllowed(table string) *Error {
	return &Error{
		Code:    ErrCodeTableNotAllowed,
		Message: fmt.Sprintf("table %q is not in the allow-list", table),
		Table:   table,
	}
}

// NewInvalidPredicate reports a predicate that cannot be used.
func NewInvalidPredicate(table string, cause error) *Error {
	return &Error{
		Code:    ErrCodeInvalidPredicate,
		Message: cause.Error(),
		Table:   table,
		Err:     cause,
	}
}

// NewMissingPredicate reports an update or delete without a filter.
func NewMissingPredicate(table, op string) *Error {
	return &Error{
		Code:    ErrCodeMissingPredicate,
		Message: fmt.Sprintf("%s requires a predicate; use delete-all to clear a table", op),
		Table:   table,
	}
}

// NewInvalidValue reports a value rejected before reaching the database.
func NewInvalidValue(table, field, reason string) *Error {
	return &Error{
		Code:    ErrCodeInvalidValue,
		Message: fmt.Sprintf("%s: %s", field, reason),
		Table:   table,
		Fields:  []string{field},
	}
}

// NewStoreError wraps a driver error.
func NewStoreError(table string, err error) *Error {
	return &Error{
		Code:    ErrCodeStoreError,
		Message: err.Error(),
		Table:   table,
		Kind:    store.Classify(err),
		Err:     err,
	}
}
