package store

import "strings"

// ErrorKind classifies a driver error without exposing driver types.
type ErrorKind string

const (
	KindOther      ErrorKind = "other"
	KindConstraint ErrorKind = "constraint"
	KindMissing    ErrorKind = "missing"
	KindSyntax     ErrorKind = "syntax"
)

// Classify reports what kind of failure err represents.
// A nil error is KindOther.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindOther
	}
	if kind, ok := classifyDriver(err); ok {
		return kind
	}
	return classifyMessage(err.Error())
}

// classifyMessage handles SQLITE_ERROR, which both drivers use for missing
// objects and syntax errors alike.
func classifyMessage(msg string) ErrorKind {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "constraint failed"):
		return KindConstraint
	case strings.Contains(lower, "no such table"),
		strings.Contains(lower, "no such column"),
		strings.Contains(lower, "has no column named"):
		return KindMissing
	case strings.Contains(lower, "syntax error"),
		strings.Contains(lower, "incomplete input"),
		strings.Contains(lower, "unrecognized token"):
		return KindSyntax
	default:
		return KindOther
	}
}
