//go:build !purego

package store

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

const driverName = "sqlite3"

func classifyDriver(err error) (ErrorKind, bool) {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return "", false
	}
	if se.Code == sqlite3.ErrConstraint {
		return KindConstraint, true
	}
	return classifyMessage(se.Error()), true
}
