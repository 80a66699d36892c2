//go:build purego

package store

import (
	"errors"

	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

const driverName = "sqlite"

func classifyDriver(err error) (ErrorKind, bool) {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return "", false
	}
	// Extended result codes carry the primary code in the low byte.
	if se.Code()&0xff == sqlitelib.SQLITE_CONSTRAINT {
		return KindConstraint, true
	}
	return classifyMessage(se.Error()), true
}
