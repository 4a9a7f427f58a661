package store

import (
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrInvalidName      = errors.New("invalid list name: use letters and numbers")
	ErrInvalidItem      = errors.New("item name is required")
	ErrInvalidUser      = errors.New("username is required")
	ErrNotFound         = errors.New("not found")
	ErrDuplicateList    = errors.New("this list name is already taken")
	ErrDuplicateUser    = errors.New("this username is already taken on this list")
	ErrWrongPIN         = errors.New("incorrect PIN")
	ErrPermissionDenied = errors.New("permission denied by the data store")
	ErrUnavailable      = errors.New("data store temporarily unavailable")
)

// classify wraps err with the sentinel matching its SQLite result code, so
// callers can tell access problems from transient ones with errors.Is.
func classify(op string, err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return fmt.Errorf("%s: %w", op, err)
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_READONLY, sqlite3.SQLITE_PERM, sqlite3.SQLITE_AUTH:
		return fmt.Errorf("%s: %w: %v", op, ErrPermissionDenied, err)
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_IOERR,
		sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_FULL:
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConstraint(err error, code int) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == code
}

func isPrimaryKeyViolation(err error) bool {
	return isConstraint(err, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY) ||
		isConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE)
}

func isForeignKeyViolation(err error) bool {
	return isConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY)
}
