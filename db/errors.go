package db

import (
	"strings"

	"github.com/teranos/tygra/errors"
)

// ErrDatabaseClosed is returned when a store is used after its database
// was closed.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed checks if an error indicates the database connection is closed.
// It matches wrapped ErrDatabaseClosed as well as the raw message of the
// sql package, whose error we cannot wrap at the source.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}

// wrapErr adds context to a driver error, mapping a closed database to
// ErrDatabaseClosed.
func wrapErr(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if IsDatabaseClosed(err) && !errors.Is(err, ErrDatabaseClosed) {
		err = errors.WithSecondaryError(ErrDatabaseClosed, err)
	}
	return errors.Wrapf(err, format, args...)
}
