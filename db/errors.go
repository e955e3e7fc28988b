package db

import (
	"strings"

	"github.com/teranos/smolassistant/errors"
)

// ErrDatabaseClosed is returned when operations are attempted on a closed database.
// This typically occurs during shutdown when the scheduler goroutine is still
// draining after the connection pool was closed.
var ErrDatabaseClosed = errors.New("database is closed")

// ErrStorage marks failures of the durable reminder store. Callers check it
// with errors.Is and render a generic failure to the user.
var ErrStorage = errors.New("storage error")

// IsDatabaseClosed checks if an error indicates the database connection is closed.
// This handles both:
// - Wrapped ErrDatabaseClosed errors from this package
// - Raw sql driver errors that contain "database is closed" in their message
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}

	// Fallback: the sql package returns its own unexported error value
	return strings.Contains(err.Error(), "database is closed")
}

// StorageError wraps err with context and marks it as ErrStorage.
// Returns nil for a nil err.
func StorageError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrStorage)
}

// IsStorageError reports whether err was produced by StorageError
func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorage)
}
