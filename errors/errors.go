// Package errors provides error handling for smolassistant.
//
// It re-exports github.com/cockroachdb/errors so every package gets stack
// traces, hints and error marks from a single import:
//
//	if err := store.UpsertOneTime(ctx, r); err != nil {
//	    return errors.Wrap(err, "persist reminder")
//	}
//
//	// Mark a failure with a sentinel without losing the original cause
//	return errors.Mark(err, db.ErrStorage)
//
//	// Attach an explanation meant for the person reading the message
//	return errors.WithHint(err, "use HH:MM, e.g. 09:30")
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Construction and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// Hints and details
var (
	WithHint       = crdb.WithHint
	WithHintf      = crdb.WithHintf
	WithDetail     = crdb.WithDetail
	WithDetailf    = crdb.WithDetailf
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// GetStack returns the reportable stack trace attached to err, if any.
var GetStack = crdb.GetReportableStackTrace

// ErrNotFound indicates the requested record does not exist.
// Wrap it to add context; check with Is.
var ErrNotFound = New("not found")

// NewNotFoundError creates a not-found error with a formatted message.
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// IsNotFoundError reports whether err is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// Hint returns the joined hints attached to err, or "" when there are none.
func Hint(err error) string {
	if err == nil {
		return ""
	}
	return FlattenHints(err)
}
