// Package errors provides error handling for tygra.
//
// This package re-exports github.com/cockroachdb/errors, providing stack
// traces, wrapping with context, and user-facing hints, and it declares the
// sentinel errors raised by the graph model.
//
// Usage:
//
//	// Wrap a sentinel with context
//	return errors.Wrapf(errors.ErrTypeMismatch, "supertype %s is a relation", p.ID())
//
//	// Add hints for users
//	return errors.WithHint(err, "declare the parent with `type Person` first")
//
//	// Check errors
//	if errors.Is(err, errors.ErrAlreadyDeleted) {
//	    // benign in deletion cascades
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
	CombineErrors      = crdb.CombineErrors
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// GetStack returns the reportable stack trace attached to an error, if any.
var GetStack = crdb.GetReportableStackTrace

// AssertionFailedf reports a broken internal invariant.
var AssertionFailedf = crdb.AssertionFailedf

// Sentinel errors for the graph model.
// Use these with errors.Is() and wrap them with errors.Wrap() to add context.
var (
	// ErrTypeMismatch indicates a supertype or endpoint of the wrong kind, or an
	// attribute value that does not fit its kind
	ErrTypeMismatch = New("type mismatch")

	// ErrMissingSupertype indicates a non-root entity built without any supertype
	ErrMissingSupertype = New("missing supertype")

	// ErrNotAType indicates a supertype whose "type" attribute is not true
	ErrNotAType = New("not a type")

	// ErrIsaCycle indicates an Isa edge that would close a subsumption cycle
	ErrIsaCycle = New("isa cycle")

	// ErrInvariantViolation indicates a graph invariant found broken during validation
	ErrInvariantViolation = New("invariant violation")

	// ErrAlreadyDeleted indicates an operation on a tombstoned entity
	ErrAlreadyDeleted = New("already deleted")

	// ErrSystemEntity indicates an attempt to delete a bootstrap entity
	ErrSystemEntity = New("system entity")

	// ErrUnresolvedReference indicates a persisted endpoint id that resolves to nothing
	ErrUnresolvedReference = New("unresolved reference")

	// ErrUnregistered indicates removal of an observer or relation that was never added
	ErrUnregistered = New("not registered")

	// ErrNotFound indicates the requested entity or document does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates malformed input
	ErrInvalidRequest = New("invalid request")

	// ErrUnsupportedFormat indicates a file format or document version that cannot be read
	ErrUnsupportedFormat = New("unsupported format")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// IsConstructionError reports whether err rejected an entity at construction.
func IsConstructionError(err error) bool {
	return err != nil && IsAny(err, ErrTypeMismatch, ErrMissingSupertype, ErrNotAType, ErrIsaCycle, ErrAlreadyDeleted)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}
