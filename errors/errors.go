// Package errors provides error handling for cbindgen.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints for user-facing failures
//   - Assertion errors for internal contract violations
//
// Usage:
//
//	// Fatal extraction failure
//	return errors.Wrapf(errors.ErrUnknownKind, "type %q has kind %s", spelling, kind)
//
//	// Contract violation inside the pipeline
//	return errors.AssertionFailedf("type %q referenced but never registered", name)
//
//	// Check errors
//	if errors.Is(err, errors.ErrTypeNotFound) {
//	    // programming bug, not a user error
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
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
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

// Assertions
var (
	AssertionFailedf                 = crdb.AssertionFailedf
	NewAssertionErrorWithWrappedErrf = crdb.NewAssertionErrorWithWrappedErrf
	HasAssertionFailure              = crdb.HasAssertionFailure
)

// Sentinel errors shared by the extraction and mapping stages.
// Wrap these with errors.Wrapf() to add context while preserving the type.
var (
	// ErrUnknownKind indicates a cursor or type kind the explorer cannot classify
	ErrUnknownKind = New("unknown C kind")

	// ErrTypeNotFound indicates a type name missing from the type registry
	ErrTypeNotFound = New("type not registered")

	// ErrCallingConvention indicates a function type with an unsupported calling convention
	ErrCallingConvention = New("unsupported calling convention")

	// ErrParse indicates the C front-end could not produce a translation unit
	ErrParse = New("parse failed")

	// ErrInvalidConfig indicates a configuration value is out of range or missing
	ErrInvalidConfig = New("invalid configuration")
)

// IsFatal reports whether err aborts a platform run, as opposed to a
// configuration problem reported before any run starts.
func IsFatal(err error) bool {
	return err != nil && (IsAny(err, ErrUnknownKind, ErrTypeNotFound, ErrCallingConvention, ErrParse) || HasAssertionFailure(err))
}

// NewInvalidConfigError creates an invalid-config error with a formatted message
func NewInvalidConfigError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidConfig, Newf(format, args...).Error())
}
