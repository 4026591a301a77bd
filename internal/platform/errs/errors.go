// Package errs defines the closed set of failure kinds shared by every
// component of the verification core. All errors crossing a package boundary
// are *Error values; callers match on Kind rather than on message text.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. The set is closed: no other package defines
// additional kinds.
type Kind string

const (
	// KindConnection covers connection establishment or loss.
	KindConnection Kind = "DATABASE_CONNECTION"
	// KindValidation covers caller preconditions violated before any I/O.
	KindValidation Kind = "VALIDATION"
	// KindSecurity covers cryptographic and audit-compliance violations.
	// These must fail the calling test and are never downgraded.
	KindSecurity Kind = "SECURITY"
	// KindTestData covers cleanup leaving residual fixture rows.
	KindTestData Kind = "TEST_DATA"
	// KindQuery covers query execution failures not covered above.
	KindQuery Kind = "QUERY"
)

// Error is a tagged failure with an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Connection returns a KindConnection error.
func Connection(format string, args ...any) *Error {
	return &Error{Kind: KindConnection, Msg: fmt.Sprintf(format, args...)}
}

// Validation returns a KindValidation error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Security returns a KindSecurity error.
func Security(format string, args ...any) *Error {
	return &Error{Kind: KindSecurity, Msg: fmt.Sprintf(format, args...)}
}

// TestData returns a KindTestData error.
func TestData(format string, args ...any) *Error {
	return &Error{Kind: KindTestData, Msg: fmt.Sprintf(format, args...)}
}

// Query returns a KindQuery error.
func Query(format string, args ...any) *Error {
	return &Error{Kind: KindQuery, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a driver-level cause to a tagged error. A nil cause returns
// the same error as the plain constructors.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// IsKind reports whether any error in err's chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	for errors.As(err, &e) {
		if e.Kind == kind {
			return true
		}
		if e.Err == nil {
			return false
		}
		err = e.Err
	}
	return false
}

// KindOf returns the kind of the outermost *Error in err's chain, or ""
// when err carries no taxonomy kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
