// Package verr defines the structured error type shared by the verification
// packages.
package verr

import (
	"errors"
	"fmt"
)

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
// Error() strings are human-readable and may evolve.
type Kind string

const (
	// KindFormat: malformed encoding of a point, scalar, signature or record.
	KindFormat Kind = "Format"
	// KindCommittee: an empty committee, a member without a key, or duplicate keys.
	KindCommittee Kind = "InvalidCommittee"
	// KindBrokenChain: a forward link does not start where the chain ends.
	KindBrokenChain Kind = "BrokenChain"
	// KindSignature: a Schnorr or collective signature failed to verify.
	KindSignature Kind = "BadSignature"
	// KindMissingField: a required record field is absent.
	KindMissingField Kind = "MissingField"
	// KindMismatch: recomputed data disagrees with what was claimed.
	KindMismatch Kind = "Mismatch"
)

// Error is the structured error returned by verification code.
//
// RuleID is a stable identifier (e.g., SKIP-LINK-002, CURVE-FMT-001) naming
// the check that failed. Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// New returns a *Error without a cause.
func New(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

// Newf is New with a formatted message.
func Newf(kind Kind, ruleID, format string, args ...any) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns a *Error carrying cause. A nil cause yields the same as New.
func Wrap(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return New(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
//
// The outermost *Error decides: a BrokenChain error wrapping a Format cause
// is BrokenChain.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the Kind of the outermost *Error in err, or "".
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
