// Package cerrors implements the tagged error-kind surface from spec.md
// §7 (InvalidPlan, RuleBug, BudgetExceeded, Infeasible, Internal), built on
// github.com/pkg/errors so that wrapped causes survive across package
// boundaries — the convention used for error handling throughout the
// retrieval pack (CockroachDB, Vitess, MatrixOne, and OPA all depend on
// github.com/pkg/errors directly).
package cerrors

import "github.com/pkg/errors"

// Kind classifies an optimizer-facing error. Infeasible is not actually an
// error (spec.md §7 calls it "non-error, just status") and is included here
// only so every outcome kind of spec.md §7 has a Kind value; callers should check
// OptimizationResult.Status for Infeasible rather than expect an error
// value.
type Kind int

const (
	KindNone Kind = iota
	KindInvalidPlan
	KindRuleBug
	KindBudgetExceeded
	KindInfeasible
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInvalidPlan:
		return "InvalidPlan"
	case KindRuleBug:
		return "RuleBug"
	case KindBudgetExceeded:
		return "BudgetExceeded"
	case KindInfeasible:
		return "Infeasible"
	case KindInternal:
		return "Internal"
	default:
		return "None"
	}
}

// Error wraps an underlying cause with a Kind, so callers can both
// errors.Is/As against the cause and branch on Kind.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.cause.Error()
}

// Unwrap exposes the cause to errors.Is/errors.As (and to
// github.com/pkg/errors.Cause, which walks the same Unwrap chain).
func (e *Error) Unwrap() error {
	return e.cause
}

// Wrap builds a Kind-tagged Error around cause, adding a context message.
func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, cause: errors.Wrap(cause, msg)}
}

// New builds a Kind-tagged Error directly from a message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, cause: errors.New(msg)}
}

// As reports whether err (or something it wraps) is a *Error, returning it.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
