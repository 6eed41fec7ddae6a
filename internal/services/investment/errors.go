package investment

import (
	"context"
	"errors"
	"fmt"

	"investcore/internal/repository"
)

// Kind classifies service failures for callers and the HTTP layer.
type Kind string

const (
	KindInvalidTransition  Kind = "INVALID_TRANSITION"
	KindInvalidDate        Kind = "INVALID_DATE"
	KindValidation         Kind = "VALIDATION_ERROR"
	KindNotFound           Kind = "NOT_FOUND"
	KindPersistenceFailure Kind = "PERSISTENCE_FAILURE"
	KindDuplicateAccrual   Kind = "DUPLICATE_ACCRUAL"
)

// Error is the single error type returned by the investment service.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidTransition  = &Error{Kind: KindInvalidTransition, Message: "invalid status transition"}
	ErrInvalidDate        = &Error{Kind: KindInvalidDate, Message: "invalid date"}
	ErrValidation         = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "not found"}
	ErrPersistenceFailure = &Error{Kind: KindPersistenceFailure, Message: "datastore unavailable"}
	ErrDuplicateAccrual   = &Error{Kind: KindDuplicateAccrual, Message: "ledger entry already paid"}
)

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind carried by err, or "" when err is not a service error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// storeError converts a repository error into a service error. Service errors pass through.
func storeError(err error, what string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return &Error{Kind: KindNotFound, Message: what + " not found", Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindPersistenceFailure, Message: what + ": datastore timeout", Err: err}
	}
	return &Error{Kind: KindPersistenceFailure, Message: what, Err: err}
}
