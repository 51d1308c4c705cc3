package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error independently of its message.
type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindInvalidArgument   Kind = "INVALID_ARGUMENT"
	KindInvalidState      Kind = "INVALID_STATE"
	KindInsufficientStock Kind = "INSUFFICIENT_STOCK"
	KindForbidden         Kind = "FORBIDDEN"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindConflict          Kind = "CONFLICT"
	KindInternal          Kind = "INTERNAL"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidArgument   = &Error{Kind: KindInvalidArgument}
	ErrInvalidState      = &Error{Kind: KindInvalidState}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrInternal          = &Error{Kind: KindInternal}
)

type Error struct {
	Kind    Kind
	Message string

	// Set only for KindInsufficientStock.
	Available int
	Requested int

	Err error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// WithError attaches the underlying cause.
func (e *Error) WithError(err error) *Error {
	e.Err = err
	return e
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func InvalidArgument(message string) *Error {
	return New(KindInvalidArgument, message)
}

func InvalidArgumentf(format string, args ...any) *Error {
	return New(KindInvalidArgument, fmt.Sprintf(format, args...))
}

func InvalidState(message string) *Error {
	return New(KindInvalidState, message)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

func Internal(message string, err error) *Error {
	return New(KindInternal, message).WithError(err)
}

func InsufficientStock(available, requested int) *Error {
	return &Error{
		Kind:      KindInsufficientStock,
		Message:   fmt.Sprintf("insufficient stock: available %d, requested %d", available, requested),
		Available: available,
		Requested: requested,
	}
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf reports the kind of err, or KindInternal for foreign errors and "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}
