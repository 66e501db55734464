package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain failure; the transport layers map it to a status code.
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindNotFound        ErrorKind = "not_found"
	KindAuthorization   ErrorKind = "authorization"
	KindInvalidState    ErrorKind = "invalid_state"
	KindConflict        ErrorKind = "conflict"
	KindUnauthenticated ErrorKind = "unauthenticated"
)

// Error is a typed domain error.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches another *Error of the same kind. A target with an empty message
// matches every error of its kind, so errors.Is(err, ErrValidation) works for
// any validation failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error   { return newError(KindValidation, format, args...) }
func NotFound(format string, args ...any) error     { return newError(KindNotFound, format, args...) }
func Forbidden(format string, args ...any) error    { return newError(KindAuthorization, format, args...) }
func InvalidState(format string, args ...any) error { return newError(KindInvalidState, format, args...) }
func Conflict(format string, args ...any) error     { return newError(KindConflict, format, args...) }

// KindOf returns the kind of a domain error, or "" for anything else.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// Kind sentinels for errors.Is.
var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrAuthorization = &Error{Kind: KindAuthorization}
	ErrInvalidState  = &Error{Kind: KindInvalidState}
	ErrConflict      = &Error{Kind: KindConflict}
)

var (
	ErrOrderNotFound        = &Error{Kind: KindNotFound, Message: "order not found"}
	ErrStaffNotFound        = &Error{Kind: KindNotFound, Message: "delivery staff not found"}
	ErrReviewNotFound       = &Error{Kind: KindNotFound, Message: "review not found"}
	ErrNotificationNotFound = &Error{Kind: KindNotFound, Message: "notification not found"}
	ErrMenuItemNotFound     = &Error{Kind: KindNotFound, Message: "menu item not found"}
	ErrUserNotFound         = &Error{Kind: KindNotFound, Message: "user not found"}

	ErrForbidden       = &Error{Kind: KindAuthorization, Message: "you are not allowed to perform this action"}
	ErrNotOrderOwner   = &Error{Kind: KindAuthorization, Message: "order does not belong to you"}
	ErrNotAssignedToMe = &Error{Kind: KindAuthorization, Message: "order is not assigned to you"}

	ErrEmailTaken      = &Error{Kind: KindConflict, Message: "email is already registered"}
	ErrAlreadyReviewed = &Error{Kind: KindConflict, Message: "order has already been reviewed"}

	ErrCannotCancel         = &Error{Kind: KindInvalidState, Message: "order cannot be cancelled at this stage"}
	ErrStaffOffline         = &Error{Kind: KindInvalidState, Message: "delivery staff is offline"}
	ErrNotReviewable        = &Error{Kind: KindInvalidState, Message: "only delivered orders can be reviewed"}
	ErrStaffHasActiveOrders = &Error{Kind: KindInvalidState, Message: "delivery staff still has active orders"}

	ErrInvalidCredentials = &Error{Kind: KindUnauthenticated, Message: "invalid email or password"}
)
