// Package failure holds the error kinds every application operation reports.
// Callers branch on the kind with errors.Is against the sentinels or KindOf.
package failure

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindNotAuthenticated     Kind = "NOT_AUTHENTICATED"
	KindNotFound             Kind = "NOT_FOUND"
	KindSelfBookingForbidden Kind = "SELF_BOOKING_FORBIDDEN"
	KindInvalidBooking       Kind = "INVALID_BOOKING"
	KindUnauthorized         Kind = "UNAUTHORIZED"
	KindPersistence          Kind = "PERSISTENCE_FAILURE"
	KindDeletionFailed       Kind = "DELETION_FAILED"
	KindConflict             Kind = "CONFLICT"
)

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind when target is a bare sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrNotAuthenticated     = &Error{Kind: KindNotAuthenticated}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrSelfBookingForbidden = &Error{Kind: KindSelfBookingForbidden}
	ErrInvalidBooking       = &Error{Kind: KindInvalidBooking}
	ErrUnauthorized         = &Error{Kind: KindUnauthorized}
	ErrPersistence          = &Error{Kind: KindPersistence}
	ErrDeletionFailed       = &Error{Kind: KindDeletionFailed}
	ErrConflict             = &Error{Kind: KindConflict}
)

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Persistence wraps a storage error. Errors that already carry a kind are
// returned as is.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	return &Error{Kind: KindPersistence, Op: op, Err: err}
}

// KindOf reports the kind carried by err, or "" when err carries none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotAuthenticated:
		return http.StatusUnauthorized
	case KindUnauthorized, KindSelfBookingForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidBooking:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
