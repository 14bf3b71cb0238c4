// Package apperr holds the error taxonomy shared by the services and the HTTP layer.
package apperr

import (
	"errors"
	"net/http"
)

// Error is a domain failure with a message that is safe to show to callers.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	return e.Message
}

var (
	// ErrNotFound is returned for tenant-scoped lookup misses, including lookups
	// of rows that exist under another tenant.
	ErrNotFound = &Error{Code: "not_found", Message: "resource not found", Status: http.StatusNotFound}

	ErrInvalidToken   = &Error{Code: "invalid_token", Message: "invalid session token", Status: http.StatusUnauthorized}
	ErrSessionExpired = &Error{Code: "session_expired", Message: "session has expired", Status: http.StatusGone}
	ErrSessionClosed  = &Error{Code: "session_closed", Message: "session is closed", Status: http.StatusConflict}

	ErrInvalidProducts = &Error{Code: "invalid_products", Message: "no valid products in order", Status: http.StatusUnprocessableEntity}
	ErrAlreadyClosed   = &Error{Code: "already_closed", Message: "session already closed", Status: http.StatusConflict}
	ErrOrderCancelled  = &Error{Code: "order_cancelled", Message: "order is cancelled", Status: http.StatusConflict}

	// ErrConcurrencyConflict marks a lost race that survived the retry.
	ErrConcurrencyConflict = &Error{Code: "concurrency_conflict", Message: "concurrent update conflict, try again", Status: http.StatusConflict}

	ErrNameTaken    = &Error{Code: "name_taken", Message: "name already in use", Status: http.StatusConflict}
	ErrValidation   = &Error{Code: "validation", Message: "invalid request", Status: http.StatusBadRequest}
	ErrUnauthorized = &Error{Code: "unauthorized", Message: "invalid credentials", Status: http.StatusUnauthorized}
	ErrForbidden    = &Error{Code: "forbidden", Message: "you do not have permission", Status: http.StatusForbidden}
)

// Validation returns a validation error carrying a specific message.
func Validation(msg string) *Error {
	return &Error{Code: ErrValidation.Code, Message: msg, Status: ErrValidation.Status}
}

// Is lets a Validation(...) error match ErrValidation with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// From extracts the domain error from err, if any.
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
