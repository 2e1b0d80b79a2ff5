package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Business logic errors
var (
	// General errors
	ErrNotFound     = errors.New("resource not found")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")

	// Auth errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("expired token")
)

// ErrorKind classifies an AppError for transport mapping
type ErrorKind string

const (
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindForbidden    ErrorKind = "FORBIDDEN"
	KindBadRequest   ErrorKind = "BAD_REQUEST"
	KindConflict     ErrorKind = "CONFLICT"
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
)

// AppError is a (kind, message) pair surfaced to API clients as-is.
// The message names the resource concretely, e.g. "Tag not found: 7".
type AppError struct {
	Kind    ErrorKind
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is match the sentinel of the same kind.
func (e *AppError) Unwrap() error {
	switch e.Kind {
	case KindNotFound:
		return ErrNotFound
	case KindForbidden:
		return ErrForbidden
	case KindBadRequest:
		return ErrBadRequest
	case KindConflict:
		return ErrConflict
	case KindUnauthorized:
		return ErrUnauthorized
	}
	return nil
}

// NotFound builds a NotFound AppError
func NotFound(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Forbidden builds a Forbidden AppError
func Forbidden(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// BadRequest builds a BadRequest AppError
func BadRequest(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a Conflict AppError
func Conflict(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized builds an Unauthorized AppError
func Unauthorized(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// StatusOf maps an error to its HTTP status. Anything that is not an
// AppError is an internal error.
func StatusOf(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}
