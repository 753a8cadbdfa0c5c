package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a business error; handlers map it to an HTTP status
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindTooManyRequests
)

// Business logic errors
var (
	ErrInternal        = errors.New("internal error")
	ErrBadRequest      = errors.New("bad request")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("resource not found")
	ErrConflict        = errors.New("conflict")
	ErrTooManyRequests = errors.New("too many requests")

	// Auth errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("expired token")
)

var kindSentinels = map[Kind]error{
	KindInternal:        ErrInternal,
	KindBadRequest:      ErrBadRequest,
	KindUnauthorized:    ErrUnauthorized,
	KindForbidden:       ErrForbidden,
	KindNotFound:        ErrNotFound,
	KindConflict:        ErrConflict,
	KindTooManyRequests: ErrTooManyRequests,
}

// AppError is a typed error carrying a user-facing message
type AppError struct {
	Kind    Kind
	Message string
	Details interface{}
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, common.ErrNotFound) match by kind
func (e *AppError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// Status returns the HTTP status code for the error kind
func (e *AppError) Status() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// NewBadRequest returns a BadRequest error
func NewBadRequest(message string) *AppError {
	return &AppError{Kind: KindBadRequest, Message: message}
}

// NewValidationError returns a BadRequest error with field details
func NewValidationError(message string, details interface{}) *AppError {
	return &AppError{Kind: KindBadRequest, Message: message, Details: details}
}

// NewUnauthorized returns an Unauthorized error
func NewUnauthorized(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

// NewForbidden returns a Forbidden error
func NewForbidden(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

// NewNotFound returns a NotFound error
func NewNotFound(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

// NewConflict returns a Conflict error
func NewConflict(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

// NewTooManyRequests returns a retryable rate-limit error
func NewTooManyRequests(message string) *AppError {
	return &AppError{Kind: KindTooManyRequests, Message: message}
}

// NewInternal wraps an unexpected collaborator failure
func NewInternal(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of err, KindInternal for untyped errors
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
