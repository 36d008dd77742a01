// Package apperror defines the error taxonomy shared by the store, the
// services and the HTTP layer.
//
// Every failure a client can cause is an *AppError wrapping one of the
// sentinels below. Callers test the kind with errors.Is and read the
// human-readable text from Message:
//
//	if errors.Is(err, apperror.ErrAlreadyExists) { ... }
//
// Anything that is not an *AppError is an internal failure and must never
// be shown to the client verbatim.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrSelfReference = errors.New("self reference forbidden")
	ErrEmptyCart     = errors.New("empty cart")
	ErrForbidden     = errors.New("forbidden")
	ErrUnauthorized  = errors.New("unauthorized")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// NotInRelation is returned when removing a membership row that does not exist.
func NotInRelation(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: message,
	}
}

func AlreadyExists(message string) *AppError {
	return &AppError{
		Err:     ErrAlreadyExists,
		Message: message,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func SelfReference(message string) *AppError {
	return &AppError{
		Err:     ErrSelfReference,
		Message: message,
	}
}

func EmptyCart() *AppError {
	return &AppError{
		Err:     ErrEmptyCart,
		Message: "shopping cart is empty",
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func Unauthorized() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: "authentication credentials were not provided",
	}
}

// Kind returns the stable machine-readable name of err's category,
// or "internal_error" when err is not an *AppError.
func Kind(err error) string {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return "internal_error"
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrSelfReference):
		return "self_reference_forbidden"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	}
	return "internal_error"
}
