package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that a write lost an optimistic-concurrency check.
var ErrConflict = errors.New("resource was modified concurrently")

// ErrUnauthorized indicates that the caller is not authenticated.
var ErrUnauthorized = errors.New("unauthorized")

// Authentication flow errors. Each one maps to a fixed HTTP status and a
// user-safe message in FromError.
var (
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrEmailInUse               = errors.New("email is already in use")
	ErrInvalidRefreshToken      = errors.New("invalid refresh token")
	ErrExpiredRefreshToken      = errors.New("refresh token has expired")
	ErrRefreshConflict          = errors.New("refresh token was rotated concurrently")
	ErrInvalidExternalToken     = errors.New("invalid external identity token")
	ErrUnsupportedProvider      = errors.New("unsupported identity provider")
	ErrInvalidResetToken        = errors.New("invalid password reset token")
	ErrExpiredResetToken        = errors.New("password reset token has expired")
	ErrInvalidVerificationToken = errors.New("invalid email verification token")
)

// AppError is an error carrying an HTTP status code and a message that is
// safe to show to the client.
type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
	Err     error  `json:"-"`
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

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewBadRequestError creates a 400 AppError.
func NewBadRequestError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, nil)
}

// NewUnauthorizedError creates a 401 AppError.
func NewUnauthorizedError(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message, nil)
}

// NewConflictError creates a 409 AppError.
func NewConflictError(message string) *AppError {
	return NewAppError(http.StatusConflict, message, nil)
}

// NewInternalServerError creates a 500 AppError.
func NewInternalServerError(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, message, nil)
}

var statusByErr = []struct {
	err  error
	code int
}{
	{ErrInvalidCredentials, http.StatusUnauthorized},
	{ErrInvalidExternalToken, http.StatusUnauthorized},
	{ErrUnsupportedProvider, http.StatusUnauthorized},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrEmailInUse, http.StatusBadRequest},
	{ErrInvalidRefreshToken, http.StatusBadRequest},
	{ErrExpiredRefreshToken, http.StatusBadRequest},
	{ErrInvalidResetToken, http.StatusBadRequest},
	{ErrExpiredResetToken, http.StatusBadRequest},
	{ErrInvalidVerificationToken, http.StatusBadRequest},
	{ErrValidation, http.StatusBadRequest},
	{ErrRefreshConflict, http.StatusConflict},
	{ErrNotFound, http.StatusNotFound},
}

// FromError maps a known error to an AppError. The second return value is
// false for errors that are not part of the client-facing taxonomy; callers
// should log those and answer with a generic 500.
func FromError(err error) (*AppError, bool) {
	if err == nil {
		return nil, false
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	for _, m := range statusByErr {
		if errors.Is(err, m.err) {
			return NewAppError(m.code, m.err.Error(), err), true
		}
	}
	return nil, false
}
