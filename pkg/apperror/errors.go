package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("ressource introuvable")
	ErrUnauthorized      = errors.New("Non autorisé")
	ErrForbidden         = errors.New("Non autorisé")
	ErrBadRequest        = errors.New("requête invalide")
	ErrInternal          = errors.New("Une erreur interne est survenue")
	ErrInvalidInput      = errors.New("données invalides")
	ErrConflict          = errors.New("conflit")
	ErrRateLimitExceeded = errors.New("trop de tentatives")
)

// AppError is a custom error type that can hold an HTTP status code
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NotFound, Forbidden, Validation and Conflict wrap the matching sentinel
// with a caller-facing message.
func NotFound(format string, args ...any) error {
	return New(http.StatusNotFound, fmt.Sprintf(format, args...), ErrNotFound)
}

func Forbidden(format string, args ...any) error {
	return New(http.StatusForbidden, fmt.Sprintf(format, args...), ErrForbidden)
}

func Validation(format string, args ...any) error {
	return New(http.StatusBadRequest, fmt.Sprintf(format, args...), ErrInvalidInput)
}

func Conflict(format string, args ...any) error {
	return New(http.StatusConflict, fmt.Sprintf(format, args...), ErrConflict)
}

func Unauthorized(format string, args ...any) error {
	return New(http.StatusUnauthorized, fmt.Sprintf(format, args...), ErrUnauthorized)
}

// FromDB translates gorm errors into the taxonomy. Anything else is kept as
// an internal error.
func FromDB(err error, notFoundMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound("%s", notFoundMsg)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Conflict("la ressource existe déjà")
	default:
		return err
	}
}

// MapErrorToStatus maps common errors to HTTP status codes
func MapErrorToStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrRateLimitExceeded) {
		return http.StatusTooManyRequests
	}
	// Default to internal server error
	return http.StatusInternalServerError
}
