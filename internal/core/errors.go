// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound       = errors.New("resource not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrConflict       = errors.New("conflict")
	ErrInvalidInput   = errors.New("invalid input")
	ErrTokenMissing   = errors.New("token missing")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenRevoked   = errors.New("token revoked")
	ErrInternalServer = errors.New("internal server error")
)

type AppError struct {
	Err        error  `json:"-"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
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

func NewAppError(
	err error,
	message string,
	statusCode int,
	code string,
) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		ErrNotFound,
		fmt.Sprintf("%s not found", resource),
		http.StatusNotFound,
		"NOT_FOUND",
	)
}

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return NewAppError(
		ErrUnauthorized,
		message,
		http.StatusUnauthorized,
		"UNAUTHORIZED",
	)
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = "access denied"
	}
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}

func DuplicateError(field string) *AppError {
	return NewAppError(
		ErrDuplicateKey,
		fmt.Sprintf("%s already exists", field),
		http.StatusConflict,
		"DUPLICATE",
	)
}

func ConflictError(message string) *AppError {
	return NewAppError(ErrConflict, message, http.StatusConflict, "CONFLICT")
}

func ValidationError(message string) *AppError {
	return NewAppError(
		ErrInvalidInput,
		message,
		http.StatusBadRequest,
		"VALIDATION_ERROR",
	)
}

func TokenMissingError() *AppError {
	return NewAppError(
		ErrTokenMissing,
		"not authenticated",
		http.StatusUnauthorized,
		"TOKEN_MISSING",
	)
}

// Present-but-unusable session tokens are answered with 403 so clients can
// tell "log in" apart from "your session is broken".
func TokenInvalidError() *AppError {
	return NewAppError(
		ErrTokenInvalid,
		"invalid token",
		http.StatusForbidden,
		"TOKEN_INVALID",
	)
}

func TokenExpiredError() *AppError {
	return NewAppError(
		ErrTokenExpired,
		"token has expired",
		http.StatusForbidden,
		"TOKEN_EXPIRED",
	)
}

func TokenRevokedError() *AppError {
	return NewAppError(
		ErrTokenRevoked,
		"token has been revoked",
		http.StatusForbidden,
		"TOKEN_REVOKED",
	)
}

func InternalError(err error) *AppError {
	return NewAppError(
		err,
		"an unexpected error occurred",
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
	)
}
