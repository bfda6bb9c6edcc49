// AngelaMos | 2026
// response.go

package core

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *AppError `json:"error,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	//nolint:errcheck // best-effort response write
	_ = json.NewEncoder(w).Encode(data)
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Response{Success: true, Data: data})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func JSONError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = InternalError(err)
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}

	JSON(w, appErr.StatusCode, Response{Success: false, Error: appErr})
}

func BadRequest(w http.ResponseWriter, message string) {
	JSONError(w, ValidationError(message))
}

func Unauthorized(w http.ResponseWriter, message string) {
	JSONError(w, UnauthorizedError(message))
}

func Forbidden(w http.ResponseWriter, message string) {
	JSONError(w, ForbiddenError(message))
}

func NotFound(w http.ResponseWriter, resource string) {
	JSONError(w, NotFoundError(resource))
}

func InternalServerError(w http.ResponseWriter, err error) {
	JSONError(w, InternalError(err))
}

func FormatValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return "invalid request"
	}

	messages := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			messages = append(messages, field+" is required")
		case "email":
			messages = append(messages, field+" must be a valid email")
		case "min":
			messages = append(messages, field+" must be at least "+fe.Param())
		case "max":
			messages = append(messages, field+" must be at most "+fe.Param())
		case "gte":
			messages = append(messages, field+" must be >= "+fe.Param())
		default:
			messages = append(messages, field+" is invalid")
		}
	}

	return strings.Join(messages, "; ")
}

// HandleServiceError maps a service error onto the response envelope.
// resource names the entity for not-found and duplicate messages.
func HandleServiceError(w http.ResponseWriter, err error, resource string) {
	switch {
	case IsAppError(err):
		JSONError(w, err)
	case errors.Is(err, ErrNotFound):
		NotFound(w, resource)
	case errors.Is(err, ErrDuplicateKey):
		JSONError(w, DuplicateError(resource))
	case errors.Is(err, ErrConflict):
		JSONError(w, ConflictError(resource+" is in a conflicting state"))
	case errors.Is(err, ErrInvalidInput):
		JSONError(w, ValidationError(err.Error()))
	case errors.Is(err, ErrForbidden):
		Forbidden(w, "")
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrTokenMissing):
		JSONError(w, TokenMissingError())
	default:
		InternalServerError(w, err)
	}
}
