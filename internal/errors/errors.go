package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrUsernameExists is returned when registering a username that is already taken.
	ErrUsernameExists = errors.New("username already exists")
	// ErrExpenseNotFound is returned when an expense id has no record.
	ErrExpenseNotFound = errors.New("expense not found")
	// ErrInvalidMonth is returned when a month is outside 1..12.
	ErrInvalidMonth = errors.New("month must be between 1 and 12")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors, including wrapped ones, to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrUsernameExists):
		return NewHTTPError(http.StatusBadRequest, "Username already exists!", "USERNAME_EXISTS")
	case errors.Is(err, ErrExpenseNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "EXPENSE_NOT_FOUND")
	case errors.Is(err, ErrInvalidMonth):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_MONTH")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
