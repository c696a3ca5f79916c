// Package errors defines the error envelope returned by the HTTP API.
package errors

import (
	stderrors "errors"
	"net/http"

	"campus/companion/internal/timer"
)

type APIError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func New(status int, code, message string) *APIError {
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func Internal(message string) *APIError {
	if message == "" {
		message = "internal server error"
	}
	return New(http.StatusInternalServerError, "internal_error", message)
}

func BadRequest(code, message string) *APIError {
	return New(http.StatusBadRequest, code, message)
}

// InvalidSettings maps a timer configuration error to a 400 naming the field.
func InvalidSettings(err error) *APIError {
	apiErr := BadRequest("invalid_settings", err.Error())
	var cfgErr *timer.ConfigError
	if stderrors.As(err, &cfgErr) {
		apiErr.Details = map[string]interface{}{
			"field": cfgErr.Field,
			"value": cfgErr.Value,
		}
	}
	return apiErr
}

func Unauthorized(message string) *APIError {
	if message == "" {
		message = "unauthorized"
	}
	return New(http.StatusUnauthorized, "unauthorized", message)
}

func NotFound(code, message string) *APIError {
	return New(http.StatusNotFound, code, message)
}

func Conflict(code, message string, details interface{}) *APIError {
	err := New(http.StatusConflict, code, message)
	err.Details = details
	return err
}
