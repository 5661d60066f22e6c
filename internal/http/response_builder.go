// Package http serves the local dashboard: JSON views over the cached
// collections and the mutation endpoints that write through to the API.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"finboard/internal/api"
	"finboard/internal/core"
	"finboard/internal/services"
)

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// Notification is the toast payload returned by mutations.
type Notification struct {
	Type    NotificationType `json:"type"`
	Message string           `json:"message"`
	Data    any              `json:"data,omitempty"`
}

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	return b
}

// Notify sets a notification body carrying data.
func (b *ResponseBuilder) Notify(t NotificationType, message string, data any) *ResponseBuilder {
	b.body = Notification{Type: t, Message: message, Data: data}
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// SuccessResponse creates a 200 success notification.
func SuccessResponse(message string, data any) *ResponseBuilder {
	return NewResponse().Notify(NotificationSuccess, message, data)
}

// CreatedResponse creates a 201 success notification.
func CreatedResponse(message string, data any) *ResponseBuilder {
	return SuccessResponse(message, data).Status(http.StatusCreated)
}

// ErrorResponse creates an error notification with the given status.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).Notify(NotificationError, message, nil)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

const genericErrorMessage = "Something went wrong. Please try again."

// FailureFor maps a service error to a status and notification. Validation
// errors are 400, API errors keep their status and network failures are 502.
func FailureFor(err error) *ResponseBuilder {
	switch {
	case core.IsValidationError(err):
		return BadRequestError(err.Error())
	case errors.Is(err, services.ErrNotAuthenticated):
		return ErrorResponse(http.StatusUnauthorized, "Please sign in again.")
	}
	if apiErr, ok := api.AsError(err); ok {
		if apiErr.Status == 0 {
			return ErrorResponse(http.StatusBadGateway, apiErr.Message)
		}
		if apiErr.Status >= 400 {
			return ErrorResponse(apiErr.Status, apiErr.Message)
		}
		return ErrorResponse(http.StatusBadGateway, apiErr.Message)
	}
	return ErrorResponse(http.StatusInternalServerError, genericErrorMessage)
}

// snapshot is a read view. Error carries the failed refetch while the last
// good data is still served.
type snapshot struct {
	Data  any    `json:"data"`
	Stale bool   `json:"stale,omitempty"`
	Error string `json:"error,omitempty"`
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return api.MessageOf(err)
}
