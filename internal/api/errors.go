package api

import (
	"errors"
	"fmt"
)

const (
	networkErrorMessage = "Network error occurred"
	defaultErrorMessage = "An error occurred"
)

// Error is the single error shape surfaced by the client. Status 0 means no
// response was received.
type Error struct {
	Status  int
	Message string
	Code    string
	Err     error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// StatusOf returns the HTTP status carried by err, or -1 when err is not an
// API error.
func StatusOf(err error) int {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Status
	}
	return -1
}

// MessageOf returns the user facing message of err.
func MessageOf(err error) string {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func IsNetworkError(err error) bool {
	return StatusOf(err) == 0
}

func IsClientError(err error) bool {
	s := StatusOf(err)
	return s >= 400 && s < 500
}

func IsServerError(err error) bool {
	return StatusOf(err) >= 500
}

func IsUnauthorized(err error) bool {
	s := StatusOf(err)
	return s == 401 || s == 403
}

// Retryable reports whether a read may be retried: network failures and
// server errors are, client errors are not.
func Retryable(err error) bool {
	return IsNetworkError(err) || IsServerError(err)
}

func networkError(err error) *Error {
	return &Error{Status: 0, Message: networkErrorMessage, Err: err}
}
