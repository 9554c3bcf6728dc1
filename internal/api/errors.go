package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized is matched by status errors for 401 and 403 responses.
var ErrUnauthorized = errors.New("unauthorized")

// ErrInvalidResponse wraps response bodies that fail to decode or validate.
var ErrInvalidResponse = errors.New("invalid response")

// StatusError is a non-2xx response.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status=%d", e.Method, e.Path, e.Status)
	if e.Code != "" {
		msg += " code=" + e.Code
	}
	if e.Message != "" {
		msg += " message=" + e.Message
	}
	return msg
}

// Temporary reports whether retrying the same request may succeed.
func (e *StatusError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests ||
		e.Status == http.StatusRequestTimeout ||
		e.Status >= 500
}

func (e *StatusError) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}
