package httpclient

import (
	goerrors "errors"
	"fmt"

	"github.com/vendora/vendora/internal/errors"
)

// Error represents a non-2xx response from an upstream service
type Error struct {
	*errors.InternalError
	StatusCode int
	Response   []byte
}

func (e *Error) Unwrap() error {
	return e.InternalError
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: status %d", e.InternalError.Error(), e.StatusCode)
}

// NewError creates a new HTTP client error
func NewError(statusCode int, response []byte) *Error {
	return &Error{
		InternalError: errors.New(errors.ErrCodeHTTPClient, "http client error"),
		StatusCode:    statusCode,
		Response:      response,
	}
}

// IsHTTPError checks if an error is an HTTP client error
func IsHTTPError(err error) (*Error, bool) {
	var httpErr *Error
	if goerrors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// IsNotFound reports whether the upstream answered 404
func (e *Error) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsAuthFailure reports whether the upstream rejected the credentials
func (e *Error) IsAuthFailure() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsServerError reports whether the upstream failed on its side
func (e *Error) IsServerError() bool {
	return e.StatusCode >= 500
}
