package inference

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the service replied successfully but
// the reply carries no generated text.
var ErrEmptyResponse = errors.New("no response generated")

// TransportError means the request never produced an HTTP response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServiceError means the service answered with a non-OK status.
type ServiceError struct {
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("response error %d: %s", e.StatusCode, e.Body)
}

// IsTransient reports whether err is one of the failures that are expected
// to go away on a later attempt.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var transportErr *TransportError
	var serviceErr *ServiceError
	return errors.As(err, &transportErr) ||
		errors.As(err, &serviceErr) ||
		errors.Is(err, ErrEmptyResponse)
}
