package turf

import (
	"errors"
	"fmt"
)

// ErrUpstream matches every error returned by Client.FetchUsers.
var ErrUpstream = errors.New("turf api request failed")

// TransportError is a network failure or timeout talking to the API.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("turf api transport error (%s): %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrUpstream, e.Err}
}

// StatusError is a response with a status other than 200.
type StatusError struct {
	URL        string
	StatusCode int
	// Body holds the start of the response body, for logging.
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("turf api returned status %d but 200 was expected (%s)", e.StatusCode, e.URL)
}

func (e *StatusError) Unwrap() error {
	return ErrUpstream
}

var errNullBody = errors.New("response body is null")

// DecodeError is a 200 response whose body is not a JSON array.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("turf api response from %s is not a json array: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrUpstream, e.Err}
}

// Kind returns a short label for err, used in logs and metric labels.
func Kind(err error) string {
	var (
		transport *TransportError
		status    *StatusError
		decode    *DecodeError
	)
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &transport):
		return "transport_error"
	case errors.As(err, &status):
		return "status_error"
	case errors.As(err, &decode):
		return "decode_error"
	default:
		return "error"
	}
}
