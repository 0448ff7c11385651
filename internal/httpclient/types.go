package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Request describes an outgoing API call
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is a fully read API response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// HTTPError is returned by Get for any status other than 200
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.URL, e.Message)
}

// Retryable reports whether the same request may succeed later
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// NewHTTPError creates an HTTPError
func NewHTTPError(statusCode int, url, message string) error {
	return &HTTPError{
		StatusCode: statusCode,
		URL:        url,
		Message:    message,
	}
}

// IsRetryable reports whether err wraps an HTTPError worth retrying
func IsRetryable(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Retryable()
}
