package clients

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is a non-2xx response from a collaborator.
type StatusError struct {
	Collaborator string
	Method       string
	Path         string
	StatusCode   int
	Message      string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s %s: status %d", e.Collaborator, e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s %s: status %d: %s", e.Collaborator, e.Method, e.Path, e.StatusCode, e.Message)
}

// Temporary is true for 5xx and 429.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// UserMessage is the collaborator's own message for client errors. Server
// errors never leak their text.
func (e *StatusError) UserMessage() string {
	if e.Temporary() {
		return ""
	}
	return e.Message
}

func isNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}
