package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is matched by errors.Is for 404 responses
var ErrNotFound = errors.New("not found")

// ErrorResponse represents an API error body
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// APIError is returned when the service answers with a status >= 400
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("API error (HTTP %d): %s", e.StatusCode, e.Message)
}

// Is makes a 404 APIError match ErrNotFound
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// ErrorKind classifies a failed call
type ErrorKind int

const (
	KindNone ErrorKind = iota
	// KindTransport covers network failures and undecodable responses
	KindTransport
	// KindRejected covers validation and authorization refusals
	KindRejected
	// KindNotFound means the entity was deleted or the id is invalid
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTransport:
		return "transport"
	case KindRejected:
		return "rejected"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Classify returns the kind of a client error
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return KindRejected
	}
	return KindTransport
}

// IsNotFound reports whether err is a not-found response
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
