package quill

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthenticated is returned when an operation needing a session is
	// attempted without one (no stored refresh token).
	ErrUnauthenticated = errors.New("quill: not authenticated")

	// ErrUnauthorized is returned when a 401 survives the single
	// refresh-and-retry cycle. The session has been torn down by the time the
	// caller sees it.
	ErrUnauthorized = errors.New("quill: unauthorized")

	// ErrMutationPending is returned when a toggle is repeated on an entity
	// whose previous toggle of the same kind has not settled yet.
	ErrMutationPending = errors.New("quill: mutation already pending")
)

// APIError is a non-2xx backend response, carrying the HTTP status and the
// server-provided detail. Fields is populated for validation failures.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("quill: HTTP %d", e.Status)
	}
	return fmt.Sprintf("quill: HTTP %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 APIError.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

// IsValidation reports whether err is a 400/422 APIError.
func IsValidation(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) &&
		(ae.Status == http.StatusBadRequest || ae.Status == http.StatusUnprocessableEntity)
}

// IsServerError reports whether err is a 5xx APIError.
func IsServerError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status >= 500
}

// TransportError wraps a failure where no HTTP response was received.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("quill: %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// apiErrorFrom builds an APIError from a non-2xx response body.
// The backend answers with {"detail": "..."} or {"message": "..."} and, for
// validation failures, {"errors": {"field": "problem"}}.
func apiErrorFrom(status int, body []byte) *APIError {
	var envelope struct {
		Detail  string            `json:"detail"`
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	ae := &APIError{Status: status}
	if json.Unmarshal(body, &envelope) == nil {
		ae.Message = envelope.Detail
		if ae.Message == "" {
			ae.Message = envelope.Message
		}
		if len(envelope.Errors) > 0 {
			ae.Fields = envelope.Errors
		}
	}
	return ae
}
