package remote

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when an authenticated request is rejected
// with 401. Callers demote the local session and redirect to login.
var ErrUnauthorized = errors.New("unauthorized")

// Decode failure reasons.
const (
	DecodeReasonContentType = "content-type"
	DecodeReasonSyntax      = "syntax"
)

// DecodeError reports a response body that could not be interpreted as
// the JSON envelope: wrong content type or malformed JSON.
type DecodeError struct {
	Reason      string
	ContentType string
	Err         error
}

func (e *DecodeError) Error() string {
	if e.Reason == DecodeReasonContentType {
		return fmt.Sprintf("response is not JSON (content type %q)", e.ContentType)
	}
	return fmt.Sprintf("cannot decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ServerError is a well-formed backend response reporting failure, either
// through a non-success status or a false success flag.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (status %d)", e.Status)
}
