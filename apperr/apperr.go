// Package apperr defines coded application errors surfaced at the HTTP
// boundary. Codes are stable strings that appear in logs and error pages so
// that support staff can correlate a user report with a server event.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of application error.
type Code string

const (
	// CodeUnrecognizedAction is raised when a form post carries an action the
	// current wizard step does not understand. It signals a client/server
	// contract mismatch and is never silently ignored.
	CodeUnrecognizedAction Code = "UNRECOGNIZED_ACTION"

	// CodeInteropAPI is raised when the case/interop API is unreachable or
	// answers with a non-success status.
	CodeInteropAPI Code = "XAPI_API_ERROR"

	// CodeSnapshotInvalid is raised when a stored wizard snapshot fails
	// validation on read.
	CodeSnapshotInvalid Code = "SESSION_SNAPSHOT_INVALID"

	// CodeIncompleteApplication is raised when submission is attempted with a
	// required step missing from the snapshot.
	CodeIncompleteApplication Code = "INCOMPLETE_APPLICATION"

	// CodeBadForm is raised when a form post cannot be parsed.
	CodeBadForm Code = "BAD_FORM"

	// CodeSessionStore is raised when the session store cannot be read or written.
	CodeSessionStore Code = "SESSION_STORE_ERROR"

	// CodeInternal is the catch-all for unexpected failures.
	CodeInternal Code = "INTERNAL_ERROR"
)

// AppError is an error carrying a code, a user-safe message and, for
// downstream failures, the upstream HTTP status and response body.
type AppError struct {
	Code         Code
	Message      string
	HTTPStatus   int    // status to answer the client with
	UpstreamCode int    // status returned by a downstream API, 0 if none
	ResponseBody string // downstream response content, if any
	Err          error
}

func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.UpstreamCode != 0 {
		msg += fmt.Sprintf(" (upstream status %d)", e.UpstreamCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error { return e.Err }

// New creates an AppError with the given code and message. The HTTP status
// defaults from the code.
func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: defaultStatus(code)}
}

// Wrap creates an AppError around err.
func Wrap(code Code, message string, err error) *AppError {
	e := New(code, message)
	e.Err = err
	return e
}

// Upstream creates a CodeInteropAPI error carrying the downstream status and
// body. The response to our own client is 502 Bad Gateway.
func Upstream(status int, body string, err error) *AppError {
	return &AppError{
		Code:         CodeInteropAPI,
		Message:      "case management service request failed",
		HTTPStatus:   http.StatusBadGateway,
		UpstreamCode: status,
		ResponseBody: body,
		Err:          err,
	}
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// CodeOf returns the code of the first AppError in err's chain, or
// CodeInternal when none is present.
func CodeOf(err error) Code {
	if ae, ok := As(err); ok {
		return ae.Code
	}
	return CodeInternal
}

// StatusOf returns the HTTP status to answer with for err.
func StatusOf(err error) int {
	if ae, ok := As(err); ok && ae.HTTPStatus != 0 {
		return ae.HTTPStatus
	}
	return http.StatusInternalServerError
}

func defaultStatus(code Code) int {
	switch code {
	case CodeUnrecognizedAction, CodeIncompleteApplication, CodeBadForm:
		return http.StatusBadRequest
	case CodeInteropAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
