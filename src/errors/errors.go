package errors

import (
	stderrors "errors"
	"fmt"
)

// Code identifies a class of overlay failure.
type Code string

const (
	ErrMissingCredential Code = "MISSING_CREDENTIAL"
	ErrNoScreen          Code = "NO_SCREEN"
	ErrCapture           Code = "CAPTURE"
	ErrBufferConversion  Code = "BUFFER_CONVERSION"
	ErrEncode            Code = "ENCODE"
	ErrEmptyQueue        Code = "EMPTY_QUEUE"
	ErrInference         Code = "INFERENCE"
	ErrTransport         Code = "TRANSPORT"
	ErrHTTPStatus        Code = "HTTP_STATUS"
	ErrArtifactRead      Code = "ARTIFACT_READ"
	ErrInvalidRequest    Code = "INVALID_REQUEST"
)

// Error is a coded failure returned to the immediate caller for display.
type Error struct {
	Code    Code
	Message string
	// Status is the HTTP status for provider failures, 0 otherwise.
	Status int
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewMissingCredential reports that the named credential is not configured.
func NewMissingCredential(name string) *Error {
	return &Error{
		Code:    ErrMissingCredential,
		Message: fmt.Sprintf("%s is not set", name),
	}
}

func NewNoScreen() *Error {
	return &Error{Code: ErrNoScreen, Message: "no screens found"}
}

// NewCapture wraps a failure of the platform capture primitive.
func NewCapture(what string, err error) *Error {
	return &Error{
		Code:    ErrCapture,
		Message: fmt.Sprintf("failed to capture %s: %v", what, err),
		Err:     err,
	}
}

// NewBufferConversion reports a raw capture whose size does not match width*height*4.
func NewBufferConversion(width, height, actual int) *Error {
	return &Error{
		Code:    ErrBufferConversion,
		Message: fmt.Sprintf("failed to convert image: %dx%d needs %d bytes, got %d", width, height, width*height*4, actual),
	}
}

func NewEncode(path string, err error) *Error {
	return &Error{
		Code:    ErrEncode,
		Message: fmt.Sprintf("failed to save %s: %v", path, err),
		Err:     err,
	}
}

func NewEmptyQueue() *Error {
	return &Error{Code: ErrEmptyQueue, Message: "no images in queue"}
}

// NewInference wraps a provider-reported failure, keeping the provider's message.
func NewInference(msg string, err error) *Error {
	return &Error{Code: ErrInference, Message: msg, Err: err}
}

// NewTransport reports a connection to the overlay that failed before a reply
// arrived.
func NewTransport(err error) *Error {
	return &Error{
		Code:    ErrTransport,
		Message: fmt.Sprintf("request failed: %v", err),
		Err:     err,
	}
}

// NewHTTPStatus reports a non-success status that no degrade rule covers.
func NewHTTPStatus(status int, body string) *Error {
	return &Error{
		Code:    ErrHTTPStatus,
		Status:  status,
		Message: fmt.Sprintf("AI model API error (%d): %s", status, body),
	}
}

func NewArtifactRead(path string, err error) *Error {
	return &Error{
		Code:    ErrArtifactRead,
		Message: fmt.Sprintf("failed to read %s: %v", path, err),
		Err:     err,
	}
}

func NewInvalidRequest(msg string) *Error {
	return &Error{Code: ErrInvalidRequest, Message: msg}
}

// Is reports whether any error in err's chain is an *Error with the given code.
func Is(err error, code Code) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}
