package webcrawl

import (
	"errors"
	"fmt"
)

// Application error codes.
const (
	ECONFLICT = "conflict"
	EINTERNAL = "internal"
	EINVALID  = "invalid"
	ENOTFOUND = "not_found"
	ECLOSED   = "closed"
)

// Error represents an application-specific error.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("webcrawl error: code=%s message=%s", e.Code, e.Message)
}

// Errorf is a helper function to return an Error with a given code and formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// FailureKind classifies why a single URL could not be crawled.
type FailureKind int

// Failure kinds recorded against individual URLs.
const (
	FailureMalformedURL FailureKind = iota + 1
	FailureFetch
	FailureExtraction
	FailureCanceled
)

// String returns a short name for the kind.
func (k FailureKind) String() string {
	switch k {
	case FailureMalformedURL:
		return "malformed url"
	case FailureFetch:
		return "fetch"
	case FailureExtraction:
		return "extraction"
	case FailureCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Failure records a per-URL failure. It never aborts a crawl; it is
// reported in Result.Errors under the URL that failed.
type Failure struct {
	Kind FailureKind
	URL  string
	Err  error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s %s: %v", f.Kind, f.URL, f.Err)
}

// Unwrap returns the underlying cause.
func (f *Failure) Unwrap() error {
	return f.Err
}
