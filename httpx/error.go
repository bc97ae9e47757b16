package httpx

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyURL is returned synchronously by Dispatch when no layer provides a URL.
// Nothing is registered and no interceptor runs.
var ErrEmptyURL = errors.New("httpx: empty url")

// ErrorKind classifies a RequestError.
type ErrorKind string

const (
	// KindTransport covers non-200 responses and transport failures.
	KindTransport ErrorKind = "transport"
	// KindBusiness is a 200 response whose envelope code is not a success code.
	KindBusiness ErrorKind = "business"
	// KindUpload is any failed upload.
	KindUpload ErrorKind = "upload"
)

// Sentinel codes used when the failure has no business code of its own.
const (
	CodeHTTPError    Code = "HTTP_ERROR"
	CodeNetworkError Code = "NETWORK_ERROR"
	CodeUploadError  Code = "UPLOAD_ERROR"
)

// RequestError is a failed request that was not cancelled.
type RequestError struct {
	Kind    ErrorKind
	Message string

	// Code is the business code from the envelope, or one of the Code* sentinels.
	Code Code

	// StatusCode is the transport status. It is 0 when no response was received.
	StatusCode int

	Method string
	URL    string

	Cause error
}

func (e *RequestError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Method != "" {
		b.WriteString(strings.ToUpper(e.Method))
		b.WriteString(" ")
	}
	if e.URL != "" {
		b.WriteString(e.URL)
		b.WriteString(": ")
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind) + " error"
	}
	b.WriteString(msg)
	if e.Code != "" {
		b.WriteString(" (code=")
		b.WriteString(string(e.Code))
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *RequestError) Unwrap() error { return e.Cause }

// Aborted always reports false; see IsAborted.
func (e *RequestError) Aborted() bool { return false }

// AbortedError reports a request cancelled by Abort, AbortAll or the caller's
// context. It never triggers toasts or login redirects.
type AbortedError struct {
	Message string
	Cause   error
}

func (e *AbortedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message == "" {
		return "request aborted"
	}
	return e.Message
}

func (e *AbortedError) Unwrap() error { return e.Cause }

// Aborted reports true.
func (e *AbortedError) Aborted() bool { return true }

type aborter interface{ Aborted() bool }

// IsAborted reports whether err carries the abort flag anywhere in its chain.
func IsAborted(err error) bool {
	var a aborter
	for err != nil {
		if errors.As(err, &a) {
			if a.Aborted() {
				return true
			}
			// A RequestError may wrap an AbortedError further down.
			if u, ok := a.(interface{ Unwrap() error }); ok {
				err = u.Unwrap()
				continue
			}
		}
		return false
	}
	return false
}

// AsRequestError extracts *RequestError.
func AsRequestError(err error) (*RequestError, bool) {
	var re *RequestError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsStatus reports whether err is a RequestError with the given transport status.
func IsStatus(err error, code int) bool {
	re, ok := AsRequestError(err)
	return ok && re.StatusCode == code
}

// looksAborted is the detection used at the adapter edge: the abort flag or
// a cancelled signal on every platform, and the runtime's "<api>:fail abort"
// only on the embedded one. A web network error mentioning "abort" is a
// failure, not a cancellation.
func looksAborted(p Platform, err error) bool {
	if err == nil {
		return false
	}
	if IsAborted(err) || errors.Is(err, context.Canceled) {
		return true
	}
	if p != PlatformEmbedded {
		return false
	}
	var re *RuntimeError
	if errors.As(err, &re) {
		return strings.HasSuffix(re.ErrMsg, ":fail abort")
	}
	return strings.HasSuffix(err.Error(), ":fail abort")
}

func abortedFrom(err error, msg string) *AbortedError {
	var ae *AbortedError
	if errors.As(err, &ae) {
		return ae
	}
	return &AbortedError{Message: msg, Cause: err}
}

func newTransportError(msg, method, url string, cause error) *RequestError {
	return &RequestError{
		Kind:    KindTransport,
		Message: msg,
		Code:    CodeNetworkError,
		Method:  method,
		URL:     url,
		Cause:   cause,
	}
}
