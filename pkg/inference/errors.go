package inference

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrPredictionFailed reports a prediction that reached a terminal failed or
// canceled state.
var ErrPredictionFailed = errors.New("inference: prediction failed")

// ErrorCode categorizes remote failures.
type ErrorCode string

const (
	ErrRateLimited ErrorCode = "rate_limited"
	ErrBadRequest  ErrorCode = "bad_request"
	ErrTransient   ErrorCode = "transient"
	ErrTimeout     ErrorCode = "timeout"
	ErrCanceled    ErrorCode = "canceled"
	ErrInternal    ErrorCode = "internal"
)

// Error is a classified remote failure. Nothing in this module retries;
// Retryable tells callers whether doing so is sensible.
type Error struct {
	Code       ErrorCode
	Message    string
	Status     int
	Retryable  bool
	RetryAfter int64
	wrapped    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.wrapped)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.wrapped }

// ErrorOption mutates an Error during construction.
type ErrorOption func(*Error)

// WithStatus sets the HTTP status code.
func WithStatus(status int) ErrorOption {
	return func(e *Error) { e.Status = status }
}

// WithRetryable marks whether retry is recommended.
func WithRetryable(retryable bool) ErrorOption {
	return func(e *Error) { e.Retryable = retryable }
}

// WithRetryAfter sets the retry-after hint in seconds.
func WithRetryAfter(seconds int64) ErrorOption {
	return func(e *Error) { e.RetryAfter = seconds }
}

// WithWrapped attaches an underlying error.
func WithWrapped(err error) ErrorOption {
	return func(e *Error) { e.wrapped = err }
}

// NewError builds an Error explicitly.
func NewError(code ErrorCode, message string, opts ...ErrorOption) *Error {
	e := &Error{Code: code, Message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FromStatus classifies an HTTP failure: 429 is rate limited, 5xx transient,
// any other status a bad request.
func FromStatus(status int, message string, opts ...ErrorOption) *Error {
	code := ErrBadRequest
	retryable := false
	switch {
	case status == http.StatusTooManyRequests:
		code, retryable = ErrRateLimited, true
	case status >= 500:
		code, retryable = ErrTransient, true
	case status == http.StatusRequestTimeout:
		code, retryable = ErrTimeout, true
	}
	base := []ErrorOption{WithStatus(status), WithRetryable(retryable)}
	return NewError(code, message, append(base, opts...)...)
}

// WrapError converts err into an *Error with code unless it already is one.
func WrapError(err error, code ErrorCode) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	return &Error{Code: code, Message: err.Error(), wrapped: err}
}

func classify(code ErrorCode) func(error) bool {
	return func(err error) bool {
		var classified *Error
		if errors.As(err, &classified) {
			return classified.Code == code
		}
		return false
	}
}

// Helper predicates for common error handling patterns.
var (
	IsRateLimited = classify(ErrRateLimited)
	IsBadRequest  = classify(ErrBadRequest)
	IsTransient   = classify(ErrTransient)
	IsTimeout     = classify(ErrTimeout)
)

// IsRetryable reports whether err is a classified failure worth retrying.
func IsRetryable(err error) bool {
	var classified *Error
	return errors.As(err, &classified) && classified.Retryable
}
