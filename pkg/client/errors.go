package client

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed fetch.
type ErrorKind string

const (
	// KindHTTPStatus is a response with a non-200 status code.
	KindHTTPStatus ErrorKind = "http_status"

	// KindTimeout is a request that exceeded the client timeout or context deadline.
	KindTimeout ErrorKind = "timeout"

	// KindConnection is any other transport failure (DNS, refused, reset).
	KindConnection ErrorKind = "connection"

	// KindParse is a body that is not valid JSON.
	KindParse ErrorKind = "parse"

	// KindUnexpectedShape is valid JSON that is not an array.
	KindUnexpectedShape ErrorKind = "unexpected_shape"
)

// Sentinels matched by errors.Is against a *FetchError of the same kind.
var (
	ErrHTTPStatus      = errors.New("unexpected http status")
	ErrTimeout         = errors.New("request timed out")
	ErrConnection      = errors.New("connection failed")
	ErrParse           = errors.New("malformed response body")
	ErrUnexpectedShape = errors.New("response is not an array")
)

// FetchError is returned by FetchPage and FetchDomains for every failure.
// None of the kinds are retried by the counter.
type FetchError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Kind == KindHTTPStatus {
		if e.Message != "" {
			return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
		}
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e.Kind.
func (e *FetchError) Is(target error) bool {
	return target != nil && target == sentinel(e.Kind)
}

func sentinel(kind ErrorKind) error {
	switch kind {
	case KindHTTPStatus:
		return ErrHTTPStatus
	case KindTimeout:
		return ErrTimeout
	case KindConnection:
		return ErrConnection
	case KindParse:
		return ErrParse
	case KindUnexpectedShape:
		return ErrUnexpectedShape
	default:
		return nil
	}
}

// KindOf returns the ErrorKind carried by err, or "" if err is not a FetchError.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
