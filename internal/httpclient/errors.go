// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package httpclient

import (
	"errors"
)

var (
	// ErrTransport reports DNS, connection, TLS and timeout failures.
	ErrTransport = errors.New("http transport failure")
	// ErrStatus reports a non 2xx response, only when the client is built WithFailOnStatus.
	ErrStatus = errors.New("unexpected response status")
	// ErrSerialization reports a payload that cannot be encoded as JSON; nothing was sent.
	ErrSerialization = errors.New("json serialization failure")
	// ErrBodyRead reports a response body that could not be read to the end.
	ErrBodyRead = errors.New("response body read failure")
)

// RequestError wraps every failure of a request with its category.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int

	kind error
	err  error
}

func newRequestError(method, url string, statusCode int, kind, err error) *RequestError {
	return &RequestError{
		Method:     method,
		URL:        url,
		StatusCode: statusCode,
		kind:       kind,
		err:        err,
	}
}

func (e *RequestError) Error() string {
	return "http: " + e.kind.Error() + ": " + e.err.Error()
}

// Unwrap exposes both the category sentinel and the underlying cause.
func (e *RequestError) Unwrap() []error {
	return []error{e.kind, e.err}
}

// Kind returns the category sentinel of the error.
func (e *RequestError) Kind() error {
	return e.kind
}
