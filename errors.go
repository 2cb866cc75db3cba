// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpfacade

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gogama/httpfacade/request"
	"github.com/gogama/httpfacade/transient"
)

// ErrAlreadyInitialized is returned by Init once the shared facade
// exists, whether it was created by an earlier Init or lazily by
// Shared.
var ErrAlreadyInitialized = errors.New("httpfacade: shared facade already initialized")

// ErrClosed is delivered to the failure callback of an asynchronous
// call started after the facade was closed.
var ErrClosed = errors.New("httpfacade: facade closed")

// A NetworkError reports a call which produced no HTTP response:
// DNS failure, connection refused or reset, timeout or cancellation.
type NetworkError struct {
	// Op is the facade operation, for example "FetchText".
	Op string
	// URL is the request URL.
	URL string
	// Kind categorizes Err.
	Kind transient.Category
	// Err is the underlying error.
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("httpfacade: %s %q: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the call failed because a connect, read,
// write or attempt deadline passed.
func (e *NetworkError) Timeout() bool {
	return e.Kind == transient.Timeout
}

// Temporary reports whether a retry has some prospect of success.
func (e *NetworkError) Temporary() bool {
	return e.Kind.Transient()
}

func newNetworkError(op string, p *request.Plan, err error) *NetworkError {
	cause := err
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		cause = urlErr.Err
	}
	return &NetworkError{
		Op:   op,
		URL:  p.URL.String(),
		Kind: transient.Categorize(err),
		Err:  cause,
	}
}

// An ApplicationError reports a response whose status code was not
// 2XX. The response body is preserved.
type ApplicationError struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

func (e *ApplicationError) Error() string {
	return "httpfacade: server returned " + e.Status
}

// An ArgumentError reports invalid input detected before any network
// I/O took place.
type ArgumentError struct {
	// Op is the facade operation, for example "UploadFiles".
	Op string
	// Msg describes the problem.
	Msg string
	// Err is the underlying error, if any.
	Err error
}

func (e *ArgumentError) Error() string {
	return "httpfacade: " + e.Op + ": " + e.Msg
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

func argumentError(op string, err error) *ArgumentError {
	return &ArgumentError{Op: op, Msg: err.Error(), Err: err}
}
