// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"net/http"
	"time"

	"github.com/gogama/httpfacade/transient"
)

// An Execution represents the state of a single Plan execution.
//
// The client creates an Execution when it starts executing a Plan and
// updates it as the execution progresses. Timeout and retry policies and
// event handlers should treat its exported fields as read-only, except
// for reasonable changes to the http.Request before it is sent.
type Execution struct {
	// ID uniquely identifies the execution, for log correlation. It is
	// assigned before the BeforeExecutionStart event.
	ID string

	// Plan specifies the HTTP request plan being executed. It is never
	// nil.
	Plan *Plan

	// Start is the start time of the execution.
	Start time.Time

	// End is the end time of the execution. It contains the zero value
	// until the execution ends.
	End time.Time

	// Attempt is the zero-based number of the current HTTP request
	// attempt during the plan execution.
	Attempt int

	// AttemptTimeouts counts the attempts which ended in a timeout.
	AttemptTimeouts int

	// Request specifies the HTTP request to be made in the current
	// attempt, or already made in the last attempt.
	Request *http.Request

	// Response specifies the HTTP response received in the most recent
	// request attempt. It is nil if the most recent attempt ended in an
	// error, or if a current attempt is underway.
	//
	// For a streaming execution the response body is left open for the
	// caller; otherwise it has already been read into Body and closed.
	Response *http.Response

	// Err indicates the error received while making the most recent
	// request attempt. Whenever Err is non-nil, it has the type
	// *url.Error.
	Err error

	// Body is the complete response body read after the most recent
	// request attempt. It is nil for a streaming execution, and should
	// be treated as invalid unless Err is nil.
	Body []byte

	// Streaming is true if the response body is handed to the caller
	// unread.
	Streaming bool

	data context.Context
}

// StatusCode returns the status code of the HTTP response from the
// most recent request attempt in the execution. If there is no HTTP
// response, 0 is returned.
func (e *Execution) StatusCode() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.StatusCode
}

// Success reports whether the most recent attempt received an HTTP
// response with a 2XX status code.
func (e *Execution) Success() bool {
	sc := e.StatusCode()
	return sc >= 200 && sc < 300
}

// Header returns the HTTP response headers from the most recent request
// attempt in the execution. If there is no HTTP response, the nil
// header is returned, which is safe for read-only operations.
func (e *Execution) Header() http.Header {
	if e.Response == nil {
		return nil
	}
	return e.Response.Header
}

// Duration returns the duration of the execution: zero before it
// starts, the time elapsed while it is in flight, and End minus Start
// once it has ended.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return time.Duration(0)
	} else if !e.Ended() {
		return time.Since(e.Start)
	}
	return e.End.Sub(e.Start)
}

// Started indicates whether the execution has started.
func (e *Execution) Started() bool {
	return !e.Start.IsZero()
}

// Ended indicates whether the execution has ended.
func (e *Execution) Ended() bool {
	return !e.End.IsZero()
}

// Timeout indicates whether Err currently contains a non-nil value
// which indicates a timeout, either of the most recent attempt or of the
// plan context.
func (e *Execution) Timeout() bool {
	return transient.Categorize(e.Err) == transient.Timeout
}

// SetValue allows event handlers to store arbitrary data in the
// execution. The key must follow the same rules as the key parameter in
// context.WithValue.
func (e *Execution) SetValue(key, value interface{}) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}
	e.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this execution for key,
// or nil if there is no value associated with key.
func (e *Execution) Value(key interface{}) interface{} {
	if e.data == nil {
		return nil
	}
	return e.data.Value(key)
}
