// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpfacade

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gogama/httpfacade/request"
)

// A Result is a completed call whose response body has been read.
type Result struct {
	// ExecutionID identifies the execution in logs.
	ExecutionID string
	// StatusCode is the HTTP status code, e.g. 200.
	StatusCode int
	// Status is the status line text, e.g. "200 OK".
	Status string
	// Header is the response header.
	Header http.Header
	// Tag is the tag the call was made with, or nil.
	Tag interface{}

	body []byte
}

func newResult(e *request.Execution) *Result {
	return &Result{
		ExecutionID: e.ID,
		StatusCode:  e.Response.StatusCode,
		Status:      e.Response.Status,
		Header:      e.Response.Header,
		Tag:         e.Plan.Tag,
		body:        e.Body,
	}
}

// Text returns the body as a string.
func (r *Result) Text() string {
	return string(r.body)
}

// Bytes returns the body. The returned slice is shared by every call
// and must not be modified.
func (r *Result) Bytes() []byte {
	return r.body
}

// Reader returns a new reader over the body.
func (r *Result) Reader() io.Reader {
	return bytes.NewReader(r.body)
}

// Success reports whether the status code is 2XX.
func (r *Result) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Result) applicationError() *ApplicationError {
	return &ApplicationError{
		StatusCode: r.StatusCode,
		Status:     r.Status,
		Header:     r.Header,
		Body:       r.body,
	}
}

// A Stream is a successful call whose response body has not been read.
// The caller must Close it.
type Stream struct {
	ExecutionID string
	StatusCode  int
	Status      string
	Header      http.Header
	Tag         interface{}
	// ContentLength is the length of the body, or -1 if unknown.
	ContentLength int64

	body    io.ReadCloser
	release func()
}

func newStream(e *request.Execution) *Stream {
	return &Stream{
		ExecutionID:   e.ID,
		StatusCode:    e.Response.StatusCode,
		Status:        e.Response.Status,
		Header:        e.Response.Header,
		Tag:           e.Plan.Tag,
		ContentLength: e.Response.ContentLength,
		body:          e.Response.Body,
	}
}

// Read reads from the response body.
func (s *Stream) Read(p []byte) (int, error) {
	return s.body.Read(p)
}

// Close closes the response body and releases the connection.
func (s *Stream) Close() error {
	err := s.body.Close()
	if s.release != nil {
		s.release()
	}
	return err
}
