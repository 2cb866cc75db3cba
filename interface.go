// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpfacade

import (
	"net/http"
	"net/url"

	"github.com/gogama/httpfacade/request"
)

// Doer is the interface that wraps the basic Do method.
//
// Do executes an HTTP request plan and returns the final execution
// state (and error, if any), with the response body fully buffered.
// Client implements the Doer interface, and any other Doer
// implementation must behave substantially the same as Client.Do.
type Doer interface {
	Do(p *request.Plan) (*request.Execution, error)
}

// Opener is the interface that wraps the basic Open method.
//
// Open executes an HTTP request plan like Do, but hands a 2XX response
// body to the caller unread. The caller must close it.
type Opener interface {
	Open(p *request.Plan) (*request.Execution, error)
}

// Canceler is the interface that wraps the basic Cancel method.
//
// Cancel aborts every in-flight execution whose plan carries the given
// tag, and reports how many there were.
type Canceler interface {
	Cancel(tag interface{}) int
}

// Getter is the interface that wraps the basic Get method.
type Getter interface {
	Get(url string) (*request.Execution, error)
}

// Header is the interface that wraps the basic Head method.
type Header interface {
	Head(url string) (*request.Execution, error)
}

// Poster is the interface that wraps the basic Post method.
type Poster interface {
	Post(url, contentType string, body interface{}) (*request.Execution, error)
}

// FormPoster is the interface that wraps the basic PostForm method.
type FormPoster interface {
	PostForm(url string, data url.Values) (*request.Execution, error)
}

// IdleCloser is the interface that wraps the basic CloseIdleConnections
// method.
//
// If the underlying implementation supports it, CloseIdleConnections
// closes any connections which were previously connected from previous
// requests but are now sitting idle in a "keep-alive" state. It does
// not interrupt any connections currently in use.
type IdleCloser interface {
	CloseIdleConnections()
}

// Executor is the interface that groups the basic Do, Get, Head, Post,
// PostForm, and CloseIdleConnections methods.
type Executor interface {
	Doer
	Getter
	Header
	Poster
	FormPoster
	IdleCloser
}

// Backend is the plan executor underneath a Facade. Client implements
// Backend. The Facade cancels tagged calls through the plan context, so
// a Backend need not implement Canceler.
type Backend interface {
	Doer
	Opener
	IdleCloser
}

var (
	_ Executor = &Client{}
	_ Backend  = &Client{}
	_ Canceler = &Client{}
)

// Get uses the specified Doer to issue a GET to the specified URL,
// using the same policies as d.Do.
func Get(d Doer, url string) (*request.Execution, error) {
	p, err := request.NewPlan(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return d.Do(p)
}

// Head uses the specified Doer to issue a HEAD to the specified URL,
// using the same policies as d.Do.
func Head(d Doer, url string) (*request.Execution, error) {
	p, err := request.NewPlan(http.MethodHead, url, nil)
	if err != nil {
		return nil, err
	}
	return d.Do(p)
}

// Post uses the specified Doer to issue a POST to the specified URL,
// using the same policies as d.Do.
//
// The body parameter may be nil for an empty body, or may be any of the
// types supported by request.BodyBytes, namely: string; []byte;
// io.Reader; and io.ReadCloser.
func Post(d Doer, url, contentType string, body interface{}) (*request.Execution, error) {
	p, err := request.NewPlan(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	p.Header.Set("Content-Type", contentType)
	return d.Do(p)
}

// PostForm uses the specified Doer to issue a POST to the specified URL,
// with data's keys and values URL-encoded as the request body.
func PostForm(d Doer, url string, data url.Values) (*request.Execution, error) {
	return Post(d, url, request.FormContentType, data.Encode())
}
