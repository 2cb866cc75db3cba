// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpfacade

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gogama/httpfacade/request"
	"github.com/gogama/httpfacade/retry"
	"github.com/gogama/httpfacade/timeout"
	"github.com/google/uuid"
)

// An HTTPDoer implements a Do method in the same manner as the GoLang
// standard library http.Client from the net/http package.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects, cookies, auth) configured on the
	// HTTPDoer.
	//
	// The Do method must follow the contract documented on the GoLang
	// standard library http.Client from the net/http package.
	Do(r *http.Request) (*http.Response, error)
}

var emptyHandlers = HandlerGroup{}

// A Client executes request plans with optional retry, attempt
// timeouts, event handlers and cancellation by tag. Its zero value is
// a valid configuration.
//
// The zero value client uses http.DefaultClient (from net/http) as the
// HTTPDoer, timeout.DefaultPolicy as the timeout policy, retry.Never
// as the retry policy, and an empty handler group.
//
// Client's HTTPDoer typically has an internal state (cached TCP
// connections) so Client instances should be reused instead of created
// as needed. Client is safe for concurrent use by multiple goroutines.
//
// On top of the HTTP request features provided by the HTTPDoer, Client
// adds the following:
//
// • Do reads and buffers the entire HTTP response body into a []byte
// (returned as the Execution.Body field), while Open hands a successful
// response body to the caller unread;
//
// • failed request attempts are retried according to the retry policy;
//
// • individual attempts are bounded by the timeout policy;
//
// • every execution gets a unique ID, and handler functions run at
// designated plug-in points within the attempt/retry loop; and
//
// • in-flight executions whose plans carry a tag can be canceled
// together with Cancel.
type Client struct {
	// HTTPDoer specifies the mechanics of sending HTTP requests and
	// receiving responses.
	//
	// If HTTPDoer is nil, http.DefaultClient from the standard net/http
	// package is used.
	HTTPDoer HTTPDoer
	// RetryPolicy decides when to retry failed attempts and how long
	// to sleep after a failed attempt before retrying.
	//
	// If RetryPolicy is nil, retry.Never is used.
	RetryPolicy retry.Policy
	// TimeoutPolicy specifies how to set timeouts on individual request
	// attempts.
	//
	// If TimeoutPolicy is nil, timeout.DefaultPolicy is used.
	TimeoutPolicy timeout.Policy
	// Handlers allows custom handler chains to be invoked when
	// designated events occur during execution of a request plan.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *HandlerGroup

	tags tagRegistry
}

// Do executes an HTTP request plan and returns the results, following
// timeout and retry policy set on Client, and low-level policy set on
// the underlying HTTPDoer.
//
// The result returned is the result after the final HTTP request
// attempt made during the plan execution, as determined by the retry
// policy.
//
// An error is returned if, after doing any retries mandated by the
// retry policy, the final attempt resulted in an error, or if the plan
// was canceled. A non-2XX status code in the final attempt does not
// result in an error.
//
// The returned Execution is never nil. If the returned error is nil,
// the Execution contains both a non-nil Response and a non-nil Body
// (although Body may have zero length). If an error was returned, the
// Err field of the Execution references the same error.
//
// Any returned error will be of type *url.Error. The url.Error's
// Timeout method, and the Execution's Timeout method, will return
// true if the final request attempt timed out, or if the entire plan
// timed out.
func (c *Client) Do(p *request.Plan) (*request.Execution, error) {
	p, release := c.tags.track(p)
	defer release()
	e := c.execute(p, false)
	return e, e.Err
}

// Open executes an HTTP request plan like Do, except that a 2XX
// response body is not read. The caller must close the response body
// of the returned execution, which releases the attempt timeout and the
// plan's tag registration.
//
// A non-2XX response is buffered into Body and closed, exactly as Do
// would, so it remains subject to the retry policy. Once a 2XX response
// is received no further attempts are made.
func (c *Client) Open(p *request.Plan) (*request.Execution, error) {
	p, release := c.tags.track(p)
	e := c.execute(p, true)
	if !e.Streaming {
		release()
		return e, e.Err
	}
	if sb, ok := e.Response.Body.(*streamBody); ok {
		sb.release = append(sb.release, release)
	} else {
		e.Response.Body = &streamBody{ReadCloser: e.Response.Body, release: []func(){release}}
	}
	return e, nil
}

// Cancel cancels every in-flight execution whose plan's Tag equals tag,
// and returns how many were canceled. Executions without a tag are
// never affected.
func (c *Client) Cancel(tag interface{}) int {
	return c.tags.cancel(tag)
}

func (c *Client) execute(p *request.Plan, stream bool) *request.Execution {
	e := &request.Execution{
		ID:   uuid.NewString(),
		Plan: p,
	}

	doer := c.doer()

	timeoutPolicy := c.TimeoutPolicy
	if timeoutPolicy == nil {
		timeoutPolicy = timeout.DefaultPolicy
	}

	retryPolicy := c.RetryPolicy
	if retryPolicy == nil {
		retryPolicy = retry.Never
	}

	handlers := c.Handlers
	if handlers == nil {
		handlers = &emptyHandlers
	}
	handlers.run(BeforeExecutionStart, e)
	e.Start = time.Now()

RetryLoop:
	for {
		sendAndReceive(p, e, doer, handlers, timeoutPolicy, stream)
		if e.Timeout() {
			e.AttemptTimeouts++
			handlers.run(AfterAttemptTimeout, e)
		}
		handlers.run(AfterAttempt, e)
		if e.Streaming {
			break
		}
		planCtxErr := p.Context().Err()
		if planCtxErr == context.DeadlineExceeded {
			handlers.run(AfterPlanTimeout, e)
			break
		} else if planCtxErr != nil {
			e.Err = urlErrorWrap(p, planCtxErr)
			break
		} else if retryPolicy.Decide(e) {
			wait := retryPolicy.Wait(e)
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-p.Context().Done():
				timer.Stop()
				err := p.Context().Err()
				e.Err = urlErrorWrap(p, err)
				if err == context.DeadlineExceeded {
					handlers.run(AfterPlanTimeout, e)
				}
				break RetryLoop
			}
			e.Response = nil
			e.Err = nil
			e.Body = nil
			e.Attempt++
		} else {
			break
		}
	}

	e.End = time.Now()
	handlers.run(AfterExecutionEnd, e)
	return e
}

func sendAndReceive(p *request.Plan, e *request.Execution, doer HTTPDoer, handlers *HandlerGroup, timeoutPolicy timeout.Policy, stream bool) {
	ctx, cancel := context.WithTimeout(p.Context(), timeoutPolicy.Timeout(e))
	e.Request = p.ToRequest(ctx)
	handlers.run(BeforeAttempt, e)
	var err error
	e.Response, err = doer.Do(e.Request)
	if err != nil {
		cancel()
		e.Err = urlErrorWrap(p, err)
		return
	}
	if stream && e.Response.StatusCode >= 200 && e.Response.StatusCode < 300 {
		handlers.run(BeforeReadBody, e)
		e.Response.Body = &streamBody{
			ReadCloser: e.Response.Body,
			release:    []func(){cancel},
		}
		e.Streaming = true
		return
	}
	defer cancel()
	readBody(p, e, handlers)
}

func readBody(p *request.Plan, e *request.Execution, handlers *HandlerGroup) {
	defer func() {
		_ = e.Response.Body.Close()
	}()
	handlers.run(BeforeReadBody, e)
	var err error
	e.Body, err = io.ReadAll(e.Response.Body)
	if err != nil {
		e.Err = urlErrorWrap(p, err)
	}
}

// streamBody is a response body handed to the caller by Open. Closing
// it releases the resources held for the execution.
type streamBody struct {
	io.ReadCloser
	once    sync.Once
	release []func()
}

func (b *streamBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(func() {
		for _, f := range b.release {
			f()
		}
	})
	return err
}

// Get issues a GET to the specified URL, using the same policies
// followed by Do.
//
// To make a request plan with custom headers, use request.NewPlan and
// Client.Do.
func (c *Client) Get(url string) (*request.Execution, error) {
	return Get(c, url)
}

// Head issues a HEAD to the specified URL, using the same policies
// followed by Do.
func (c *Client) Head(url string) (*request.Execution, error) {
	return Head(c, url)
}

// Post issues a POST to the specified URL, using the same policies
// followed by Do.
//
// The body parameter may be nil for an empty body, or may be any of the
// types supported by request.NewPlan and request.BodyBytes, namely:
// string; []byte; io.Reader; and io.ReadCloser.
func (c *Client) Post(url, contentType string, body interface{}) (*request.Execution, error) {
	return Post(c, url, contentType, body)
}

// PostForm issues a POST to the specified URL, with data's keys and
// values URL-encoded as the request body.
//
// The Content-Type header is set to application/x-www-form-urlencoded.
// To set other headers, use request.NewFormPlan and Client.Do.
func (c *Client) PostForm(url string, data url.Values) (*request.Execution, error) {
	return PostForm(c, url, data)
}

// CloseIdleConnections invokes the same method on the client's
// underlying HTTPDoer.
//
// If the HTTPDoer has no CloseIdleConnections method, this method does
// nothing.
func (c *Client) CloseIdleConnections() {
	doer := c.doer()
	if ic, ok := doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

func (c *Client) doer() HTTPDoer {
	if c.HTTPDoer == nil {
		return http.DefaultClient
	}

	return c.HTTPDoer
}

func urlErrorWrap(p *request.Plan, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}

	return &url.Error{
		Op:  urlErrorOp(p.Method),
		URL: p.URL.String(),
		Err: err,
	}
}

// urlErrorOp is lifted verbatim from net/http/client.go
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
