// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpfacade

import (
	"context"
	"net/http"

	"github.com/gogama/httpfacade/request"
	"github.com/gogama/httpfacade/transient"
)

// A Callback receives the outcome of an asynchronous call. Exactly one
// of its methods is invoked, once, on a goroutine owned by the facade.
type Callback interface {
	// OnSuccess receives a result with a 2XX status code.
	OnSuccess(r *Result)
	// OnFailure receives an *ArgumentError, a *NetworkError, an
	// *ApplicationError (which includes the response body), or
	// ErrClosed.
	OnFailure(err error)
}

// CallbackFuncs adapts a pair of functions to the Callback interface.
// A nil function ignores its outcome.
type CallbackFuncs struct {
	Success func(*Result)
	Failure func(error)
}

// OnSuccess calls c.Success.
func (c CallbackFuncs) OnSuccess(r *Result) {
	if c.Success != nil {
		c.Success(r)
	}
}

// OnFailure calls c.Failure.
func (c CallbackFuncs) OnFailure(err error) {
	if c.Failure != nil {
		c.Failure(err)
	}
}

// FetchAsync issues a GET without blocking the caller and reports the
// outcome to cb.
//
// At most the configured number of asynchronous calls run at once;
// further calls wait for a slot, or fail with a *NetworkError of kind
// transient.Canceled or transient.Timeout if ctx ends, or their tag is
// canceled, first.
func (f *Facade) FetchAsync(ctx context.Context, url string, cb Callback, opts ...CallOption) {
	const op = "FetchAsync"
	f.dispatch(ctx, op, url, cb, func() (*request.Plan, error) {
		return newPlan(ctx, op, http.MethodGet, url, opts)
	})
}

// SubmitFormAsync POSTs fields as an application/x-www-form-urlencoded
// body without blocking the caller and reports the outcome to cb.
func (f *Facade) SubmitFormAsync(ctx context.Context, url string, fields map[string]string, cb Callback, opts ...CallOption) {
	const op = "SubmitFormAsync"
	f.dispatch(ctx, op, url, cb, func() (*request.Plan, error) {
		return newFormPlan(ctx, op, url, fields, opts)
	})
}

func (f *Facade) dispatch(ctx context.Context, op, url string, cb Callback, plan func() (*request.Plan, error)) {
	if cb == nil {
		panic("httpfacade: nil callback")
	}
	checkCtx(ctx)

	f.mu.RLock()
	if f.closed {
		f.mu.RUnlock()
		go cb.OnFailure(ErrClosed)
		return
	}
	f.wg.Add(1)
	f.mu.RUnlock()

	p, err := plan()
	if err != nil {
		go func() {
			defer f.wg.Done()
			cb.OnFailure(err)
		}()
		return
	}
	p, release := f.tags.track(p)

	go func() {
		defer f.wg.Done()
		if err := f.sem.Acquire(p.Context(), 1); err != nil {
			release()
			cb.OnFailure(&NetworkError{Op: op, URL: url, Kind: transient.Categorize(err), Err: err})
			return
		}
		r, err := f.send(op, p)
		f.sem.Release(1)
		release()
		if err != nil {
			cb.OnFailure(err)
			return
		}
		cb.OnSuccess(r)
	}()
}
