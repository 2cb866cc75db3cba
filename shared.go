// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpfacade

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gogama/httpfacade/config"
)

var (
	sharedMu sync.Mutex
	shared   atomic.Pointer[Facade]
)

// Init creates the process-wide shared facade from cfg. It must be
// called before the first call to Shared or any package-level call
// helper; afterwards it returns ErrAlreadyInitialized without building
// anything, and the shared facade is unchanged.
func Init(cfg config.Config, opts ...Option) error {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared.Load() != nil {
		return ErrAlreadyInitialized
	}
	f, err := New(cfg, opts...)
	if err != nil {
		return err
	}
	shared.Store(f)
	return nil
}

// Shared returns the process-wide shared facade, creating it from
// config.Default if Init was never called. Every call returns the same
// pointer.
func Shared() *Facade {
	if f := shared.Load(); f != nil {
		return f
	}
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if f := shared.Load(); f != nil {
		return f
	}
	f, err := New(config.Default())
	if err != nil {
		panic("httpfacade: default configuration: " + err.Error())
	}
	shared.Store(f)
	return f
}

// Fetch calls Fetch on the shared facade.
func Fetch(ctx context.Context, url string, opts ...CallOption) (*Result, error) {
	return Shared().Fetch(ctx, url, opts...)
}

// FetchText calls FetchText on the shared facade.
func FetchText(ctx context.Context, url string, opts ...CallOption) (string, error) {
	return Shared().FetchText(ctx, url, opts...)
}

// FetchBytes calls FetchBytes on the shared facade.
func FetchBytes(ctx context.Context, url string, opts ...CallOption) ([]byte, error) {
	return Shared().FetchBytes(ctx, url, opts...)
}

// FetchStream calls FetchStream on the shared facade.
func FetchStream(ctx context.Context, url string, opts ...CallOption) (*Stream, error) {
	return Shared().FetchStream(ctx, url, opts...)
}

// FetchAsync calls FetchAsync on the shared facade.
func FetchAsync(ctx context.Context, url string, cb Callback, opts ...CallOption) {
	Shared().FetchAsync(ctx, url, cb, opts...)
}

// SubmitForm calls SubmitForm on the shared facade.
func SubmitForm(ctx context.Context, url string, fields map[string]string, opts ...CallOption) (string, error) {
	return Shared().SubmitForm(ctx, url, fields, opts...)
}

// SubmitFormAsync calls SubmitFormAsync on the shared facade.
func SubmitFormAsync(ctx context.Context, url string, fields map[string]string, cb Callback, opts ...CallOption) {
	Shared().SubmitFormAsync(ctx, url, fields, cb, opts...)
}

// UploadFiles calls UploadFiles on the shared facade.
func UploadFiles(ctx context.Context, url string, fields map[string]string, files, fieldNames []string, opts ...CallOption) (string, error) {
	return Shared().UploadFiles(ctx, url, fields, files, fieldNames, opts...)
}

// Cancel calls Cancel on the shared facade.
func Cancel(tag interface{}) int {
	return Shared().Cancel(tag)
}
