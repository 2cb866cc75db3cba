// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpfacade

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"reflect"
	"sync"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/gogama/httpfacade/cache"
	"github.com/gogama/httpfacade/config"
	"github.com/gogama/httpfacade/request"
	"github.com/gogama/httpfacade/retry"
	"github.com/gogama/httpfacade/timeout"
	"github.com/gogama/httpfacade/transport"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"
)

// A Facade offers one-call HTTP operations over a configured Client:
// fetch a URL as text, bytes or a stream; submit a form; upload files;
// and the asynchronous variants. Facade is safe for concurrent use by
// multiple goroutines.
type Facade struct {
	backend Backend
	logger  log.Interface
	sem     *semaphore.Weighted
	tags    tagRegistry

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New builds a facade from cfg. The configuration is fully applied to
// the transport, cache and client before New returns.
//
// If the cache directory cannot be created, New logs a warning and
// continues without a cache.
func New(cfg config.Config, opts ...Option) (*Facade, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = newLogger(cfg.Log.Level)
	}

	backend := o.backend
	if backend == nil {
		var err error
		backend, err = newClient(&cfg, &o, logger)
		if err != nil {
			return nil, err
		}
	}

	return &Facade{
		backend: backend,
		logger:  logger,
		sem:     semaphore.NewWeighted(int64(cfg.MaxAsync)),
	}, nil
}

func newLogger(level string) log.Interface {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return &log.Logger{
		Handler: cli.New(os.Stderr),
		Level:   lvl,
	}
}

func newClient(cfg *config.Config, o *options, logger log.Interface) (*Client, error) {
	rt := o.transport
	if rt == nil {
		t, err := transport.New(transport.Settings{
			Phases:        cfg.Phases(),
			InsecureHosts: cfg.TLS.InsecureHosts,
			RootCAs:       o.rootCAs,
		})
		if err != nil {
			return nil, err
		}
		rt = t
	}

	handlers := &HandlerGroup{}
	var metrics *Metrics
	if cfg.Metrics.Enabled {
		reg := o.registerer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		metrics = NewMetrics(reg, cfg.Metrics.Namespace)
		metrics.Install(handlers)
	}

	if !cfg.Cache.Disabled {
		store, err := cache.NewDisk(cfg.Cache.Dir, cfg.Cache.MaxBytes)
		if err != nil {
			logger.WithError(err).WithField("dir", cfg.Cache.Dir).Warn("response cache disabled")
		} else {
			ct := &cache.Transport{Store: store, Next: rt, Logger: logger}
			if metrics != nil {
				ct.Observe = metrics.ObserveCache
			}
			rt = ct
		}
	}

	if cfg.UserAgent != "" {
		handlers.PushBack(BeforeAttempt, userAgent(cfg.UserAgent))
	}
	LogHandlers(handlers, logger)

	return &Client{
		HTTPDoer:      &http.Client{Transport: rt},
		RetryPolicy:   retry.Limited(cfg.Retry.Times, cfg.Retry.BaseWait.Std(), cfg.Retry.MaxWait.Std()),
		TimeoutPolicy: timeout.Fixed(cfg.Timeouts.Attempt.Std()),
		Handlers:      handlers,
	}, nil
}

func userAgent(ua string) Handler {
	return HandlerFunc(func(_ Event, e *request.Execution) {
		if e.Request.Header.Get("User-Agent") != "" {
			return
		}
		e.Request.Header = e.Request.Header.Clone()
		e.Request.Header.Set("User-Agent", ua)
	})
}

// Fetch issues a GET and returns the buffered result. If the status
// code is not 2XX the result is returned together with an
// *ApplicationError.
func (f *Facade) Fetch(ctx context.Context, url string, opts ...CallOption) (*Result, error) {
	p, err := newPlan(ctx, "Fetch", http.MethodGet, url, opts)
	if err != nil {
		return nil, err
	}
	return f.do("Fetch", p)
}

// FetchText issues a GET and returns the body of a 2XX response as
// text.
func (f *Facade) FetchText(ctx context.Context, url string, opts ...CallOption) (string, error) {
	p, err := newPlan(ctx, "FetchText", http.MethodGet, url, opts)
	if err != nil {
		return "", err
	}
	r, err := f.do("FetchText", p)
	if err != nil {
		return "", err
	}
	return r.Text(), nil
}

// FetchBytes issues a GET and returns the body of a 2XX response.
func (f *Facade) FetchBytes(ctx context.Context, url string, opts ...CallOption) ([]byte, error) {
	p, err := newPlan(ctx, "FetchBytes", http.MethodGet, url, opts)
	if err != nil {
		return nil, err
	}
	r, err := f.do("FetchBytes", p)
	if err != nil {
		return nil, err
	}
	return r.Bytes(), nil
}

// FetchStream issues a GET and returns a 2XX response with its body
// unread. The caller must close the stream.
func (f *Facade) FetchStream(ctx context.Context, url string, opts ...CallOption) (*Stream, error) {
	const op = "FetchStream"
	p, err := newPlan(ctx, op, http.MethodGet, url, opts)
	if err != nil {
		return nil, err
	}
	p, release := f.tags.track(p)
	e, err := f.backend.Open(p)
	if err != nil {
		release()
		return nil, newNetworkError(op, p, err)
	}
	if !e.Success() {
		release()
		return nil, newResult(e).applicationError()
	}
	s := newStream(e)
	s.release = release
	return s, nil
}

// SubmitForm POSTs fields as an application/x-www-form-urlencoded body
// and returns the body of a 2XX response as text.
func (f *Facade) SubmitForm(ctx context.Context, url string, fields map[string]string, opts ...CallOption) (string, error) {
	const op = "SubmitForm"
	p, err := newFormPlan(ctx, op, url, fields, opts)
	if err != nil {
		return "", err
	}
	r, err := f.do(op, p)
	if err != nil {
		return "", err
	}
	return r.Text(), nil
}

// UploadFiles POSTs a multipart/form-data body and returns the body of
// a 2XX response as text. The body holds one part per entry in fields,
// followed by one part per file, where files[i] is sent under the form
// field name fieldNames[i]. The Content-Type of each file part is
// derived from the file extension.
//
// If files and fieldNames differ in length, or a file cannot be read,
// an *ArgumentError is returned and no request is sent.
func (f *Facade) UploadFiles(ctx context.Context, url string, fields map[string]string, files, fieldNames []string, opts ...CallOption) (string, error) {
	const op = "UploadFiles"
	if len(files) != len(fieldNames) {
		return "", &ArgumentError{
			Op:  op,
			Msg: fmt.Sprintf("%d files but %d field names", len(files), len(fieldNames)),
		}
	}
	m := &request.Multipart{}
	m.AddFields(fields)
	for i := range files {
		if err := m.AddFilePath(fieldNames[i], files[i]); err != nil {
			return "", argumentError(op, err)
		}
	}
	p, err := request.NewMultipartPlan(checkCtx(ctx), url, m)
	if err != nil {
		return "", argumentError(op, err)
	}
	if err = applyCallOptions(op, p, opts); err != nil {
		return "", err
	}
	r, err := f.do(op, p)
	if err != nil {
		return "", err
	}
	return r.Text(), nil
}

// Cancel aborts every in-flight call, synchronous or asynchronous,
// made with the given tag, and returns how many were aborted. An
// asynchronous call still waiting for a free slot counts as in flight;
// it fails with a *NetworkError of kind transient.Canceled without
// being sent.
func (f *Facade) Cancel(tag interface{}) int {
	return f.tags.cancel(tag)
}

// Close waits for in-flight asynchronous calls to finish and closes
// idle connections. Asynchronous calls started after Close fail with
// ErrClosed; synchronous calls remain usable.
func (f *Facade) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.wg.Wait()
	f.backend.CloseIdleConnections()
}

func (f *Facade) do(op string, p *request.Plan) (*Result, error) {
	p, release := f.tags.track(p)
	defer release()
	return f.send(op, p)
}

func (f *Facade) send(op string, p *request.Plan) (*Result, error) {
	e, err := f.backend.Do(p)
	if err != nil {
		return nil, newNetworkError(op, p, err)
	}
	r := newResult(e)
	if !r.Success() {
		return r, r.applicationError()
	}
	return r, nil
}

func newPlan(ctx context.Context, op, method, url string, opts []CallOption) (*request.Plan, error) {
	p, err := request.NewPlanWithContext(checkCtx(ctx), method, url, nil)
	if err != nil {
		return nil, argumentError(op, err)
	}
	if err = applyCallOptions(op, p, opts); err != nil {
		return nil, err
	}
	return p, nil
}

func newFormPlan(ctx context.Context, op, url string, fields map[string]string, opts []CallOption) (*request.Plan, error) {
	p, err := request.NewFormPlan(checkCtx(ctx), url, fields)
	if err != nil {
		return nil, argumentError(op, err)
	}
	if err = applyCallOptions(op, p, opts); err != nil {
		return nil, err
	}
	return p, nil
}

func checkCtx(ctx context.Context) context.Context {
	if ctx == nil {
		panic("httpfacade: nil context")
	}
	return ctx
}

func applyCallOptions(op string, p *request.Plan, opts []CallOption) error {
	if p.URL.Scheme != "http" && p.URL.Scheme != "https" {
		return &ArgumentError{Op: op, Msg: fmt.Sprintf("unsupported URL scheme %q", p.URL.Scheme)}
	}
	if p.URL.Host == "" {
		return &ArgumentError{Op: op, Msg: "missing host in URL"}
	}
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.tag != nil && !reflect.TypeOf(o.tag).Comparable() {
		return &ArgumentError{Op: op, Msg: fmt.Sprintf("tag of type %T is not comparable", o.tag)}
	}
	p.Tag = o.tag
	for key, values := range o.header {
		for _, value := range values {
			p.Header.Add(key, value)
		}
	}
	return nil
}
