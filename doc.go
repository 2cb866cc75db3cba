// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package httpfacade provides one-call HTTP operations over a single,
process-wide, pre-configured client: fetch a URL as text, bytes or a
stream, submit a form, upload files, and do the same asynchronously
with a callback.

The simplest use goes through the shared facade, which is created on
first use with the default configuration (15s connect, 20s read and 20s
write timeouts, a 10 MiB on-disk response cache, no cookie jar, strict
certificate verification and no retry):

	text, err := httpfacade.FetchText(ctx, "https://www.example.com")
	...
	reply, err := httpfacade.SubmitForm(ctx, "https://example.com/form",
		map[string]string{"key": "value", "id": "123"})
	...
	reply, err := httpfacade.UploadFiles(ctx, "https://example.com/upload",
		map[string]string{"album": "holiday"},
		[]string{"photo.png", "notes.txt"},
		[]string{"image", "attachment"})

To configure the shared facade, call Init before anything else uses it:

	cfg, err := config.Load("httpfacade.toml")
	...
	if err := httpfacade.Init(cfg); err != nil {
		...
	}

A second Init returns ErrAlreadyInitialized: the shared facade is never
reconfigured once published. Independent facades can be built with New.

Calls fail with one of three error types. An *ArgumentError means the
input was rejected before any network I/O. A *NetworkError means no
HTTP response was received; its Kind tells timeouts, refused and reset
connections, DNS failures and cancellations apart. An *ApplicationError
means the server answered with a non-2XX status; it carries the status,
header and body.

Asynchronous calls report to a Callback, exactly one of whose methods is
invoked on a goroutine owned by the facade:

	httpfacade.FetchAsync(ctx, url, httpfacade.CallbackFuncs{
		Success: func(r *httpfacade.Result) { ... },
		Failure: func(err error) { ... },
	}, httpfacade.WithTag("feed"))
	...
	httpfacade.Cancel("feed")

Underneath the facade is Client, which executes request plans from
package request with an optional retry policy (package retry), attempt
timeouts (package timeout) and event handlers installed in a
HandlerGroup. Handlers are how logging (LogHandlers) and Prometheus
metrics (Metrics.Install) are plugged in:

	handlers := &httpfacade.HandlerGroup{}
	handlers.PushBack(httpfacade.BeforeAttempt, httpfacade.HandlerFunc(
		func(_ httpfacade.Event, e *request.Execution) {
			fmt.Printf("%s attempt %d to %s\n", e.ID, e.Attempt, e.Request.URL)
		}))
	client := &httpfacade.Client{Handlers: handlers}
*/
package httpfacade
