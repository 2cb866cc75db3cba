// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the core types Plan (describes one outgoing
HTTP call) and Execution (describes the execution of a Plan), and the
body builders the facade uses to describe its calls.

A Plan looks like a stripped-down http.Request with server-side fields
removed and the body replaced by a pre-buffered []byte, so the same
plan can be sent again if a retry policy asks for it. A plan carries an
optional opaque Tag which the client uses to cancel in-flight calls:

	p, err := request.NewPlan("GET", "https://example.com", nil)
	...
	p.Tag = "avatar-refresh"
	e, err := client.Do(p)

Form and multipart plans are built from field maps and file parts:

	p, err := request.NewFormPlan(ctx, "https://example.com/login",
		map[string]string{"user": "ann", "pass": "secret"})

	m := &request.Multipart{}
	m.AddField("caption", "sunset")
	err = m.AddFilePath("photo", "/sdcard/DCIM/photo.png")
	p, err := request.NewMultipartPlan(ctx, "https://example.com/upload", m)

The Execution is both the output of the client's executing methods and
the input to timeout policies, retry policies and event handlers.
*/
package request
