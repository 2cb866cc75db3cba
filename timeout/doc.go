// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout holds the two kinds of timeout the facade applies.
//
// Phases holds the connection-level timeouts fixed when the shared
// client is configured: how long to wait for a connection, and how long
// any single socket read or write may block. The transport package
// enforces them.
//
// Policy sets an optional overall timeout on each HTTP request attempt
// within a plan execution, including on retries. By default no attempt
// timeout is set and only the phase timeouts apply.
package timeout
