// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies network-level failures from HTTP request
// execution. The category tells a retry policy whether another attempt
// has a prospect of success, and tells a caller of the facade which kind
// of network failure ended its call (name resolution, refused or reset
// connection, timeout, or cancellation).
//
// Package transient depends only on the standard library.
package transient
