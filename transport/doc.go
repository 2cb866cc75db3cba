// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transport builds the single http.RoundTripper shared by every
// call the facade makes.
//
// The transport enforces the connection-level timeouts from
// timeout.Phases: the dial and TLS handshake are bounded by the connect
// timeout, and every socket read and write is bounded by its own
// deadline, so a stalled peer fails the call while a slow but steady
// download does not. HTTP/2 is negotiated through ALPN using
// golang.org/x/net/http2.
//
// Certificates and host names are verified normally. The InsecureHosts
// setting relaxes only the host name check, only for the hosts listed,
// and still requires a certificate chain that verifies against the
// system roots.
package transport
