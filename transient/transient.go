// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// A Category is the category of a network-level error, as reported by
// function Categorize.
//
// The category Not means the error has none of the recognized shapes.
// Categories Timeout, ConnRefused and ConnReset are transient: a retry
// after encountering them has some prospect of success. Categories DNS
// and Canceled are recognized but not transient.
type Category int

const (
	// Not indicates an error which is not recognized, or a nil error.
	Not Category = iota
	// Timeout indicates a client-side timeout, either a dial, read or
	// write deadline on the connection or an expired context deadline.
	//
	// Function Categorize returns Timeout if the error or any of its
	// wrapped causes has a Timeout() function that reports true.
	Timeout
	// ConnRefused indicates the remote host refused the connection, and
	// corresponds to the POSIX error code ECONNREFUSED.
	//
	// Connection refusal is classified as transient because it happens
	// while the service on the remote host is starting or restarting.
	ConnRefused
	// ConnReset indicates the remote host returned an RST packet on a
	// previously active TCP connection, and corresponds to the POSIX
	// error code ECONNRESET.
	ConnReset
	// DNS indicates the host name in the request URL could not be
	// resolved. A DNS lookup which timed out is categorized as Timeout.
	DNS
	// Canceled indicates the request was abandoned because its context
	// was canceled, for example by a cancel-by-tag call.
	Canceled
)

var names = []string{
	"Not",
	"Timeout",
	"ConnRefused",
	"ConnReset",
	"DNS",
	"Canceled",
}

// String returns the name of the category.
func (c Category) String() string {
	if c < 0 || int(c) >= len(names) {
		return "Category(?)"
	}
	return names[c]
}

// Transient reports whether a retry after an error in this category
// has some prospect of success.
func (c Category) Transient() bool {
	return c == Timeout || c == ConnRefused || c == ConnReset
}

// Categorize returns the category of the given error. A nil error, and
// an error with no recognized shape, both produce Not.
//
// In assessing the category, Categorize looks at wrapped cause errors
// contained within err, not just err itself. Categorize never checks if
// an error has a Temporary() function that returns true, as the
// semantics of Temporary() aren't entirely clear.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}

	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return Timeout
	}

	if errors.Is(err, context.Canceled) {
		return Canceled
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if errno == syscall.ECONNRESET {
			return ConnReset
		} else if errno == syscall.ECONNREFUSED {
			return ConnRefused
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return DNS
	}

	return Not
}

type hasTimeout interface {
	Timeout() bool
}
