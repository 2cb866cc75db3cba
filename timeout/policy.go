// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"time"

	"github.com/gogama/httpfacade/request"
)

// A Policy defines a timeout policy which may be plugged into the
// client (httpfacade.Client) to direct how to set the overall timeout
// for the initial attempt, as well as for any subsequent retries.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	// Timeout returns the timeout to set on the next HTTP request
	// attempt within the plan execution.
	Timeout(e *request.Execution) time.Duration
}

// DefaultPolicy is the default timeout policy. It is Infinite, leaving
// the connect, read and write phase timeouts as the only limits on a
// request attempt.
var DefaultPolicy = Infinite

// Infinite is a built-in timeout policy which never times out.
var Infinite Policy = Fixed(1<<63 - 1)

// Fixed constructs a timeout policy that uses the same value to set
// every attempt timeout. A non-positive d is treated as Infinite.
func Fixed(d time.Duration) Policy {
	if d <= 0 {
		d = 1<<63 - 1
	}
	return policy([]time.Duration{d})
}

// Adaptive constructs a timeout policy that varies the next timeout
// value if the previous attempt timed out.
//
// Parameter usual is the timeout for an initial attempt and for any
// retry where the immediately preceding attempt did not time out.
// Parameter after holds the values used once attempts start timing
// out: after[0] following the first timeout, after[1] following the
// second, and the last element thereafter.
//
// 	p := Adaptive(200*time.Millisecond, time.Second, 10*time.Second)
func Adaptive(usual time.Duration, after ...time.Duration) Policy {
	p := make([]time.Duration, 1, 1+len(after))
	p[0] = usual
	return policy(append(p, after...))
}

type policy []time.Duration

func (p policy) Timeout(e *request.Execution) time.Duration {
	if !e.Timeout() {
		return p[0]
	}

	i := e.AttemptTimeouts
	if i > len(p)-1 {
		i = len(p) - 1
	}

	return p[i]
}
