// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/gogama/httpfacade/request"
)

// A Policy controls if and how retries are done in an HTTP request
// plan execution. After every attempt, the client asks the Policy
// whether to retry and, if so, how long to wait first.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	Decider
	Waiter
}

// DefaultPolicy composes DefaultDecider and DefaultWaiter.
var DefaultPolicy Policy = policy{DefaultDecider, DefaultWaiter}

// Never is a policy that never retries. It is the policy the facade
// installs unless retries are configured.
var Never Policy = policy{Times(0), DefaultWaiter}

type policy struct {
	decider Decider
	waiter  Waiter
}

// NewPolicy composes a Decider and a Waiter into a retry Policy.
func NewPolicy(d Decider, w Waiter) Policy {
	if d == nil {
		panic("httpfacade/retry: nil decider")
	}
	if w == nil {
		panic("httpfacade/retry: nil waiter")
	}
	return policy{decider: d, waiter: w}
}

// Limited returns a policy allowing up to times retries of idempotent
// requests on transient errors and on status codes 429, 502, 503 and
// 504, waiting with jittered exponential backoff between base and max.
// If times is not positive, Never is returned.
func Limited(times int, base, max time.Duration) Policy {
	if times <= 0 {
		return Never
	}
	d := Times(times).And(Idempotent).And(StatusCode(429, 502, 503, 504).Or(TransientErr))
	return NewPolicy(d, NewExpWaiter(base, max, time.Now()))
}

func (p policy) Decide(e *request.Execution) bool {
	return p.decider.Decide(e)
}

func (p policy) Wait(e *request.Execution) time.Duration {
	return p.waiter.Wait(e)
}
