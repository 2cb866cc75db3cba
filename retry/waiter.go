// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"math/rand"
	"sync"
	"time"

	"github.com/gogama/httpfacade/request"
)

// A Waiter specifies how long to wait before retrying a failed HTTP
// request attempt. The client only consults the Waiter after the
// Decider has indicated a retry.
//
// Implementations of Waiter must be safe for concurrent use by multiple
// goroutines.
type Waiter interface {
	Wait(e *request.Execution) time.Duration
}

// DefaultWaiter is a jittered exponential backoff waiter with a base of
// 50 milliseconds and a ceiling of one second.
var DefaultWaiter = NewExpWaiter(50*time.Millisecond, 1*time.Second, time.Now())

// NewFixedWaiter constructs a Waiter which always waits d.
func NewFixedWaiter(d time.Duration) Waiter {
	return fixedWaiter(d)
}

type fixedWaiter time.Duration

func (w fixedWaiter) Wait(_ *request.Execution) time.Duration {
	return time.Duration(w)
}

// NewExpWaiter constructs a Waiter implementing exponential backoff.
//
// The wait ceiling for attempt n is base*2^n, capped at max. With a nil
// jitter the ceiling itself is returned; otherwise a uniformly random
// duration in [0, ceiling) is returned ("full jitter").
//
// Parameter jitter may be nil, a time.Time or int64 seed, or a
// *rand.Rand. Any other value panics.
func NewExpWaiter(base, max time.Duration, jitter interface{}) Waiter {
	if base < 1 {
		panic("httpfacade/retry: base must be positive")
	}
	if max < base {
		panic("httpfacade/retry: max must be at least base")
	}

	return &jitterExpWaiter{
		base: base,
		max:  max,
		rand: jitterToRand(jitter),
	}
}

type jitterExpWaiter struct {
	base time.Duration
	max  time.Duration
	rand *rand.Rand
	lock sync.Mutex
}

func (w *jitterExpWaiter) Wait(e *request.Execution) time.Duration {
	ceil := int64(w.max)
	if e.Attempt < 62 {
		exp := int64(1) << e.Attempt
		if c := int64(w.base) * exp; c/exp == int64(w.base) && c < ceil {
			ceil = c
		}
	}

	if w.rand == nil || ceil <= 0 {
		return time.Duration(ceil)
	}

	w.lock.Lock()
	defer w.lock.Unlock()
	return time.Duration(w.rand.Int63n(ceil))
}

func jitterToRand(jitter interface{}) *rand.Rand {
	switch j := jitter.(type) {
	case nil:
		return nil
	case time.Time:
		return rand.New(rand.NewSource(j.UnixNano()))
	case int64:
		return rand.New(rand.NewSource(j))
	case *rand.Rand:
		if j == nil {
			panic("httpfacade/retry: jitter may not be a typed nil")
		}
		return j
	default:
		panic("httpfacade/retry: invalid jitter type")
	}
}
