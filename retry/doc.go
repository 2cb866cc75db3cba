// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry provides opt-in policies for retrying failed attempts
// during an HTTP request plan execution, and how long to wait before
// retrying.
//
// The facade never retries unless configured to, so Never is the
// policy installed by default. A Policy is assembled from a Decider and
// a Waiter:
//
//     decider := retry.Times(3).
//                    And(retry.Idempotent).
//                    And(retry.StatusCode(503).Or(retry.TransientErr))
//     waiter := retry.NewExpWaiter(100*time.Millisecond, 2*time.Second, time.Now())
//     policy := retry.NewPolicy(decider, waiter)
//
// Limited builds the same shape of policy from plain numbers, which is
// how the configuration file enables retries.
package retry
