// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"net/http"
	"syscall"
	"testing"
	"time"

	"github.com/gogama/httpfacade/request"
	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	get := &request.Plan{Method: "GET"}
	t.Run("Decider", func(t *testing.T) {
		s := []int{429, 502, 503, 504}
		for i := 0; i < DefaultTimes; i++ {
			assert.True(t, DefaultPolicy.Decide(&request.Execution{
				Plan:     get,
				Attempt:  i,
				Response: &http.Response{StatusCode: s[i%len(s)]},
			}))
			assert.True(t, DefaultPolicy.Decide(&request.Execution{
				Plan:    get,
				Attempt: i,
				Err:     syscall.ECONNRESET,
			}))
		}
		assert.False(t, DefaultPolicy.Decide(&request.Execution{
			Plan:    get,
			Attempt: DefaultTimes,
			Err:     syscall.ETIMEDOUT,
		}))
	})
	t.Run("Waiter", func(t *testing.T) {
		for i, max := range []int{50, 100, 200, 400, 800, 1000} {
			w := DefaultPolicy.Wait(&request.Execution{Attempt: i})
			assert.GreaterOrEqual(t, w, time.Duration(0))
			assert.LessOrEqual(t, w, time.Duration(max)*time.Millisecond)
		}
	})
}

func TestNever(t *testing.T) {
	get := &request.Plan{Method: "GET"}
	assert.False(t, Never.Decide(&request.Execution{Plan: get}))
	assert.False(t, Never.Decide(&request.Execution{Plan: get, Err: syscall.ECONNRESET}))
}

func TestNewPolicy(t *testing.T) {
	p := &testPolicy{}
	t.Run("Bad Args", func(t *testing.T) {
		assert.PanicsWithValue(t, "httpfacade/retry: nil decider", func() { NewPolicy(nil, p) })
		assert.PanicsWithValue(t, "httpfacade/retry: nil waiter", func() { NewPolicy(p, nil) })
	})
	t.Run("Normal", func(t *testing.T) {
		P := NewPolicy(p, p)
		assert.True(t, P.Decide(&request.Execution{}))
		assert.Equal(t, 1, p.d)
		assert.Equal(t, time.Second, P.Wait(&request.Execution{}))
		assert.Equal(t, 1, p.w)
	})
}

func TestLimited(t *testing.T) {
	assert.Equal(t, Never, Limited(0, time.Millisecond, time.Second))
	assert.Equal(t, Never, Limited(-1, time.Millisecond, time.Second))

	p := Limited(2, time.Millisecond, 4*time.Millisecond)
	get := &request.Plan{Method: "GET"}
	post := &request.Plan{Method: "POST"}
	assert.True(t, p.Decide(&request.Execution{Plan: get, Attempt: 1, Err: syscall.ECONNREFUSED}))
	assert.False(t, p.Decide(&request.Execution{Plan: get, Attempt: 2, Err: syscall.ECONNREFUSED}))
	assert.False(t, p.Decide(&request.Execution{Plan: post, Err: syscall.ECONNREFUSED}))
	assert.LessOrEqual(t, p.Wait(&request.Execution{Attempt: 10}), 4*time.Millisecond)
}

type testPolicy struct {
	d int
	w int
}

func (p *testPolicy) Decide(_ *request.Execution) bool {
	p.d++
	return true
}

func (p *testPolicy) Wait(_ *request.Execution) time.Duration {
	p.w++
	return time.Second
}
