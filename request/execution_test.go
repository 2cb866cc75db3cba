// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecution_StatusCode(t *testing.T) {
	e := &Execution{}
	require.Nil(t, e.Response)
	assert.Equal(t, 0, e.StatusCode())
	assert.False(t, e.Success())

	for _, testCase := range []struct {
		code    int
		success bool
	}{{199, false}, {200, true}, {204, true}, {299, true}, {300, false}, {404, false}, {503, false}} {
		e.Response = &http.Response{StatusCode: testCase.code}
		assert.Equal(t, testCase.code, e.StatusCode())
		assert.Equal(t, testCase.success, e.Success(), "status %d", testCase.code)
	}
}

func TestExecution_Header(t *testing.T) {
	e := &Execution{}
	assert.Nil(t, e.Header())
	assert.Empty(t, e.Header().Get("foo"))

	h := http.Header{"Ham": []string{"eggs", "spam"}}
	e.Response = &http.Response{Header: h}
	assert.Equal(t, h, e.Header())
}

func TestExecution_TimeMethods(t *testing.T) {
	e := &Execution{}
	assert.False(t, e.Started())
	assert.False(t, e.Ended())
	assert.Equal(t, time.Duration(0), e.Duration())

	e.Start = time.Now()
	assert.True(t, e.Started())
	assert.False(t, e.Ended())
	time.Sleep(2 * time.Millisecond)
	assert.GreaterOrEqual(t, e.Duration(), 2*time.Millisecond)

	e.End = e.Start.Add(time.Second)
	assert.True(t, e.Ended())
	assert.Equal(t, time.Second, e.Duration())
}

func TestExecution_Timeout(t *testing.T) {
	assert.False(t, (&Execution{}).Timeout())
	assert.False(t, (&Execution{Err: errors.New("foo")}).Timeout())
	assert.True(t, (&Execution{Err: syscall.ETIMEDOUT}).Timeout())
	assert.True(t, (&Execution{Err: &url.Error{Err: syscall.ETIMEDOUT}}).Timeout())
	assert.True(t, (&Execution{Err: &url.Error{Err: context.DeadlineExceeded}}).Timeout())
	assert.False(t, (&Execution{Err: &url.Error{Err: context.Canceled}}).Timeout())
}

func TestExecution_Value(t *testing.T) {
	e := &Execution{}
	assert.Nil(t, e.Value(funKey{}))
	e.SetValue(funKey{}, "ham")
	e.SetValue(funkyKey{}, "eggs")
	assert.Equal(t, "ham", e.Value(funKey{}))
	assert.Equal(t, "eggs", e.Value(funkyKey{}))
	e.SetValue(funKey{}, "spam")
	assert.Equal(t, "spam", e.Value(funKey{}))
}

type funKey struct{}
type funkyKey struct{}
