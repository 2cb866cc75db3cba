// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpfacade

import (
	"context"
	"errors"
	"net/url"
	"syscall"
	"testing"

	"github.com/gogama/httpfacade/request"
	"github.com/gogama/httpfacade/transient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkError(t *testing.T) {
	p, err := request.NewPlan("GET", "http://example.com/x", nil)
	require.NoError(t, err)

	testCases := []struct {
		name      string
		err       error
		kind      transient.Category
		timeout   bool
		temporary bool
	}{
		{
			name:      "reset",
			err:       &url.Error{Op: "Get", URL: "http://example.com/x", Err: syscall.ECONNRESET},
			kind:      transient.ConnReset,
			temporary: true,
		},
		{
			name:      "deadline",
			err:       &url.Error{Op: "Get", URL: "http://example.com/x", Err: context.DeadlineExceeded},
			kind:      transient.Timeout,
			timeout:   true,
			temporary: true,
		},
		{
			name: "canceled",
			err:  context.Canceled,
			kind: transient.Canceled,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			netErr := newNetworkError("Fetch", p, testCase.err)

			assert.Equal(t, "Fetch", netErr.Op)
			assert.Equal(t, "http://example.com/x", netErr.URL)
			assert.Equal(t, testCase.kind, netErr.Kind)
			assert.Equal(t, testCase.timeout, netErr.Timeout())
			assert.Equal(t, testCase.temporary, netErr.Temporary())
			var urlErr *url.Error
			assert.False(t, errors.As(netErr, &urlErr))
		})
	}

	netErr := newNetworkError("FetchText", p, &url.Error{Op: "Get", URL: "u", Err: syscall.ECONNREFUSED})
	assert.EqualError(t, netErr, `httpfacade: FetchText "http://example.com/x": `+syscall.ECONNREFUSED.Error())
	assert.ErrorIs(t, netErr, syscall.ECONNREFUSED)
}

func TestApplicationError(t *testing.T) {
	err := &ApplicationError{StatusCode: 500, Status: "500 Internal Server Error", Body: []byte("oops")}
	assert.EqualError(t, err, "httpfacade: server returned 500 Internal Server Error")
}

func TestArgumentError(t *testing.T) {
	cause := errors.New("bad input")
	err := argumentError("UploadFiles", cause)
	assert.EqualError(t, err, "httpfacade: UploadFiles: bad input")
	assert.ErrorIs(t, err, cause)
	assert.NoError(t, (&ArgumentError{Op: "Fetch", Msg: "m"}).Unwrap())
}
