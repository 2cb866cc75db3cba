// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpfacade

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gogama/httpfacade/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetShared(t *testing.T) {
	reset := func() {
		if f := shared.Swap(nil); f != nil {
			f.Close()
		}
	}
	reset()
	t.Cleanup(reset)
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Cache.Disabled = true
	return cfg
}

func TestInit(t *testing.T) {
	t.Run("once", func(t *testing.T) {
		resetShared(t)

		require.NoError(t, Init(testConfig(), UseLogger(quietLogger())))
		first := Shared()
		err := Init(testConfig(), UseLogger(quietLogger()))

		assert.Same(t, ErrAlreadyInitialized, err)
		assert.Same(t, first, Shared())
	})
	t.Run("after Shared", func(t *testing.T) {
		resetShared(t)
		t.Setenv("XDG_CACHE_HOME", t.TempDir())

		f := Shared()
		err := Init(testConfig())

		assert.Same(t, ErrAlreadyInitialized, err)
		assert.Same(t, f, Shared())
	})
	t.Run("second builds nothing", func(t *testing.T) {
		resetShared(t)
		require.NoError(t, Init(testConfig(), UseLogger(quietLogger())))

		cfg := config.Default()
		cfg.Cache.Dir = filepath.Join(t.TempDir(), "second")
		cfg.Metrics.Enabled = true
		reg := prometheus.NewRegistry()
		err := Init(cfg, UseLogger(quietLogger()), UseRegisterer(reg))

		assert.Same(t, ErrAlreadyInitialized, err)
		assert.NoDirExists(t, cfg.Cache.Dir)
		families, err := reg.Gather()
		require.NoError(t, err)
		assert.Empty(t, families)
	})
	t.Run("invalid config", func(t *testing.T) {
		resetShared(t)
		cfg := testConfig()
		cfg.Log.Level = "loud"

		err := Init(cfg)

		assert.EqualError(t, err, "config: invalid Log.Level (oneof=debug info warn error fatal)")
		assert.Nil(t, shared.Load())
		require.NoError(t, Init(testConfig(), UseLogger(quietLogger())))
	})
}

func TestShared(t *testing.T) {
	resetShared(t)
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	const n = 8
	got := make([]*Facade, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			got[i] = Shared()
		}()
	}
	wg.Wait()

	require.NotNil(t, got[0])
	for i := range got {
		assert.Same(t, got[0], got[i])
	}
}

func TestSharedHelpers(t *testing.T) {
	resetShared(t)
	require.NoError(t, Init(testConfig(), UseLogger(quietLogger())))
	ctx := context.Background()

	text, err := FetchText(ctx, facadeURL("/text"))
	require.NoError(t, err)
	assert.Equal(t, textPayload, text)

	b, err := FetchBytes(ctx, facadeURL("/bytes"))
	require.NoError(t, err)
	assert.Equal(t, binaryPayload, b)

	r, err := Fetch(ctx, facadeURL("/text"), WithTag("shared"))
	require.NoError(t, err)
	assert.Equal(t, "shared", r.Tag)

	s, err := FetchStream(ctx, facadeURL("/text"))
	require.NoError(t, err)
	assert.NoError(t, s.Close())

	text, err = SubmitForm(ctx, facadeURL("/form"), map[string]string{"a": "1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"1"}`, text)

	_, err = UploadFiles(ctx, facadeURL("/upload"), nil, []string{"x"}, nil)
	var argErr *ArgumentError
	assert.ErrorAs(t, err, &argErr)

	ch := make(chan asyncOutcome, 2)
	FetchAsync(ctx, facadeURL("/text"), asyncCallback(ch))
	SubmitFormAsync(ctx, facadeURL("/form"), map[string]string{"b": "2"}, asyncCallback(ch))
	for i := 0; i < 2; i++ {
		o := <-ch
		assert.NoError(t, o.err)
	}

	assert.Equal(t, 0, Cancel("nothing in flight"))
}
