// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/gogama/httpfacade/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWaiter(t *testing.T) {
	max := []time.Duration{
		50 * time.Millisecond,
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		1 * time.Second,
		1 * time.Second,
	}
	for i := range max {
		wait := DefaultWaiter.Wait(&request.Execution{Attempt: i})
		assert.GreaterOrEqual(t, wait, time.Duration(0))
		assert.LessOrEqual(t, wait, max[i])
	}
}

func TestNewFixedWaiter(t *testing.T) {
	w := NewFixedWaiter(3 * time.Second)
	assert.Equal(t, 3*time.Second, w.Wait(&request.Execution{}))
	assert.Equal(t, 3*time.Second, w.Wait(&request.Execution{Attempt: 9}))
}

func TestNewExpWaiter(t *testing.T) {
	base, max := 1*time.Millisecond, 1*time.Hour

	t.Run("invalid args", func(t *testing.T) {
		assert.Panics(t, func() { NewExpWaiter(-1, max, nil) }, "negative base")
		assert.Panics(t, func() { NewExpWaiter(0, max, nil) }, "zero base")
		assert.Panics(t, func() { NewExpWaiter(2, 1, nil) }, "max less than base")
		assert.Panics(t, func() { NewExpWaiter(base, max, float64(1)) }, "float64")
		var nilRand *rand.Rand
		assert.Panics(t, func() { NewExpWaiter(base, max, nilRand) }, "nil *rand.Rand")
	})
	t.Run("no jitter", func(t *testing.T) {
		w := NewExpWaiter(base, max, nil)
		require.IsType(t, &jitterExpWaiter{}, w)
		assert.Nil(t, w.(*jitterExpWaiter).rand)
		for i := 0; i < 10; i++ {
			assert.Equal(t, time.Duration(1<<i)*time.Millisecond, w.Wait(&request.Execution{Attempt: i}))
		}
		assert.Equal(t, max, w.Wait(&request.Execution{Attempt: 25}))
		assert.Equal(t, max, w.Wait(&request.Execution{Attempt: 1000}))
		assert.Equal(t, max, w.Wait(&request.Execution{Attempt: math.MaxInt32}))
	})
	t.Run("with jitter", func(t *testing.T) {
		for _, jitter := range []interface{}{time.Now(), int64(1), rand.New(rand.NewSource(0))} {
			w := NewExpWaiter(base, max, jitter)
			for j := 0; j < 100; j++ {
				d := w.Wait(&request.Execution{Attempt: j})
				assert.GreaterOrEqual(t, d, time.Duration(0))
				assert.LessOrEqual(t, d, max)
			}
		}
	})
	t.Run("concurrent", func(t *testing.T) {
		w := NewExpWaiter(base, max, int64(0))
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 22; j++ {
					d := w.Wait(&request.Execution{Attempt: j})
					assert.LessOrEqual(t, d, time.Duration(1<<j)*time.Millisecond)
				}
			}()
		}
		wg.Wait()
	})
}
