package parallel

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPool(t *testing.T) {
	for _, n := range []int{1, 4, 0} {
		pool := Start(n)

		var count atomic.Int64
		for range 100 {
			pool.Do(func() {
				count.Add(1)
			})
		}
		pool.Wait(true)

		assert.Equal(t, int64(100), count.Load(), "workers %d", n)
		assert.Greater(t, pool.Size(), 0)
	}
}

func TestPoolFuncs(t *testing.T) {
	pool := Start(3)
	do, wait := pool.Funcs()

	var count atomic.Int64
	for range 10 {
		do(func() { count.Add(1) })
	}
	pool.Close()
	wait(false)
	assert.Equal(t, int64(10), count.Load())

	// closing twice is harmless
	assert.NotPanics(t, func() { wait(true) })
}

func TestRows(t *testing.T) {
	for _, n := range []int{1, 3, 0} {
		seen := make([]int, 50)
		err := Rows(len(seen), n, func(y int) error {
			seen[y]++
			return nil
		})
		assert.NoError(t, err)
		for y, c := range seen {
			assert.Equal(t, 1, c, "row %d with %d workers", y, n)
		}
	}

	boom := errors.New("boom")
	err := Rows(10, 2, func(y int) error {
		if y == 7 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, Rows(0, 2, func(int) error { return boom }))
}
