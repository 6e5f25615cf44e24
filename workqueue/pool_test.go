package workqueue

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_NewPool_RunsSubmittedTasks(t *testing.T) {
	pool, err := NewPool(4)
	require.NoError(t, err)
	defer pool.Close()

	var counter atomic.Int64
	latch := NewLatch(10)
	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(func() {
			counter.Add(1)
			latch.CountDown()
		}))
	}
	latch.Wait()

	require.Equal(t, int64(10), counter.Load())
}

func Test_NewPool_DefaultSize(t *testing.T) {
	pool, err := NewPool(0)
	require.NoError(t, err)
	defer pool.Close()

	done := make(chan struct{})
	require.NoError(t, pool.Submit(func() { close(done) }))
	<-done
}
