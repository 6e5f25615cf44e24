package workqueue

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Latch_WaitBlocksUntilCountedDown(t *testing.T) {
	l := NewLatch(3)

	done := make(chan struct{})
	go func() {
		l.Wait()
		close(done)
	}()

	l.CountDown()
	l.CountDown()

	select {
	case <-done:
		t.Fatal("Wait returned before the latch reached zero")
	default:
	}

	l.CountDown()
	<-done
}

func Test_Latch_ZeroCount_WaitReturnsImmediately(t *testing.T) {
	l := NewLatch(0)
	l.Wait()
}

func Test_Run_InvokesEveryIndexExactlyOnce(t *testing.T) {
	pool, err := NewPool(4)
	require.NoError(t, err)
	defer pool.Close()

	seen := make([]atomic.Int64, 20)
	require.NoError(t, Run(pool, len(seen), func(i int) {
		seen[i].Add(1)
	}))

	for i := range seen {
		require.Equal(t, int64(1), seen[i].Load())
	}
}

func Test_Run_ZeroItems_IsNoop(t *testing.T) {
	pool, err := NewPool(2)
	require.NoError(t, err)
	defer pool.Close()

	require.NoError(t, Run(pool, 0, func(int) {
		t.Fatal("fn must not be called for zero items")
	}))
}
