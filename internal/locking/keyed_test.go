package locking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutualExclusion(t *testing.T) {
	locks := NewKeyed()
	ctx := context.Background()

	var inside int
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locks.Acquire(ctx, "order-1")
			require.NoError(t, err)
			defer release()

			inside++
			assert.Equal(t, 1, inside)
			inside--
		}()
	}
	wg.Wait()
}

func TestKeyedIndependentKeys(t *testing.T) {
	locks := NewKeyed()
	ctx := context.Background()

	releaseA, err := locks.Acquire(ctx, "order-a")
	require.NoError(t, err)
	defer releaseA()

	// A held lock on one key never blocks another key.
	releaseB, err := locks.Acquire(ctx, "order-b")
	require.NoError(t, err)
	releaseB()
}

func TestKeyedAcquireTimesOut(t *testing.T) {
	locks := NewKeyed()

	release, err := locks.Acquire(context.Background(), "order-1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = locks.Acquire(ctx, "order-1")
	assert.Error(t, err)
}

func TestKeyedEntriesAreReclaimed(t *testing.T) {
	locks := NewKeyed()
	ctx := context.Background()

	release, err := locks.Acquire(ctx, "order-1")
	require.NoError(t, err)
	release()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.entries)
}
