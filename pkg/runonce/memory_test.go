package runonce

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBarrierRunsOnce(t *testing.T) {
	b := NewMemoryBarrier()
	const callers = 16

	var executions atomic.Int32
	results := make([][]byte, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := b.Do(context.Background(), "step", func(ctx context.Context) ([]byte, error) {
				n := executions.Add(1)
				return []byte(fmt.Sprintf("run-%d", n)), nil
			})
			assert.NoError(t, err)
			results[i] = out
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, executions.Load(), "fn must run exactly once per name")
	for _, r := range results {
		assert.Equal(t, []byte("run-1"), r, "every caller must see the leader's result")
	}
}

func TestMemoryBarrierPropagatesError(t *testing.T) {
	b := NewMemoryBarrier()
	boom := errors.New("boom")

	_, err := b.Do(context.Background(), "failing", func(ctx context.Context) ([]byte, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	// Followers of a failed step see the same error, not a fresh run.
	_, err = b.Do(context.Background(), "failing", func(ctx context.Context) ([]byte, error) {
		t.Fatal("fn must not run again")
		return nil, nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestMemoryBarrierNamesAreIndependent(t *testing.T) {
	b := NewMemoryBarrier()

	a, err := b.Do(context.Background(), "a", func(ctx context.Context) ([]byte, error) {
		return []byte("a"), nil
	})
	require.NoError(t, err)

	c, err := b.Do(context.Background(), "b", func(ctx context.Context) ([]byte, error) {
		return []byte("b"), nil
	})
	require.NoError(t, err)

	assert.NotEqual(t, a, c)
}
