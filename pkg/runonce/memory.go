package runonce

import (
	"context"
	"sync"
)

// MemoryBarrier is an in-process Barrier for single-node deployments and
// tests. Concurrent callers with the same name block until the first
// caller's result is available.
type MemoryBarrier struct {
	mu      sync.Mutex
	results map[string]*memoryResult
}

type memoryResult struct {
	done  chan struct{}
	value []byte
	err   error
}

func NewMemoryBarrier() *MemoryBarrier {
	return &MemoryBarrier{results: make(map[string]*memoryResult)}
}

func (b *MemoryBarrier) Do(ctx context.Context, name string, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	b.mu.Lock()
	r, ok := b.results[name]
	if !ok {
		// First caller becomes the leader and runs fn.
		r = &memoryResult{done: make(chan struct{})}
		b.results[name] = r
		b.mu.Unlock()

		r.value, r.err = fn(ctx)
		close(r.done)
		return r.value, r.err
	}
	b.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.done:
		return r.value, r.err
	}
}
