package lockreg

import (
	"context"
	"fmt"
	"sync"
)

// Registry hands out one exclusive lock per connection id, created on first use.
// Entries are never evicted; the map is bounded by the number of distinct connections.
type Registry struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{locks: make(map[string]chan struct{})}
}

// Acquire blocks until the connection's lock is held or ctx is done.
// The returned release func is safe to call more than once.
func (r *Registry) Acquire(ctx context.Context, connectionID string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", connectionID, err)
	}
	l := r.lockFor(connectionID)
	select {
	case l <- struct{}{}:
		return sync.OnceFunc(func() { <-l }), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire lock %s: %w", connectionID, ctx.Err())
	}
}

// Len returns the number of connections that have a lock.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}

// lockFor holds the registry mutex only for the lookup or insert.
func (r *Registry) lockFor(connectionID string) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[connectionID]
	if !ok {
		l = make(chan struct{}, 1)
		r.locks[connectionID] = l
	}
	return l
}
