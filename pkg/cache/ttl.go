// Package cache holds short lived in-process snapshots of data read from the database
package cache

import (
	"context"
	"sync"
	"time"
)

const DefaultTTL = 5 * time.Second

type Clock func() time.Time

type entry[T any] struct {
	value    T
	storedAt time.Time
}

// call is a load in progress for one key
type call[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// TTL caches the result of a loader per key for a fixed duration. Failed loads are not cached.
// Concurrent misses on the same key share one load; other keys are never blocked by it.
type TTL[T any] struct {
	ttl   time.Duration
	clock Clock

	mutex    sync.Mutex
	entries  map[string]entry[T]
	inflight map[string]*call[T]
}

func NewTTL[T any](ttl time.Duration, clock Clock) *TTL[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = time.Now
	}

	return &TTL[T]{
		ttl:      ttl,
		clock:    clock,
		entries:  map[string]entry[T]{},
		inflight: map[string]*call[T]{},
	}
}

func (c *TTL[T]) Get(ctx context.Context, key string, load func(ctx context.Context) (T, error)) (T, error) {
	c.mutex.Lock()

	if cached, exists := c.entries[key]; exists && c.clock().Sub(cached.storedAt) < c.ttl {
		c.mutex.Unlock()
		return cached.value, nil
	}

	if running, exists := c.inflight[key]; exists {
		c.mutex.Unlock()

		select {
		case <-running.done:
			return running.value, running.err
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}

	current := &call[T]{done: make(chan struct{})}
	c.inflight[key] = current
	c.mutex.Unlock()

	current.value, current.err = load(ctx)

	c.mutex.Lock()
	delete(c.inflight, key)
	if current.err == nil {
		now := c.clock()
		c.evictExpired(now)
		c.entries[key] = entry[T]{value: current.value, storedAt: now}
	}
	c.mutex.Unlock()

	close(current.done)

	if current.err != nil {
		var zero T
		return zero, current.err
	}

	return current.value, nil
}

func (c *TTL[T]) Invalidate(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.entries, key)
}

func (c *TTL[T]) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return len(c.entries)
}

func (c *TTL[T]) evictExpired(now time.Time) {
	for key, cached := range c.entries {
		if now.Sub(cached.storedAt) >= c.ttl {
			delete(c.entries, key)
		}
	}
}
