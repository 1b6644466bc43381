// Package observe holds a value whose changes can be awaited.
package observe

import (
	"context"
	"sync"
)

// Value is a mutex-guarded value. Every Set wakes goroutines waiting on the
// channel returned by Snapshot.
type Value[T any] struct {
	mu      sync.Mutex
	v       T
	changed chan struct{}
}

// NewValue creates a Value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{v: initial, changed: make(chan struct{})}
}

// Get returns the current value.
func (o *Value[T]) Get() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.v
}

// Snapshot returns the current value and a channel closed on the next Set.
func (o *Value[T]) Snapshot() (T, <-chan struct{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.v, o.changed
}

// Set replaces the value and wakes waiters.
func (o *Value[T]) Set(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.v = v
	close(o.changed)
	o.changed = make(chan struct{})
}

// Update applies fn under the lock and wakes waiters when fn reports a change.
func (o *Value[T]) Update(fn func(cur T) (T, bool)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	next, ok := fn(o.v)
	if !ok {
		return
	}
	o.v = next
	close(o.changed)
	o.changed = make(chan struct{})
}

// WaitUntil blocks until done(value) is true or ctx ends, and returns the
// last observed value.
func (o *Value[T]) WaitUntil(ctx context.Context, done func(T) bool) T {
	for {
		v, ch := o.Snapshot()
		if done(v) {
			return v
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return o.Get()
		}
	}
}
