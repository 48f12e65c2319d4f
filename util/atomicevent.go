package util

import (
	"context"
	"sync"
)

// AtomicEvent holds the latest value sent and a pending notification.
// Senders never block; a slow consumer only sees the most recent value.
type AtomicEvent[T any] struct {
	mu     sync.Mutex
	value  T
	notify chan struct{}
}

func NewAtomicEvent[T any]() *AtomicEvent[T] {
	return &AtomicEvent[T]{notify: make(chan struct{}, 1)}
}

// Send replaces the value and raises the notification if none is pending.
func (ae *AtomicEvent[T]) Send(event T) {
	ae.mu.Lock()
	defer ae.mu.Unlock()
	ae.value = event
	select {
	case ae.notify <- struct{}{}:
	default:
	}
}

// Channel fires once per batch of sends.
func (ae *AtomicEvent[T]) Channel() <-chan struct{} {
	return ae.notify
}

func (ae *AtomicEvent[T]) Value() T {
	ae.mu.Lock()
	defer ae.mu.Unlock()
	return ae.value
}

func (ae *AtomicEvent[T]) HasPending() bool {
	return len(ae.notify) > 0
}

// Consume calls fn with the latest value after every notification until
// ctx is done.
func (ae *AtomicEvent[T]) Consume(ctx context.Context, fn func(T)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ae.notify:
			fn(ae.Value())
		}
	}
}
