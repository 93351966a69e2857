package eventbus

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Handler receives events published on a Bus
type Handler[T any] func(T)

// Bus is an in-process publish/subscribe channel for a single event type.
// Delivery is synchronous and follows subscription order.
type Bus[T any] struct {
	name   string
	logger *zap.Logger

	mu       sync.RWMutex
	handlers []Handler[T]
}

// NewBus creates a bus for the named event
func NewBus[T any](name string, logger *zap.Logger) *Bus[T] {
	return &Bus[T]{
		name:   name,
		logger: logger,
	}
}

// Subscribe registers handler for the lifetime of the bus
func (b *Bus[T]) Subscribe(handler Handler[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers = append(b.handlers, handler)
}

// Publish delivers evt to every subscriber. A panicking handler is logged
// and skipped; the remaining handlers still receive the event.
func (b *Bus[T]) Publish(evt T) {
	b.mu.RLock()
	handlers := make([]Handler[T], len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for i, handler := range handlers {
		b.deliver(i, handler, evt)
	}
}

func (b *Bus[T]) deliver(index int, handler Handler[T], evt T) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event handler panicked",
				zap.String("event", b.name),
				zap.Int("handler", index),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	handler(evt)
}
