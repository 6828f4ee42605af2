package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher allows event publication/subscription. Handler errors never
// propagate to the publisher: the originating transaction has already
// committed by the time an event is published.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// inMemoryDispatcher invokes handlers synchronously. Used in tests and as
// the delivery backend of the async dispatcher.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	logger    *zap.Logger
}

// NewInMemoryDispatcher creates a synchronous dispatcher instance.
func NewInMemoryDispatcher(logger *zap.Logger) Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]EventHandler),
		logger:    logger,
	}
}

// Publish invokes handlers for the given event, continuing past failures.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	stamp(&event)
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			d.logger.Warn("event handler failed",
				zap.String("event_type", string(event.Type)),
				zap.String("event_id", event.ID),
				zap.Error(err))
		}
	}
	return nil
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// AsyncDispatcher buffers events and delivers them on a background goroutine,
// so the publishing request never waits on notification work. Events
// published after Close, or when the buffer is full, are dropped with a log
// line: delivery is best-effort by contract.
type AsyncDispatcher struct {
	inner  Dispatcher
	queue  chan Event
	logger *zap.Logger
	done   chan struct{}
	once   sync.Once
}

// NewAsyncDispatcher creates a buffered dispatcher. Run must be called to
// start delivery.
func NewAsyncDispatcher(buffer int, logger *zap.Logger) *AsyncDispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsyncDispatcher{
		inner:  NewInMemoryDispatcher(logger),
		queue:  make(chan Event, buffer),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Publish enqueues the event without blocking the caller.
func (d *AsyncDispatcher) Publish(ctx context.Context, event Event) error {
	stamp(&event)
	select {
	case d.queue <- event:
	default:
		d.logger.Warn("event queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID))
	}
	return nil
}

// Subscribe registers a handler for the given event type.
func (d *AsyncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.inner.Subscribe(eventType, handler)
}

// Run drains the queue until ctx is cancelled, then delivers whatever is
// already buffered and returns.
func (d *AsyncDispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case event := <-d.queue:
			_ = d.inner.Publish(context.WithoutCancel(ctx), event)
		case <-ctx.Done():
			for {
				select {
				case event := <-d.queue:
					_ = d.inner.Publish(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

// Wait blocks until Run has returned. Used during shutdown.
func (d *AsyncDispatcher) Wait(timeout time.Duration) {
	select {
	case <-d.done:
	case <-time.After(timeout):
	}
}

func stamp(event *Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
}
