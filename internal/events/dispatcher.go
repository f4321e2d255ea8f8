package events

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrQueueFull is returned when the async dispatcher cannot accept more events.
var ErrQueueFull = errors.New("event queue full")

// ErrDispatcherClosed is returned by Publish after Close.
var ErrDispatcherClosed = errors.New("event dispatcher closed")

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

type registry struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
}

func (r *registry) Subscribe(eventType EventType, handler EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listeners == nil {
		r.listeners = make(map[EventType][]EventHandler)
	}
	r.listeners[eventType] = append(r.listeners[eventType], handler)
}

func (r *registry) handlers(eventType EventType) []EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]EventHandler{}, r.listeners[eventType]...)
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	registry
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{}
}

// Publish synchronously invokes handlers for the given event.
// Every handler runs; their errors are joined.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, handler := range d.handlers(event.Type) {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AsyncDispatcher queues events and runs handlers on worker goroutines.
type AsyncDispatcher struct {
	registry
	logger *zap.Logger
	queue  chan queuedEvent

	closeMu sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
}

type queuedEvent struct {
	ctx   context.Context
	event Event
}

// NewAsyncDispatcher starts workers goroutines reading from a queue of queueSize events.
func NewAsyncDispatcher(logger *zap.Logger, queueSize, workers int) *AsyncDispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &AsyncDispatcher{
		logger: logger.Named("events"),
		queue:  make(chan queuedEvent, queueSize),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	return d
}

// Publish enqueues the event without waiting for handlers.
// The handler context keeps the caller's values but not its cancellation.
func (d *AsyncDispatcher) Publish(ctx context.Context, event Event) error {
	d.closeMu.RLock()
	defer d.closeMu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), event: event}:
		return nil
	default:
		d.logger.Error("dropping event, queue full",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
		)
		return ErrQueueFull
	}
}

// Close stops accepting events and waits until queued events are handled or ctx ends.
func (d *AsyncDispatcher) Close(ctx context.Context) error {
	d.closeMu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.closeMu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *AsyncDispatcher) run() {
	defer d.wg.Done()
	for item := range d.queue {
		d.deliver(item)
	}
}

func (d *AsyncDispatcher) deliver(item queuedEvent) {
	for _, handler := range d.handlers(item.event.Type) {
		func() {
			defer func() {
				if r := recover(); r != nil {
					d.logger.Error("event handler panicked",
						zap.String("event_type", string(item.event.Type)),
						zap.Any("panic", r),
					)
				}
			}()
			if err := handler(item.ctx, item.event); err != nil {
				d.logger.Warn("event handler failed",
					zap.String("event_type", string(item.event.Type)),
					zap.String("ticket_id", item.event.TicketID),
					zap.Error(err),
				)
			}
		}()
	}
}
