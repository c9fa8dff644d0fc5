package notification

import (
	"context"
	"log/slog"
	"sync"
)

const defaultQueueSize = 256

// Dispatcher queues events and hands them to a Sink from a background
// worker. Notify never blocks: when the queue is full the event is dropped.
type Dispatcher struct {
	sink   Sink
	logger *slog.Logger
	queue  chan Event

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a dispatcher with room for queueSize pending events
func NewDispatcher(sink Sink, queueSize int, logger *slog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		sink:   sink,
		logger: logger,
		queue:  make(chan Event, queueSize),
	}
}

// Notify enqueues event for delivery
func (d *Dispatcher) Notify(_ context.Context, event Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("notification dropped, dispatcher closed", "type", event.Type)
		return
	}

	select {
	case d.queue <- event:
	default:
		d.logger.Warn("notification dropped, queue full",
			"type", event.Type,
			"account_id", event.AccountID,
		)
	}
}

// Run delivers queued events until ctx is cancelled or Close has been called
// and the queue is drained.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-d.queue:
			if !ok {
				return nil
			}
			d.deliver(ctx, event)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("notification sink panicked", "type", event.Type, "panic", r)
		}
	}()

	if err := d.sink.Deliver(ctx, event); err != nil {
		d.logger.Error("failed to deliver notification",
			"type", event.Type,
			"account_id", event.AccountID,
			"error", err,
		)
	}
}

// Close stops accepting events. Events already queued are still delivered by Run.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	close(d.queue)
}

// Pending returns the number of queued events
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}
