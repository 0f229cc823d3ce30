package analytics

import (
	"context"
	"sync"
	"time"

	"foozam/internal/logging"
)

// Sink delivers one event.
type Sink interface {
	Send(ctx context.Context, e Event) error
}

// Dispatcher delivers events in the background. Enqueue never blocks: a
// full queue drops the event, and delivery errors are only logged.
type Dispatcher struct {
	sink    Sink
	timeout time.Duration
	queue   chan Event

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(sink Sink, size int, timeout time.Duration) *Dispatcher {
	if size <= 0 {
		size = 256
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		sink:    sink,
		timeout: timeout,
		queue:   make(chan Event, size),
		done:    make(chan struct{}),
	}
}

// Run drains the queue until Stop is called.
func (d *Dispatcher) Run() {
	defer close(d.done)
	log := logging.Base().WithField("component", "analytics")

	for e := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.sink.Send(ctx, e); err != nil {
			log.WithError(err).WithField("eventType", e.EventType).Debug("ANALYTICS_SEND_FAILED")
		}
		cancel()
	}
}

// Enqueue reports whether the event was accepted.
func (d *Dispatcher) Enqueue(e Event) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- e:
		return true
	default:
		logging.Base().WithField("eventType", e.EventType).Debug("ANALYTICS_QUEUE_FULL")
		return false
	}
}

// Stop closes the queue and waits for queued events until ctx is done.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
