// Package notify delivers structured events (stock changes, low stock,
// order creation) to an external emitter. Delivery is best-effort and fully
// decoupled from the mutation that produced the event: a slow or failing
// emitter can never fail or delay a sale.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/squaremart/stockd/internal/metrics"
)

// Event is a notification about something that already happened.
type Event struct {
	Kind     string    `json:"kind"`
	ItemCode string    `json:"item_code"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

// Emitter delivers events to the outside world (inbox, SMS gateway, ...).
// Implementations must treat delivery as best-effort; returned errors are
// logged and dropped, never propagated to the mutation path.
type Emitter interface {
	Emit(ctx context.Context, e Event) error
}

// LogEmitter writes events to the structured log. The default emitter when
// no external channel is configured.
type LogEmitter struct {
	Log *slog.Logger
}

func (l *LogEmitter) Emit(_ context.Context, e Event) error {
	l.Log.Info("notification", "kind", e.Kind, "item_code", e.ItemCode, "message", e.Message)
	return nil
}

// Dispatcher queues events and delivers them on a background goroutine.
// Publish never blocks; when the queue is full the event is dropped and
// counted (the reconciliation sweep closes any gap that matters).
type Dispatcher struct {
	emitter Emitter
	log     *slog.Logger
	queue   chan Event

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewDispatcher starts a dispatcher with the given queue capacity.
func NewDispatcher(emitter Emitter, capacity int, log *slog.Logger) *Dispatcher {
	if capacity <= 0 {
		capacity = 256
	}
	d := &Dispatcher{
		emitter: emitter,
		log:     log,
		queue:   make(chan Event, capacity),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for e := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := d.emitter.Emit(ctx, e); err != nil {
			d.log.Warn("notification delivery failed", "kind", e.Kind, "item_code", e.ItemCode, "err", err)
		}
		cancel()
	}
}

// Publish enqueues an event without blocking. Safe to call after Close, in
// which case the event is dropped.
func (d *Dispatcher) Publish(kind, itemCode, message string) {
	e := Event{Kind: kind, ItemCode: itemCode, Message: message, At: time.Now().UTC()}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- e:
	default:
		metrics.EventsDroppedTotal.Inc()
		d.log.Warn("notification queue full, event dropped", "kind", e.Kind, "item_code", e.ItemCode)
	}
}

// Close stops accepting events and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
}
