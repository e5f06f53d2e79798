package analytics

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event summarizes one copilot turn for downstream analytics.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type,omitempty"`
	SessionID  string    `json:"sessionId"`
	Intent     string    `json:"intent,omitempty"`
	Page       string    `json:"page,omitempty"`
	LeadTier   string    `json:"leadTier,omitempty"`
	References int       `json:"references"`
	Timestamp  time.Time `json:"timestamp"`
}

// Sink receives drained event batches. Delivery is at-most-once: a batch
// that fails to flush is dropped, never re-queued.
type Sink func(ctx context.Context, events []Event) error

const defaultCapacity = 50

// Emitter queues events in memory, dropping the oldest on overflow.
// Track never blocks the caller and never surfaces a failure; analytics
// must not be observable in the response path.
type Emitter struct {
	mu       sync.Mutex
	queue    []Event
	capacity int
}

// NewEmitter creates an Emitter. capacity <= 0 uses the default.
func NewEmitter(capacity int) *Emitter {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Emitter{capacity: capacity}
}

// Track enriches the event with an id and timestamp and enqueues it.
func (e *Emitter) Track(event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[analytics] track panic suppressed: %v", r)
		}
	}()

	event.ID = uuid.NewString()
	event.Timestamp = time.Now().UTC()

	e.mu.Lock()
	e.queue = append(e.queue, event)
	if len(e.queue) > e.capacity {
		e.queue = e.queue[len(e.queue)-e.capacity:]
	}
	e.mu.Unlock()

	log.Printf("[analytics] event session=%s intent=%s tier=%s refs=%d",
		event.SessionID, event.Intent, event.LeadTier, event.References)
}

// Flush drains the queue into the sink. Errors are logged and swallowed;
// the drained batch is not restored.
func (e *Emitter) Flush(ctx context.Context, sink Sink) {
	if sink == nil {
		return
	}

	e.mu.Lock()
	batch := e.queue
	e.queue = nil
	e.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	if err := sink(ctx, batch); err != nil {
		log.Printf("[analytics] flush failed, dropping %d events: %v", len(batch), err)
	}
}

// LogSink drains batches to the process log. Stand-in until a real
// analytics destination is configured.
func LogSink(_ context.Context, events []Event) error {
	log.Printf("[analytics] flushed %d events", len(events))
	return nil
}

// RunFlusher periodically drains the emitter into the sink until ctx is
// cancelled.
func (e *Emitter) RunFlusher(ctx context.Context, interval time.Duration, sink Sink) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.Flush(context.Background(), sink)
			return
		case <-ticker.C:
			e.Flush(ctx, sink)
		}
	}
}

// Pending reports the current queue depth.
func (e *Emitter) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}
