// Package eventlog keeps a bounded in-memory ring of recent security
// events and forwards everything to a durable sink.
//
// Sink writes are fire-and-forget: they run outside the ring lock, their
// failures are logged and counted but never reach the moderation path,
// and nothing is retried.
package eventlog

import (
	"context"
	"sync"
	"time"

	"github.com/chatwarden/chatwarden/common/logging"
	"github.com/chatwarden/chatwarden/internal/metrics"
	"github.com/chatwarden/chatwarden/internal/models"
)

// DefaultCapacity is the retention limit of the in-memory ring.
const DefaultCapacity = 1000

// sinkTimeout bounds each background sink write.
const sinkTimeout = 5 * time.Second

// Sink is the durable append-only store behind the in-memory ring.
type Sink interface {
	AppendEvent(ctx context.Context, evt *models.SecurityEvent) error
	AppendMessage(ctx context.Context, trace *models.MessageTrace) error
}

// Log is the in-memory security event log.
type Log struct {
	mu       sync.Mutex
	capacity int
	events   []models.SecurityEvent // insertion order, oldest first

	sink   Sink
	logger *logging.Logger
}

// New creates a Log retaining at most capacity events. sink may be nil,
// in which case events live only in memory.
func New(capacity int, sink Sink, logger *logging.Logger) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Log{
		capacity: capacity,
		sink:     sink,
		logger:   logger.Component("eventlog"),
	}
}

// Record appends the event to the ring, evicting the oldest entries once
// the ring exceeds its capacity, and forwards it to the durable sink.
func (l *Log) Record(evt models.SecurityEvent) {
	l.mu.Lock()
	l.events = append(l.events, evt)
	if len(l.events) > l.capacity {
		trimmed := make([]models.SecurityEvent, l.capacity)
		copy(trimmed, l.events[len(l.events)-l.capacity:])
		l.events = trimmed
	}
	l.mu.Unlock()

	metrics.EventsRecorded.WithLabelValues(string(evt.Type)).Inc()

	l.forward("event", func(ctx context.Context) error {
		return l.sink.AppendEvent(ctx, &evt)
	})
}

// RecordTrace forwards a raw message trace to the durable sink. Traces
// never enter the in-memory ring.
func (l *Log) RecordTrace(trace models.MessageTrace) {
	l.forward("message", func(ctx context.Context) error {
		return l.sink.AppendMessage(ctx, &trace)
	})
}

// Query returns up to limit events most-recent-first, optionally filtered
// by exact event type (empty means all).
func (l *Log) Query(eventType models.EventType, limit int) []models.SecurityEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 {
		return nil
	}

	out := make([]models.SecurityEvent, 0, limit)
	for i := len(l.events) - 1; i >= 0 && len(out) < limit; i-- {
		if eventType != "" && l.events[i].Type != eventType {
			continue
		}
		out = append(out, l.events[i])
	}
	return out
}

// Stats returns event counts per type over the full retained ring.
func (l *Log) Stats() map[models.EventType]int {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := make(map[models.EventType]int)
	for _, evt := range l.events {
		stats[evt.Type]++
	}
	return stats
}

// Len returns the number of retained events.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Reset drops all retained events. Intended for tests.
func (l *Log) Reset() {
	l.mu.Lock()
	l.events = nil
	l.mu.Unlock()
}

func (l *Log) forward(kind string, write func(ctx context.Context) error) {
	if l.sink == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		defer cancel()
		if err := write(ctx); err != nil {
			l.logger.Error("durable sink write failed", "kind", kind, "err", err)
			metrics.SinkFailures.WithLabelValues(kind).Inc()
		}
	}()
}
