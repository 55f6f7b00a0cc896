package ratewindow

import (
	"context"
	"sync"
	"time"
)

const memoryShards = 64

// MemoryTracker is the default in-process Tracker. Windows are sharded by
// user ID so concurrent checks for different users do not contend.
type MemoryTracker struct {
	window time.Duration
	burst  int
	shards [memoryShards]memoryShard
}

type memoryShard struct {
	mu      sync.Mutex
	windows map[int64][]time.Time
}

// NewMemoryTracker creates a tracker flagging bursts of at least burst
// messages within the trailing window.
func NewMemoryTracker(window time.Duration, burst int) *MemoryTracker {
	t := &MemoryTracker{window: window, burst: burst}
	for i := range t.shards {
		t.shards[i].windows = make(map[int64][]time.Time)
	}
	return t
}

func (t *MemoryTracker) shard(userID int64) *memoryShard {
	return &t.shards[uint64(userID)%memoryShards]
}

// RecordAndCheck implements Tracker.
func (t *MemoryTracker) RecordAndCheck(_ context.Context, userID int64, now time.Time) (bool, error) {
	s := t.shard(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := append(s.windows[userID], now)
	entries = pruned(entries, now, t.window)
	s.windows[userID] = entries

	return len(entries) >= t.burst, nil
}

// Count implements Tracker.
func (t *MemoryTracker) Count(_ context.Context, userID int64, now time.Time) (int, error) {
	s := t.shard(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.windows[userID]
	if !ok {
		return 0, nil
	}
	entries = pruned(entries, now, t.window)
	s.windows[userID] = entries
	return len(entries), nil
}

// Clear implements Tracker.
func (t *MemoryTracker) Clear(_ context.Context, userID int64) error {
	s := t.shard(userID)
	s.mu.Lock()
	delete(s.windows, userID)
	s.mu.Unlock()
	return nil
}

// Close implements Tracker.
func (t *MemoryTracker) Close() error { return nil }

// pruned drops entries older than the horizon, by absolute age against
// now rather than by position.
func pruned(entries []time.Time, now time.Time, window time.Duration) []time.Time {
	kept := entries[:0]
	for _, e := range entries {
		if now.Sub(e) <= window {
			kept = append(kept, e)
		}
	}
	return kept
}
