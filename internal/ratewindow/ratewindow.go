// Package ratewindow implements per-user sliding-window burst detection.
//
// Every message records a timestamp into the sender's window; entries
// older than the configured horizon are pruned by absolute age on every
// access, so out-of-order timestamps are tolerated. A burst is flagged
// when the pruned window holds at least Burst entries.
package ratewindow

import (
	"context"
	"time"
)

// Tracker tracks recent message timestamps per user.
type Tracker interface {
	// RecordAndCheck appends now to the user's window, prunes entries older
	// than the horizon, and reports whether the window constitutes a burst.
	// An unknown user gets a fresh empty window. The window is mutated
	// regardless of the outcome.
	RecordAndCheck(ctx context.Context, userID int64, now time.Time) (bool, error)

	// Count prunes the user's window against now and returns its size
	// without recording.
	Count(ctx context.Context, userID int64, now time.Time) (int, error)

	// Clear drops the user's window entirely. Clearing an unknown user is
	// a no-op.
	Clear(ctx context.Context, userID int64) error

	// Close releases any resources held by the tracker.
	Close() error
}
