// Package ledger maintains per-user cumulative suspicion state.
//
// Points only accumulate; there is no automatic decay. The single removal
// path is an explicit operator clear. Mutations for a given user are
// serialized on a per-record mutex while different users proceed in
// parallel.
package ledger

import (
	"sync"
	"time"

	"github.com/chatwarden/chatwarden/internal/models"
)

// Result reports the outcome of a point addition.
type Result struct {
	// TotalPoints is the user's cumulative score after the addition.
	TotalPoints int

	// CrossedThreshold is true whenever the running total is at or over
	// the threshold, including on every call after the first crossing.
	CrossedThreshold bool

	// FirstCrossing is true only on the call that moved the total from
	// under to at-or-over the threshold. Used by edge-triggered alerting.
	FirstCrossing bool
}

type record struct {
	mu          sync.Mutex
	userName    string
	totalPoints int
	reasons     []models.ReasonEntry
	signalled   bool
}

// Ledger is the keyed store of suspicion records.
type Ledger struct {
	mu      sync.RWMutex
	records map[int64]*record
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{records: make(map[int64]*record)}
}

func (l *Ledger) getOrCreate(userID int64) *record {
	l.mu.RLock()
	r, ok := l.records[userID]
	l.mu.RUnlock()
	if ok {
		return r
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if r, ok = l.records[userID]; ok {
		return r
	}
	r = &record{}
	l.records[userID] = r
	return r
}

// AddPoints lazily creates the user's record, increments the total by
// points, and appends the reason to the history. The returned Result
// reflects the state after this addition, evaluated against threshold.
func (l *Ledger) AddPoints(userID int64, userName, reason string, points int, now time.Time, threshold int) Result {
	r := l.getOrCreate(userID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if userName != "" {
		r.userName = userName
	}
	r.totalPoints += points
	r.reasons = append(r.reasons, models.ReasonEntry{
		Reason:    reason,
		Points:    points,
		Timestamp: now,
	})

	crossed := r.totalPoints >= threshold
	first := crossed && !r.signalled
	if crossed {
		r.signalled = true
	}

	return Result{
		TotalPoints:      r.totalPoints,
		CrossedThreshold: crossed,
		FirstCrossing:    first,
	}
}

// Clear removes the user's record entirely. It reports whether a record
// existed; clearing an unknown user is a no-op.
func (l *Ledger) Clear(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.records[userID]
	delete(l.records, userID)
	return ok
}

// Lookup returns a read-only snapshot of the user's record, or false if
// the user has never triggered a rule.
func (l *Ledger) Lookup(userID int64) (*models.SuspicionRecord, bool) {
	l.mu.RLock()
	r, ok := l.records[userID]
	l.mu.RUnlock()
	if !ok {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snap := &models.SuspicionRecord{
		UserID:      userID,
		UserName:    r.userName,
		TotalPoints: r.totalPoints,
		Reasons:     append([]models.ReasonEntry(nil), r.reasons...),
	}
	return snap, true
}

// Len returns the number of users with at least one recorded violation.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Reset drops all records. Intended for tests.
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.records = make(map[int64]*record)
	l.mu.Unlock()
}
