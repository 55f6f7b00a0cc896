package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwarden/chatwarden/internal/alerts"
	"github.com/chatwarden/chatwarden/internal/config"
	"github.com/chatwarden/chatwarden/internal/engine"
	"github.com/chatwarden/chatwarden/internal/eventlog"
	"github.com/chatwarden/chatwarden/internal/ledger"
	"github.com/chatwarden/chatwarden/internal/models"
	"github.com/chatwarden/chatwarden/internal/ratewindow"
)

type fakeActions struct {
	mu       sync.Mutex
	timeouts int
	fail     bool
}

func (f *fakeActions) DeleteMessage(context.Context, int64, int64, string) error { return nil }

func (f *fakeActions) TimeoutUser(context.Context, int64, time.Duration, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("gateway unavailable")
	}
	f.timeouts++
	return nil
}

func (f *fakeActions) Notify(context.Context, int64, string, string) error { return nil }

type fixture struct {
	svc     *Service
	store   *config.Store
	ledger  *ledger.Ledger
	log     *eventlog.Log
	actions *fakeActions
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.Load("")
	require.NoError(t, err)
	store := config.NewStaticStore(cfg)

	l := ledger.New()
	log := eventlog.New(eventlog.DefaultCapacity, nil, nil)
	tracker := ratewindow.NewMemoryTracker(cfg.Spam.Window, cfg.Spam.Burst)
	actions := &fakeActions{}
	eng := engine.New(store, tracker, l, log, actions, alerts.NopNotifier{}, nil)

	return &fixture{
		svc:     New(store, l, log, tracker, eng, nil),
		store:   store,
		ledger:  l,
		log:     log,
		actions: actions,
	}
}

func seedEvents(log *eventlog.Log, n int, typ models.EventType) {
	for i := 0; i < n; i++ {
		log.Record(models.SecurityEvent{
			Timestamp:   time.Now(),
			UserID:      int64(i),
			UserName:    fmt.Sprintf("user-%d", i),
			Type:        typ,
			Description: fmt.Sprintf("event %d", i),
			Level:       models.LevelLow,
		})
	}
}

func TestStatusSummarizesRecentEvents(t *testing.T) {
	f := newFixture(t)
	seedEvents(f.log, 8, models.EventMemberJoin)
	f.log.Record(models.SecurityEvent{
		Timestamp:   time.Now(),
		UserID:      99,
		UserName:    "chatty",
		Type:        models.EventSpam,
		Description: strings.Repeat("x", 80),
		Level:       models.LevelHigh,
	})

	st := f.svc.Status()

	assert.True(t, st.AutoModeration)
	assert.Equal(t, 3, st.Threshold)
	assert.Equal(t, 9, st.RetainedEvents)
	require.Len(t, st.RecentEvents, 5)
	assert.Equal(t, models.EventSpam, st.RecentEvents[0].Type, "newest first")
	assert.Len(t, st.RecentEvents[0].Description, 50, "long descriptions truncated")
}

func TestStatusTruncatesOnRuneBoundary(t *testing.T) {
	f := newFixture(t)
	f.log.Record(models.SecurityEvent{
		Timestamp:   time.Now(),
		UserID:      1,
		UserName:    "chatty",
		Type:        models.EventSuspiciousContent,
		Description: strings.Repeat("ü", 60),
		Level:       models.LevelMedium,
	})

	st := f.svc.Status()

	require.Len(t, st.RecentEvents, 1)
	desc := st.RecentEvents[0].Description
	assert.True(t, utf8.ValidString(desc))
	assert.Equal(t, 50, utf8.RuneCountInString(desc))
}

func TestScanUserRatings(t *testing.T) {
	f := newFixture(t)
	now := time.Now()

	assert.Equal(t, RatingSafe, f.svc.ScanUser(1).Rating)

	f.ledger.AddPoints(2, "mild", "suspicious_content", 1, now, 3)
	rep := f.svc.ScanUser(2)
	assert.Equal(t, RatingSuspicious, rep.Rating)
	assert.Equal(t, 1, rep.TotalPoints)

	f.ledger.AddPoints(3, "bad", "invite_link", 3, now, 3)
	assert.Equal(t, RatingDangerous, f.svc.ScanUser(3).Rating)
}

func TestScanUserRecentReasons(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	for _, reason := range []string{"a", "b", "c", "d"} {
		f.ledger.AddPoints(1, "user", reason, 1, now, 100)
	}

	rep := f.svc.ScanUser(1)
	assert.Equal(t, []string{"b", "c", "d"}, rep.RecentReasons)
}

func TestLogsClampsLimit(t *testing.T) {
	f := newFixture(t)
	seedEvents(f.log, 40, models.EventMemberJoin)

	assert.Len(t, f.svc.Logs("", 0), 10, "default limit")
	assert.Len(t, f.svc.Logs("", 100), 25, "capped at maximum")
	assert.Len(t, f.svc.Logs("", 7), 7)
	assert.Empty(t, f.svc.Logs(models.EventSpam, 10), "type filter")
}

func TestStatsTopFiveDescending(t *testing.T) {
	f := newFixture(t)
	seedEvents(f.log, 6, models.EventMemberJoin)
	seedEvents(f.log, 4, models.EventSpam)
	seedEvents(f.log, 3, models.EventInviteLink)
	seedEvents(f.log, 2, models.EventMemberLeave)
	seedEvents(f.log, 2, models.EventNewAccount)
	seedEvents(f.log, 1, models.EventManualWarning)

	st := f.svc.Stats()

	assert.Equal(t, 18, st.TotalEvents)
	require.Len(t, st.TopTypes, 5)
	assert.Equal(t, models.EventMemberJoin, st.TopTypes[0].Type)
	assert.Equal(t, 6, st.TopTypes[0].Count)
	for i := 1; i < len(st.TopTypes); i++ {
		assert.GreaterOrEqual(t, st.TopTypes[i-1].Count, st.TopTypes[i].Count)
	}
}

func TestWarnUpdatesStanding(t *testing.T) {
	f := newFixture(t)

	rep := f.svc.Warn(context.Background(), 5, "rowdy", "spamming emotes")

	assert.Equal(t, 2, rep.TotalPoints)
	assert.Equal(t, RatingSuspicious, rep.Rating)
	assert.Len(t, f.log.Query(models.EventManualWarning, 10), 1)
}

func TestTimeoutIssuesActionAndScores(t *testing.T) {
	f := newFixture(t)

	rep, err := f.svc.Timeout(context.Background(), 5, "rowdy", 10*time.Minute, "cool off")
	require.NoError(t, err)

	assert.Equal(t, 3, rep.TotalPoints)
	assert.Equal(t, RatingDangerous, rep.Rating)
	assert.Equal(t, 1, f.actions.timeouts)
}

func TestTimeoutFailureReported(t *testing.T) {
	f := newFixture(t)
	f.actions.fail = true

	_, err := f.svc.Timeout(context.Background(), 5, "rowdy", time.Minute, "")
	require.Error(t, err)
	assert.Equal(t, RatingSafe, f.svc.ScanUser(5).Rating, "failed action grants no points")
}

func TestClearSuspicion(t *testing.T) {
	f := newFixture(t)
	f.ledger.AddPoints(9, "user", "spam", 2, time.Now(), 3)

	existed, err := f.svc.ClearSuspicion(context.Background(), 9)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, RatingSafe, f.svc.ScanUser(9).Rating)

	existed, err = f.svc.ClearSuspicion(context.Background(), 9)
	require.NoError(t, err)
	assert.False(t, existed, "second clear finds nothing")
}
