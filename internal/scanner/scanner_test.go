package scanner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwarden/chatwarden/internal/alerts"
	"github.com/chatwarden/chatwarden/internal/eventlog"
	"github.com/chatwarden/chatwarden/internal/models"
)

type fakeDirectory struct {
	mu     sync.Mutex
	guilds []models.GuildStats
	err    error
	calls  int
}

func (d *fakeDirectory) ListGuilds(context.Context) ([]models.GuildStats, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return d.guilds, d.err
}

func (d *fakeDirectory) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type capturingNotifier struct {
	mu     sync.Mutex
	alerts []*alerts.Alert
}

func (n *capturingNotifier) Send(_ context.Context, alert *alerts.Alert) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
}

func (n *capturingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.alerts)
}

func TestLowActivity(t *testing.T) {
	tests := []struct {
		name   string
		total  int
		online int
		want   bool
	}{
		{"large and quiet", 150, 10, true},
		{"large and active", 150, 15, false},
		{"small community ignored", 50, 2, false},
		{"at member floor ignored", 100, 0, false},
		{"just over floor, nobody online", 101, 0, true},
		{"boundary ratio not flagged", 200, 20, false},
		{"under boundary ratio flagged", 200, 19, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := models.GuildStats{TotalMembers: tt.total, OnlineMembers: tt.online}
			assert.Equal(t, tt.want, LowActivity(g))
		})
	}
}

func TestScanFlagsLowActivityGuilds(t *testing.T) {
	dir := &fakeDirectory{guilds: []models.GuildStats{
		{GuildID: 1, Name: "ghost town", TotalMembers: 150, OnlineMembers: 10},
		{GuildID: 2, Name: "busy place", TotalMembers: 150, OnlineMembers: 80},
	}}
	log := eventlog.New(eventlog.DefaultCapacity, nil, nil)
	notifier := &capturingNotifier{}

	s := New(dir, log, notifier, time.Minute, nil)
	s.Scan(context.Background(), time.Now())

	events := log.Query(models.EventLowActivity, 10)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Description, "ghost town")
	assert.Contains(t, events[0].Description, "6.7% online")
	assert.Equal(t, 1, notifier.count())
}

func TestScanDirectoryFailure(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("bus down")}
	log := eventlog.New(eventlog.DefaultCapacity, nil, nil)
	notifier := &capturingNotifier{}

	s := New(dir, log, notifier, time.Minute, nil)
	s.Scan(context.Background(), time.Now())

	assert.Equal(t, 0, log.Len())
	assert.Equal(t, 0, notifier.count())
}

func TestStartStop(t *testing.T) {
	dir := &fakeDirectory{}
	log := eventlog.New(eventlog.DefaultCapacity, nil, nil)

	s := New(dir, log, alerts.NopNotifier{}, 10*time.Millisecond, nil)
	s.Start(context.Background())

	require.Eventually(t, func() bool {
		return dir.callCount() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	after := dir.callCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, dir.callCount(), "no scans after Stop")
}
