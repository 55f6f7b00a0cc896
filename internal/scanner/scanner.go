// Package scanner runs the periodic guild health scan: it polls the
// gateway for presence snapshots and flags guilds with low online ratios.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/chatwarden/chatwarden/common/logging"
	"github.com/chatwarden/chatwarden/internal/alerts"
	"github.com/chatwarden/chatwarden/internal/eventlog"
	"github.com/chatwarden/chatwarden/internal/gateway"
	"github.com/chatwarden/chatwarden/internal/metrics"
	"github.com/chatwarden/chatwarden/internal/models"
)

// Low-activity thresholds: only communities above the member floor are
// judged, and they are flagged when fewer than onlineFraction of members
// are online.
const (
	memberFloor    = 100
	onlineFraction = 0.10
)

// Scanner periodically scans guild presence.
type Scanner struct {
	directory gateway.Directory
	eventLog  *eventlog.Log
	notifier  alerts.Notifier
	interval  time.Duration
	logger    *logging.Logger

	stop    chan struct{}
	stopped chan struct{}
}

// New creates a Scanner that runs every interval.
func New(
	directory gateway.Directory,
	eventLog *eventlog.Log,
	notifier alerts.Notifier,
	interval time.Duration,
	logger *logging.Logger,
) *Scanner {
	if logger == nil {
		logger = logging.Default()
	}
	return &Scanner{
		directory: directory,
		eventLog:  eventLog,
		notifier:  notifier,
		interval:  interval,
		logger:    logger.Component("scanner"),
		stop:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// Start launches the scan loop. The first scan runs after one full
// interval, not immediately.
func (s *Scanner) Start(ctx context.Context) {
	go s.run(ctx)
	s.logger.Info("health scanner started", "interval", s.interval)
}

// Stop terminates the scan loop and waits for it to exit.
func (s *Scanner) Stop() {
	close(s.stop)
	<-s.stopped
	s.logger.Info("health scanner stopped")
}

func (s *Scanner) run(ctx context.Context) {
	defer close(s.stopped)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Scan(ctx, time.Now().UTC())
		}
	}
}

// Scan performs one health scan pass. Exported so operators can trigger
// a scan outside the schedule.
func (s *Scanner) Scan(ctx context.Context, now time.Time) {
	guilds, err := s.directory.ListGuilds(ctx)
	if err != nil {
		s.logger.Error("guild presence query failed", "err", err)
		return
	}

	flagged := 0
	for _, g := range guilds {
		if !LowActivity(g) {
			continue
		}
		flagged++
		s.flag(ctx, g, now)
	}

	metrics.HealthScans.Inc()
	s.logger.Info("health scan complete", "guilds", len(guilds), "flagged", flagged)
}

// LowActivity reports whether a guild is large enough to judge and has
// an online ratio under the floor.
func LowActivity(g models.GuildStats) bool {
	if g.TotalMembers <= memberFloor {
		return false
	}
	return float64(g.OnlineMembers) < float64(g.TotalMembers)*onlineFraction
}

// OnlinePercent returns the guild's online ratio as a percentage.
func OnlinePercent(g models.GuildStats) float64 {
	if g.TotalMembers == 0 {
		return 0
	}
	return float64(g.OnlineMembers) / float64(g.TotalMembers) * 100
}

func (s *Scanner) flag(ctx context.Context, g models.GuildStats, now time.Time) {
	pct := fmt.Sprintf("%.1f", OnlinePercent(g))

	s.eventLog.Record(models.SecurityEvent{
		Timestamp:   now,
		UserID:      0,
		UserName:    "system",
		Type:        models.EventLowActivity,
		Description: fmt.Sprintf("Low activity in %s: %s%% online", g.Name, pct),
		Level:       models.LevelLow,
	})
	s.notifier.Send(ctx, &alerts.Alert{
		Title:       "Low guild activity",
		Description: fmt.Sprintf("Only %s%% of members are online in %s", pct, g.Name),
		Level:       models.LevelLow,
		Timestamp:   now,
		Fields: []alerts.Field{
			{Name: "guild", Value: g.Name},
			{Name: "total_members", Value: fmt.Sprintf("%d", g.TotalMembers)},
			{Name: "online_members", Value: fmt.Sprintf("%d", g.OnlineMembers)},
		},
	})
}
