// Package service implements the operator command surface: status,
// per-user scans, log queries, statistics, manual moderation, and config
// reload. The HTTP server and the wardenctl CLI both drive this layer.
package service

import (
	"context"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/chatwarden/chatwarden/common/httputil"
	"github.com/chatwarden/chatwarden/common/logging"
	"github.com/chatwarden/chatwarden/internal/config"
	"github.com/chatwarden/chatwarden/internal/engine"
	"github.com/chatwarden/chatwarden/internal/eventlog"
	"github.com/chatwarden/chatwarden/internal/ledger"
	"github.com/chatwarden/chatwarden/internal/models"
	"github.com/chatwarden/chatwarden/internal/ratewindow"
)

// Log query limits for the operator surface.
const (
	defaultLogLimit = 10
	maxLogLimit     = 25
)

// maxStatusDescLen truncates event descriptions in status summaries.
const maxStatusDescLen = 50

// Ratings assigned by ScanUser.
const (
	RatingSafe       = "safe"
	RatingSuspicious = "suspicious"
	RatingDangerous  = "dangerous"
)

// Service exposes operator commands over the shared moderation state.
type Service struct {
	cfg       *config.Store
	ledger    *ledger.Ledger
	eventLog  *eventlog.Log
	tracker   ratewindow.Tracker
	engine    *engine.Engine
	logger    *logging.Logger
	startedAt time.Time
}

// New creates a Service.
func New(
	cfg *config.Store,
	l *ledger.Ledger,
	eventLog *eventlog.Log,
	tracker ratewindow.Tracker,
	eng *engine.Engine,
	logger *logging.Logger,
) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		cfg:       cfg,
		ledger:    l,
		eventLog:  eventLog,
		tracker:   tracker,
		engine:    eng,
		logger:    logger.Component("service"),
		startedAt: time.Now().UTC(),
	}
}

// EventSummary is one recent event in a status report, with the
// description cut down for terminal display.
type EventSummary struct {
	Timestamp   time.Time        `json:"timestamp"`
	Type        models.EventType `json:"event_type"`
	UserName    string           `json:"user_name"`
	Description string           `json:"description"`
	Level       models.Level     `json:"level"`
}

// Status is the moderation layer overview.
type Status struct {
	AutoModeration bool           `json:"auto_moderation"`
	SecurityLevel  string         `json:"security_level"`
	Threshold      int            `json:"threshold"`
	TrackedUsers   int            `json:"tracked_users"`
	RetainedEvents int            `json:"retained_events"`
	UptimeSeconds  int64          `json:"uptime_seconds"`
	RecentEvents   []EventSummary `json:"recent_events"`
}

// Status returns the current moderation overview with the five most
// recent events.
func (s *Service) Status() *Status {
	cfg := s.cfg.Current()

	recent := s.eventLog.Query("", 5)
	summaries := make([]EventSummary, 0, len(recent))
	for _, evt := range recent {
		desc := evt.Description
		if utf8.RuneCountInString(desc) > maxStatusDescLen {
			desc = string([]rune(desc)[:maxStatusDescLen])
		}
		summaries = append(summaries, EventSummary{
			Timestamp:   evt.Timestamp,
			Type:        evt.Type,
			UserName:    evt.UserName,
			Description: desc,
			Level:       evt.Level,
		})
	}

	return &Status{
		AutoModeration: cfg.Security.AutoModeration,
		SecurityLevel:  cfg.Security.Level,
		Threshold:      cfg.Security.SuspiciousThreshold,
		TrackedUsers:   s.ledger.Len(),
		RetainedEvents: s.eventLog.Len(),
		UptimeSeconds:  int64(time.Since(s.startedAt).Seconds()),
		RecentEvents:   summaries,
	}
}

// UserReport is the result of a per-user suspicion scan.
type UserReport struct {
	UserID        int64    `json:"user_id"`
	UserName      string   `json:"user_name"`
	TotalPoints   int      `json:"total_points"`
	Rating        string   `json:"rating"`
	RecentReasons []string `json:"recent_reasons"`
}

// ScanUser reports a user's suspicion standing. Users with no recorded
// violations come back safe with zero points.
func (s *Service) ScanUser(userID int64) *UserReport {
	threshold := s.cfg.Current().Security.SuspiciousThreshold

	rec, ok := s.ledger.Lookup(userID)
	if !ok {
		return &UserReport{UserID: userID, Rating: RatingSafe}
	}

	rating := RatingSafe
	switch {
	case rec.TotalPoints >= threshold:
		rating = RatingDangerous
	case rec.TotalPoints > 0:
		rating = RatingSuspicious
	}

	return &UserReport{
		UserID:        userID,
		UserName:      rec.UserName,
		TotalPoints:   rec.TotalPoints,
		Rating:        rating,
		RecentReasons: rec.LastReasons(3),
	}
}

// Logs returns up to limit recent events, newest first, optionally
// filtered by type. Limits are clamped to the operator maximum; zero or
// negative means the default.
func (s *Service) Logs(eventType models.EventType, limit int) []models.SecurityEvent {
	return s.eventLog.Query(eventType, httputil.ClampLimit(limit, defaultLogLimit, maxLogLimit))
}

// TypeCount is one entry in the event statistics breakdown.
type TypeCount struct {
	Type  models.EventType `json:"event_type"`
	Count int              `json:"count"`
}

// Stats is the aggregate view over retained events.
type Stats struct {
	TotalEvents int         `json:"total_events"`
	TopTypes    []TypeCount `json:"top_types"`
}

// Stats aggregates retained events and returns the five most frequent
// types in descending order.
func (s *Service) Stats() *Stats {
	byType := s.eventLog.Stats()

	counts := make([]TypeCount, 0, len(byType))
	total := 0
	for typ, n := range byType {
		counts = append(counts, TypeCount{Type: typ, Count: n})
		total += n
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Type < counts[j].Type
	})
	if len(counts) > 5 {
		counts = counts[:5]
	}

	return &Stats{TotalEvents: total, TopTypes: counts}
}

// Warn issues a manual warning and returns the user's updated standing.
func (s *Service) Warn(ctx context.Context, userID int64, userName, reason string) *UserReport {
	s.engine.Warn(ctx, userID, userName, reason, time.Now().UTC())
	s.logger.Info("manual warning issued", "user_id", userID, "reason", reason)
	return s.ScanUser(userID)
}

// Timeout issues a manual timeout. The action failure, if any, is
// returned and no points are granted.
func (s *Service) Timeout(ctx context.Context, userID int64, userName string, duration time.Duration, reason string) (*UserReport, error) {
	if _, err := s.engine.Timeout(ctx, userID, userName, duration, reason, time.Now().UTC()); err != nil {
		s.logger.Error("manual timeout failed", "user_id", userID, "err", err)
		return nil, err
	}
	s.logger.Info("manual timeout issued", "user_id", userID, "duration", duration)
	return s.ScanUser(userID), nil
}

// ClearSuspicion wipes a user's suspicion record and rate window. It
// reports whether a suspicion record existed.
func (s *Service) ClearSuspicion(ctx context.Context, userID int64) (bool, error) {
	existed := s.ledger.Clear(userID)
	if err := s.tracker.Clear(ctx, userID); err != nil {
		return existed, err
	}
	if existed {
		s.logger.Info("suspicion cleared", "user_id", userID)
	}
	return existed, nil
}

// ReloadConfig re-reads configuration from disk and environment and swaps
// it in atomically. Moderation state carries over untouched.
func (s *Service) ReloadConfig() (*config.Config, error) {
	cfg, err := s.cfg.Reload()
	if err != nil {
		s.logger.Error("config reload failed", "err", err)
		return nil, err
	}
	s.logger.Info("config reloaded",
		"auto_moderation", cfg.Security.AutoModeration,
		"threshold", cfg.Security.SuspiciousThreshold)
	return cfg, nil
}
