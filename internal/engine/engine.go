// Package engine implements the moderation coordinator: it runs the
// content rules and burst detector over inbound gateway events, applies
// suspicion scoring, and issues moderation actions and alerts.
//
// Each event is handled in two steps. The decision step mutates only
// in-memory state (rate windows, the suspicion ledger) and produces a
// verdict listing intended events, actions, and alerts. The effect step
// then performs the I/O, outside any moderation-state lock, where every
// failure is logged and dropped.
package engine

import (
	"context"
	"time"

	"github.com/chatwarden/chatwarden/common/logging"
	"github.com/chatwarden/chatwarden/internal/alerts"
	"github.com/chatwarden/chatwarden/internal/config"
	"github.com/chatwarden/chatwarden/internal/eventlog"
	"github.com/chatwarden/chatwarden/internal/gateway"
	"github.com/chatwarden/chatwarden/internal/ledger"
	"github.com/chatwarden/chatwarden/internal/metrics"
	"github.com/chatwarden/chatwarden/internal/models"
	"github.com/chatwarden/chatwarden/internal/ratewindow"
)

// Timeout durations for automatic moderation actions.
const (
	spamTimeout   = 5 * time.Minute
	inviteTimeout = 10 * time.Minute
)

// Suspicion point values per detection.
const (
	pointsSuspiciousContent = 1
	pointsSpam              = 2
	pointsInviteLink        = 3
	pointsManualWarning     = 2
	pointsManualTimeout     = 3
)

// Engine is the moderation coordinator. It owns no state itself; the
// ledger, tracker, and event log are injected and shared with the
// operator service.
type Engine struct {
	cfg      *config.Store
	tracker  ratewindow.Tracker
	ledger   *ledger.Ledger
	eventLog *eventlog.Log
	actions  gateway.Actions
	notifier alerts.Notifier
	logger   *logging.Logger
}

// New creates an Engine.
func New(
	cfg *config.Store,
	tracker ratewindow.Tracker,
	l *ledger.Ledger,
	eventLog *eventlog.Log,
	actions gateway.Actions,
	notifier alerts.Notifier,
	logger *logging.Logger,
) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		cfg:      cfg,
		tracker:  tracker,
		ledger:   l,
		eventLog: eventLog,
		actions:  actions,
		notifier: notifier,
		logger:   logger.Component("engine"),
	}
}

// HandleMessage runs the moderation sequence for one chat message.
// Implements gateway.EventHandler.
func (e *Engine) HandleMessage(ctx context.Context, evt models.MessageEvent) error {
	defer e.recoverPanic("message", evt.UserID)

	if evt.Bot {
		return nil
	}
	metrics.GatewayEvents.WithLabelValues("message").Inc()

	v := e.evaluateMessage(ctx, evt, e.cfg.Current())
	e.apply(ctx, v)
	return nil
}

// HandleMemberJoin processes a member join.
// Implements gateway.EventHandler.
func (e *Engine) HandleMemberJoin(ctx context.Context, evt models.MemberJoinEvent) error {
	defer e.recoverPanic("member_join", evt.UserID)

	metrics.GatewayEvents.WithLabelValues("member_join").Inc()

	v := e.evaluateMemberJoin(evt, e.cfg.Current())
	e.apply(ctx, v)
	return nil
}

// HandleMemberLeave processes a member leave.
// Implements gateway.EventHandler.
func (e *Engine) HandleMemberLeave(ctx context.Context, evt models.MemberLeaveEvent) error {
	defer e.recoverPanic("member_leave", evt.UserID)

	metrics.GatewayEvents.WithLabelValues("member_leave").Inc()

	v := newVerdict()
	v.recordEvent(models.SecurityEvent{
		Timestamp:   evt.Timestamp,
		UserID:      evt.UserID,
		UserName:    evt.UserName,
		Type:        models.EventMemberLeave,
		Description: "Member left: " + evt.UserName,
		Level:       models.LevelLow,
	})
	e.apply(ctx, v)
	return nil
}

// Warn grants manual warning points against a user and returns the
// resulting total.
func (e *Engine) Warn(ctx context.Context, userID int64, userName, reason string, now time.Time) int {
	cfg := e.cfg.Current()

	v := newVerdict()
	desc := "Warning issued to " + userName
	if reason != "" {
		desc += ": " + reason
	}
	v.recordEvent(models.SecurityEvent{
		Timestamp:   now,
		UserID:      userID,
		UserName:    userName,
		Type:        models.EventManualWarning,
		Description: desc,
		Level:       models.LevelMedium,
	})
	total := e.grantPoints(v, cfg, userID, userName, "manual_warning", pointsManualWarning, now)
	e.apply(ctx, v)
	return total
}

// Timeout issues a manual timeout action and, if the action was accepted,
// grants manual timeout points. An action failure is returned to the
// caller and leaves the ledger untouched.
func (e *Engine) Timeout(ctx context.Context, userID int64, userName string, duration time.Duration, reason string, now time.Time) (int, error) {
	if err := e.actions.TimeoutUser(ctx, userID, duration, reason); err != nil {
		metrics.ActionsIssued.WithLabelValues("timeout", "error").Inc()
		return 0, err
	}
	metrics.ActionsIssued.WithLabelValues("timeout", "ok").Inc()

	cfg := e.cfg.Current()
	v := newVerdict()
	desc := "Timeout issued to " + userName + " for " + duration.String()
	if reason != "" {
		desc += ": " + reason
	}
	v.recordEvent(models.SecurityEvent{
		Timestamp:   now,
		UserID:      userID,
		UserName:    userName,
		Type:        models.EventManualTimeout,
		Description: desc,
		Level:       models.LevelHigh,
	})
	total := e.grantPoints(v, cfg, userID, userName, "manual_timeout", pointsManualTimeout, now)
	e.apply(ctx, v)
	return total, nil
}

func (e *Engine) recoverPanic(eventKind string, userID int64) {
	if r := recover(); r != nil {
		e.logger.Error("moderation event execution exception",
			"err", r, "event", eventKind, "user_id", userID)
	}
}
