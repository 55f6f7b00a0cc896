package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chatwarden/chatwarden/internal/alerts"
	"github.com/chatwarden/chatwarden/internal/config"
	"github.com/chatwarden/chatwarden/internal/metrics"
	"github.com/chatwarden/chatwarden/internal/models"
	"github.com/chatwarden/chatwarden/internal/rules"
)

// maxAlertContentLen truncates message content embedded in alerts.
const maxAlertContentLen = 100

// verdict collects the intended effects of one moderation decision.
// Decisions touch only in-memory state; everything listed here is carried
// out afterwards by Engine.apply.
type verdict struct {
	events  []models.SecurityEvent
	traces  []models.MessageTrace
	actions []plannedAction
	alerts  []*alerts.Alert
}

// plannedAction is one moderation action to issue against the gateway.
type plannedAction struct {
	kind      string // "delete_message", "timeout", "notify"
	channelID int64
	messageID int64
	userID    int64
	duration  time.Duration
	reason    string
	title     string
	body      string
}

func newVerdict() *verdict {
	return &verdict{}
}

func (v *verdict) recordEvent(evt models.SecurityEvent) {
	v.events = append(v.events, evt)
}

func (v *verdict) raiseAlert(a *alerts.Alert) {
	v.alerts = append(v.alerts, a)
}

// evaluateMessage runs the detection sequence for one message. Every rule
// is evaluated independently; a single message can trip all three.
func (e *Engine) evaluateMessage(ctx context.Context, evt models.MessageEvent, cfg *config.Config) *verdict {
	v := newVerdict()
	content := evt.Content
	channelID := evt.ChannelID
	messageID := evt.MessageID

	if rules.MatchesSuspiciousKeyword(content) {
		metrics.Detections.WithLabelValues("suspicious_content").Inc()
		v.recordEvent(models.SecurityEvent{
			Timestamp:   evt.Timestamp,
			UserID:      evt.UserID,
			UserName:    evt.UserName,
			Type:        models.EventSuspiciousContent,
			Description: "Suspicious content: " + truncate(content, maxAlertContentLen),
			Level:       models.LevelMedium,
			ChannelID:   &channelID,
			MessageID:   &messageID,
		})
		v.raiseAlert(&alerts.Alert{
			Title:       "Suspicious message",
			Description: "Suspicious content detected",
			Level:       models.LevelMedium,
			Timestamp:   evt.Timestamp,
			Fields: []alerts.Field{
				{Name: "author", Value: evt.UserName},
				{Name: "channel_id", Value: fmt.Sprintf("%d", evt.ChannelID)},
				{Name: "message", Value: truncate(content, maxAlertContentLen)},
			},
		})
		e.grantPoints(v, cfg, evt.UserID, evt.UserName, "suspicious_content", pointsSuspiciousContent, evt.Timestamp)
	}

	burst, err := e.tracker.RecordAndCheck(ctx, evt.UserID, evt.Timestamp)
	if err != nil {
		// Fail open: a broken rate backend must not flag everyone.
		e.logger.Error("rate window check failed", "user_id", evt.UserID, "err", err)
		burst = false
	}
	if burst {
		metrics.Detections.WithLabelValues("spam").Inc()
		v.recordEvent(models.SecurityEvent{
			Timestamp:   evt.Timestamp,
			UserID:      evt.UserID,
			UserName:    evt.UserName,
			Type:        models.EventSpam,
			Description: "Spam detected from " + evt.UserName,
			Level:       models.LevelHigh,
			ChannelID:   &channelID,
			MessageID:   &messageID,
		})
		v.raiseAlert(&alerts.Alert{
			Title:       "Spam detected",
			Description: "User is sending messages too quickly",
			Level:       models.LevelHigh,
			Timestamp:   evt.Timestamp,
			Fields: []alerts.Field{
				{Name: "author", Value: evt.UserName},
				{Name: "channel_id", Value: fmt.Sprintf("%d", evt.ChannelID)},
			},
		})
		if cfg.Security.AutoModeration {
			v.actions = append(v.actions, plannedAction{
				kind:     "timeout",
				userID:   evt.UserID,
				duration: spamTimeout,
				reason:   "Spam",
			})
		}
		e.grantPoints(v, cfg, evt.UserID, evt.UserName, "spam", pointsSpam, evt.Timestamp)
	}

	if rules.ContainsInviteLink(content) {
		metrics.Detections.WithLabelValues("invite_link").Inc()
		v.recordEvent(models.SecurityEvent{
			Timestamp:   evt.Timestamp,
			UserID:      evt.UserID,
			UserName:    evt.UserName,
			Type:        models.EventInviteLink,
			Description: "Invite link posted by " + evt.UserName,
			Level:       models.LevelHigh,
			ChannelID:   &channelID,
			MessageID:   &messageID,
		})
		v.raiseAlert(&alerts.Alert{
			Title:       "Invite link detected",
			Description: "Message contains a server invite link",
			Level:       models.LevelHigh,
			Timestamp:   evt.Timestamp,
			Fields: []alerts.Field{
				{Name: "author", Value: evt.UserName},
				{Name: "channel_id", Value: fmt.Sprintf("%d", evt.ChannelID)},
			},
		})
		if cfg.Security.AutoModeration {
			v.actions = append(v.actions, plannedAction{
				kind:      "delete_message",
				channelID: evt.ChannelID,
				messageID: evt.MessageID,
				reason:    "Invite link",
			})
			v.actions = append(v.actions, plannedAction{
				kind:     "timeout",
				userID:   evt.UserID,
				duration: inviteTimeout,
				reason:   "Invite link",
			})
		}
		e.grantPoints(v, cfg, evt.UserID, evt.UserName, "invite_link", pointsInviteLink, evt.Timestamp)
	}

	// Every non-bot message leaves a trace in the durable store, flagged
	// or not.
	v.traces = append(v.traces, models.MessageTrace{
		MessageID: evt.MessageID,
		UserID:    evt.UserID,
		UserName:  evt.UserName,
		ChannelID: evt.ChannelID,
		Content:   content,
		Timestamp: evt.Timestamp,
	})

	return v
}

// evaluateMemberJoin records the join and flags freshly created accounts.
// New accounts raise an informational alert without suspicion points.
func (e *Engine) evaluateMemberJoin(evt models.MemberJoinEvent, cfg *config.Config) *verdict {
	v := newVerdict()

	v.recordEvent(models.SecurityEvent{
		Timestamp:   evt.Timestamp,
		UserID:      evt.UserID,
		UserName:    evt.UserName,
		Type:        models.EventMemberJoin,
		Description: "Member joined: " + evt.UserName,
		Level:       models.LevelLow,
	})

	if cfg.Security.WelcomeMessage {
		v.actions = append(v.actions, plannedAction{
			kind:   "notify",
			userID: evt.UserID,
			title:  "Welcome!",
			body:   "Welcome, " + evt.UserName + "! Please read the server rules.",
		})
	}

	if !evt.AccountCreatedAt.IsZero() && rules.IsNewAccount(evt.AccountCreatedAt, evt.Timestamp) {
		metrics.Detections.WithLabelValues("new_account").Inc()
		ageDays := rules.AccountAgeDays(evt.AccountCreatedAt, evt.Timestamp)
		v.recordEvent(models.SecurityEvent{
			Timestamp:   evt.Timestamp,
			UserID:      evt.UserID,
			UserName:    evt.UserName,
			Type:        models.EventNewAccount,
			Description: fmt.Sprintf("New account joined: %s (%d days old)", evt.UserName, ageDays),
			Level:       models.LevelMedium,
		})
		v.raiseAlert(&alerts.Alert{
			Title:       "New account",
			Description: "A recently created account joined",
			Level:       models.LevelMedium,
			Timestamp:   evt.Timestamp,
			Fields: []alerts.Field{
				{Name: "user", Value: evt.UserName},
				{Name: "account_age_days", Value: fmt.Sprintf("%d", ageDays)},
			},
		})
	}

	return v
}

// grantPoints adds suspicion points to the ledger and, when the running
// total satisfies the configured alert mode against the threshold,
// appends an escalation event and alert. Returns the new total.
func (e *Engine) grantPoints(v *verdict, cfg *config.Config, userID int64, userName, reason string, points int, now time.Time) int {
	res := e.ledger.AddPoints(userID, userName, reason, points, now, cfg.Security.SuspiciousThreshold)
	metrics.SuspicionPoints.Add(float64(points))

	fire := res.CrossedThreshold
	if cfg.Security.AlertMode == "edge" {
		fire = res.FirstCrossing
	}
	if !fire {
		return res.TotalPoints
	}

	recent := []string{reason}
	if rec, ok := e.ledger.Lookup(userID); ok {
		recent = rec.LastReasons(5)
	}

	v.recordEvent(models.SecurityEvent{
		Timestamp:   now,
		UserID:      userID,
		UserName:    userName,
		Type:        models.EventHighSuspicion,
		Description: fmt.Sprintf("High suspicion: %s at %d points", userName, res.TotalPoints),
		Level:       models.LevelCritical,
	})
	v.raiseAlert(&alerts.Alert{
		Title:       "High suspicion level",
		Description: fmt.Sprintf("%s reached %d suspicion points", userName, res.TotalPoints),
		Level:       models.LevelCritical,
		Timestamp:   now,
		Fields: []alerts.Field{
			{Name: "user", Value: userName},
			{Name: "total_points", Value: fmt.Sprintf("%d", res.TotalPoints)},
			{Name: "recent_reasons", Value: strings.Join(recent, ", ")},
		},
	})
	return res.TotalPoints
}

// truncate cuts s to at most n runes, never splitting a multi-byte rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
