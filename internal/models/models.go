// Package models defines the core data types for warden: security events,
// suspicion records, and the inbound gateway event variants.
package models

import "time"

// Level is the severity assigned to a security event.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// EventType tags a security event with the condition that produced it.
type EventType string

const (
	EventMemberJoin        EventType = "MEMBER_JOIN"
	EventMemberLeave       EventType = "MEMBER_LEAVE"
	EventSuspiciousContent EventType = "SUSPICIOUS_CONTENT"
	EventSpam              EventType = "SPAM"
	EventInviteLink        EventType = "INVITE_LINK"
	EventNewAccount        EventType = "NEW_ACCOUNT"
	EventHighSuspicion     EventType = "HIGH_SUSPICION"
	EventManualWarning     EventType = "MANUAL_WARNING"
	EventManualTimeout     EventType = "MANUAL_TIMEOUT"
	EventLowActivity       EventType = "LOW_ACTIVITY"
)

// SecurityEvent is an immutable record of a security-relevant condition.
// Events are appended to the in-memory ring and the durable sink and are
// never mutated afterwards.
type SecurityEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	UserID      int64     `json:"user_id"`
	UserName    string    `json:"user_name"`
	Type        EventType `json:"event_type"`
	Description string    `json:"description"`
	Level       Level     `json:"level"`
	ChannelID   *int64    `json:"channel_id,omitempty"`
	MessageID   *int64    `json:"message_id,omitempty"`
}

// MessageTrace is a raw traffic record of a single chat message.
// Traces go only to the durable sink (upsert by message ID), never into
// the security-event ring.
type MessageTrace struct {
	MessageID int64     `json:"message_id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	ChannelID int64     `json:"channel_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ReasonEntry is one suspicion grant in a user's history.
type ReasonEntry struct {
	Reason    string    `json:"reason"`
	Points    int       `json:"points"`
	Timestamp time.Time `json:"timestamp"`
}

// SuspicionRecord is a read-only snapshot of a user's suspicion state.
type SuspicionRecord struct {
	UserID      int64         `json:"user_id"`
	UserName    string        `json:"user_name"`
	TotalPoints int           `json:"total_points"`
	Reasons     []ReasonEntry `json:"reasons"`
}

// LastReasons returns up to n of the most recent reason strings, oldest first.
func (r *SuspicionRecord) LastReasons(n int) []string {
	entries := r.Reasons
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Reason)
	}
	return out
}

// MessageEvent is an inbound chat message delivered by the gateway.
type MessageEvent struct {
	GuildID   int64     `json:"guild_id"`
	ChannelID int64     `json:"channel_id"`
	MessageID int64     `json:"message_id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	Content   string    `json:"content"`
	Bot       bool      `json:"bot"`
	Timestamp time.Time `json:"timestamp"`
}

// MemberJoinEvent is delivered by the gateway when a member joins a guild.
type MemberJoinEvent struct {
	GuildID          int64     `json:"guild_id"`
	UserID           int64     `json:"user_id"`
	UserName         string    `json:"user_name"`
	AccountCreatedAt time.Time `json:"account_created_at"`
	Timestamp        time.Time `json:"timestamp"`
}

// MemberLeaveEvent is delivered by the gateway when a member leaves a guild.
type MemberLeaveEvent struct {
	GuildID   int64     `json:"guild_id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	Timestamp time.Time `json:"timestamp"`
}

// GuildStats is a presence snapshot for one monitored guild,
// used by the periodic health scan.
type GuildStats struct {
	GuildID       int64  `json:"guild_id"`
	Name          string `json:"name"`
	TotalMembers  int    `json:"total_members"`
	OnlineMembers int    `json:"online_members"`
}
