// Package gateway binds warden to the external chat-platform gateway
// over the message bus. The gateway executes moderation actions, answers
// guild presence queries, and delivers member/message events.
package gateway

import (
	"context"
	"time"

	"github.com/chatwarden/chatwarden/common/messaging"
)

// Actions issues moderation actions against the chat platform.
// All actions are best-effort; the returned error reports only publish
// failures, not the eventual outcome on the platform.
type Actions interface {
	// DeleteMessage removes a message from a channel.
	DeleteMessage(ctx context.Context, channelID, messageID int64, reason string) error

	// TimeoutUser mutes a user for the given duration.
	TimeoutUser(ctx context.Context, userID int64, duration time.Duration, reason string) error

	// Notify sends a notification (DM or channel post) to a user.
	Notify(ctx context.Context, userID int64, title, body string) error
}

// DeleteMessageRequest is the payload for a delete-message action.
type DeleteMessageRequest struct {
	ChannelID int64  `json:"channel_id"`
	MessageID int64  `json:"message_id"`
	Reason    string `json:"reason"`
}

// TimeoutRequest is the payload for a timeout action.
type TimeoutRequest struct {
	UserID          int64  `json:"user_id"`
	DurationSeconds int64  `json:"duration_seconds"`
	Reason          string `json:"reason"`
}

// NotifyRequest is the payload for a notification action.
type NotifyRequest struct {
	UserID int64  `json:"user_id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// BusActions publishes action requests on the message bus for the
// gateway to execute.
type BusActions struct {
	publisher messaging.Publisher
}

// NewBusActions creates a bus-backed Actions client.
func NewBusActions(publisher messaging.Publisher) *BusActions {
	return &BusActions{publisher: publisher}
}

// DeleteMessage implements Actions.
func (a *BusActions) DeleteMessage(ctx context.Context, channelID, messageID int64, reason string) error {
	return a.publisher.PublishJSON(ctx, messaging.SubjectGatewayActionsDelete, &DeleteMessageRequest{
		ChannelID: channelID,
		MessageID: messageID,
		Reason:    reason,
	})
}

// TimeoutUser implements Actions.
func (a *BusActions) TimeoutUser(ctx context.Context, userID int64, duration time.Duration, reason string) error {
	return a.publisher.PublishJSON(ctx, messaging.SubjectGatewayActionsTimeout, &TimeoutRequest{
		UserID:          userID,
		DurationSeconds: int64(duration.Seconds()),
		Reason:          reason,
	})
}

// Notify implements Actions.
func (a *BusActions) Notify(ctx context.Context, userID int64, title, body string) error {
	return a.publisher.PublishJSON(ctx, messaging.SubjectGatewayActionsNotify, &NotifyRequest{
		UserID: userID,
		Title:  title,
		Body:   body,
	})
}
