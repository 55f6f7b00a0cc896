package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chatwarden/chatwarden/common/logging"
	"github.com/chatwarden/chatwarden/common/messaging"
	"github.com/chatwarden/chatwarden/internal/models"
)

// EventHandler processes inbound gateway events.
// The moderation engine implements this.
type EventHandler interface {
	HandleMessage(ctx context.Context, evt models.MessageEvent) error
	HandleMemberJoin(ctx context.Context, evt models.MemberJoinEvent) error
	HandleMemberLeave(ctx context.Context, evt models.MemberLeaveEvent) error
}

// Consumer subscribes to gateway event subjects and dispatches decoded
// events to the handler.
type Consumer struct {
	subscriber messaging.Subscriber
	handler    EventHandler
	logger     *logging.Logger
	subs       []messaging.Subscription
}

// NewConsumer creates a Consumer. Call Start to begin receiving events.
func NewConsumer(subscriber messaging.Subscriber, handler EventHandler, logger *logging.Logger) *Consumer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Consumer{
		subscriber: subscriber,
		handler:    handler,
		logger:     logger.Component("gateway"),
	}
}

// Start subscribes to all gateway event subjects in the warden queue
// group so multiple warden instances would share the stream.
func (c *Consumer) Start() error {
	subjects := map[string]messaging.MessageHandler{
		messaging.SubjectGatewayEventsMessage:    c.onMessage,
		messaging.SubjectGatewayEventsMemberJoin: c.onMemberJoin,
		messaging.SubjectGatewayEventsMemberLeft: c.onMemberLeave,
	}

	for subject, handler := range subjects {
		sub, err := c.subscriber.QueueSubscribe(subject, messaging.QueueWardenWorkers, handler)
		if err != nil {
			c.Stop()
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		c.subs = append(c.subs, sub)
	}

	c.logger.Info("gateway consumer started", "subjects", len(subjects))
	return nil
}

// Stop unsubscribes from all subjects.
func (c *Consumer) Stop() {
	for _, sub := range c.subs {
		if err := sub.Unsubscribe(); err != nil {
			c.logger.Warn("failed to unsubscribe", "subject", sub.Subject(), "err", err)
		}
	}
	c.subs = nil
}

func (c *Consumer) onMessage(ctx context.Context, msg *messaging.Message) error {
	var evt models.MessageEvent
	if err := json.Unmarshal(msg.Data, &evt); err != nil {
		c.logger.Warn("dropping malformed message event", "err", err)
		return nil
	}
	return c.handler.HandleMessage(ctx, evt)
}

func (c *Consumer) onMemberJoin(ctx context.Context, msg *messaging.Message) error {
	var evt models.MemberJoinEvent
	if err := json.Unmarshal(msg.Data, &evt); err != nil {
		c.logger.Warn("dropping malformed member join event", "err", err)
		return nil
	}
	return c.handler.HandleMemberJoin(ctx, evt)
}

func (c *Consumer) onMemberLeave(ctx context.Context, msg *messaging.Message) error {
	var evt models.MemberLeaveEvent
	if err := json.Unmarshal(msg.Data, &evt); err != nil {
		c.logger.Warn("dropping malformed member leave event", "err", err)
		return nil
	}
	return c.handler.HandleMemberLeave(ctx, evt)
}
