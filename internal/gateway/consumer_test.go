package gateway

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwarden/chatwarden/common/messaging"
	"github.com/chatwarden/chatwarden/internal/models"
)

type fakeSub struct {
	subject      string
	unsubscribed bool
}

func (s *fakeSub) Unsubscribe() error { s.unsubscribed = true; return nil }
func (s *fakeSub) Subject() string    { return s.subject }
func (s *fakeSub) IsValid() bool      { return !s.unsubscribed }

// fakeSubscriber records queue subscriptions and lets tests inject
// messages directly into the registered handlers.
type fakeSubscriber struct {
	handlers map[string]messaging.MessageHandler
	subs     []*fakeSub
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{handlers: make(map[string]messaging.MessageHandler)}
}

func (f *fakeSubscriber) Subscribe(subject string, handler messaging.MessageHandler) (messaging.Subscription, error) {
	return f.QueueSubscribe(subject, "", handler)
}

func (f *fakeSubscriber) QueueSubscribe(subject, _ string, handler messaging.MessageHandler) (messaging.Subscription, error) {
	f.handlers[subject] = handler
	sub := &fakeSub{subject: subject}
	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *fakeSubscriber) Close() error { return nil }

func (f *fakeSubscriber) deliver(t *testing.T, subject string, payload interface{}) error {
	t.Helper()
	handler, ok := f.handlers[subject]
	require.True(t, ok, "no handler for %s", subject)

	var data []byte
	switch p := payload.(type) {
	case []byte:
		data = p
	default:
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		data = raw
	}
	return handler(context.Background(), &messaging.Message{Subject: subject, Data: data})
}

type recordingHandler struct {
	messages []models.MessageEvent
	joins    []models.MemberJoinEvent
	leaves   []models.MemberLeaveEvent
}

func (h *recordingHandler) HandleMessage(_ context.Context, evt models.MessageEvent) error {
	h.messages = append(h.messages, evt)
	return nil
}

func (h *recordingHandler) HandleMemberJoin(_ context.Context, evt models.MemberJoinEvent) error {
	h.joins = append(h.joins, evt)
	return nil
}

func (h *recordingHandler) HandleMemberLeave(_ context.Context, evt models.MemberLeaveEvent) error {
	h.leaves = append(h.leaves, evt)
	return nil
}

func TestConsumerDispatchesEvents(t *testing.T) {
	sub := newFakeSubscriber()
	handler := &recordingHandler{}
	c := NewConsumer(sub, handler, nil)
	require.NoError(t, c.Start())

	require.NoError(t, sub.deliver(t, messaging.SubjectGatewayEventsMessage, models.MessageEvent{
		UserID: 1, UserName: "tester", Content: "hello", Timestamp: time.Now(),
	}))
	require.NoError(t, sub.deliver(t, messaging.SubjectGatewayEventsMemberJoin, models.MemberJoinEvent{
		UserID: 2, UserName: "newcomer",
	}))
	require.NoError(t, sub.deliver(t, messaging.SubjectGatewayEventsMemberLeft, models.MemberLeaveEvent{
		UserID: 3, UserName: "leaver",
	}))

	require.Len(t, handler.messages, 1)
	assert.Equal(t, "hello", handler.messages[0].Content)
	require.Len(t, handler.joins, 1)
	assert.Equal(t, int64(2), handler.joins[0].UserID)
	require.Len(t, handler.leaves, 1)
}

func TestConsumerDropsMalformedEvents(t *testing.T) {
	sub := newFakeSubscriber()
	handler := &recordingHandler{}
	c := NewConsumer(sub, handler, nil)
	require.NoError(t, c.Start())

	// Malformed payloads are dropped without error so the subscription
	// keeps flowing.
	assert.NoError(t, sub.deliver(t, messaging.SubjectGatewayEventsMessage, []byte("{not json")))
	assert.Empty(t, handler.messages)

	require.NoError(t, sub.deliver(t, messaging.SubjectGatewayEventsMessage, models.MessageEvent{UserID: 1}))
	assert.Len(t, handler.messages, 1)
}

func TestConsumerStopUnsubscribes(t *testing.T) {
	sub := newFakeSubscriber()
	c := NewConsumer(sub, &recordingHandler{}, nil)
	require.NoError(t, c.Start())
	require.Len(t, sub.subs, 3)

	c.Stop()
	for _, s := range sub.subs {
		assert.True(t, s.unsubscribed, s.subject)
	}
}
