// Package alerts delivers best-effort security alerts.
//
// Delivery failures are logged and counted, then dropped: an alert is
// never retried and never blocks or fails the moderation path that
// raised it.
package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/chatwarden/chatwarden/common/logging"
	"github.com/chatwarden/chatwarden/common/messaging"
	"github.com/chatwarden/chatwarden/internal/metrics"
	"github.com/chatwarden/chatwarden/internal/models"
)

// Alert is a notification describing a detected security condition.
type Alert struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Level       models.Level `json:"level"`
	Fields      []Field      `json:"fields,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}

// Field is one labelled detail attached to an alert.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Notifier sends alerts. Implementations must be best-effort and must
// not return delivery errors to callers.
type Notifier interface {
	Send(ctx context.Context, alert *Alert)
}

// BusNotifier publishes alerts on the message bus and optionally POSTs
// them to a webhook.
type BusNotifier struct {
	publisher  messaging.Publisher
	webhookURL string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewBusNotifier creates a notifier. publisher may be nil (webhook only)
// and webhookURL may be empty (bus only); with neither configured every
// alert is silently dropped.
func NewBusNotifier(publisher messaging.Publisher, webhookURL string, logger *logging.Logger) *BusNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &BusNotifier{
		publisher:  publisher,
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.Component("alerts"),
	}
}

// Send implements Notifier.
func (n *BusNotifier) Send(ctx context.Context, alert *Alert) {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now().UTC()
	}

	if n.publisher != nil {
		if err := n.publisher.PublishJSON(ctx, messaging.SubjectWardenAlertsCreated, alert); err != nil {
			n.logger.Error("failed to publish alert", "alert_id", alert.ID, "err", err)
			metrics.AlertFailures.Inc()
		}
	}

	if n.webhookURL != "" {
		if err := n.postWebhook(ctx, alert); err != nil {
			n.logger.Error("failed webhook alert delivery", "alert_id", alert.ID, "err", err)
			metrics.AlertFailures.Inc()
		}
	}
}

func (n *BusNotifier) postWebhook(ctx context.Context, alert *Alert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook POST returned status %d", resp.StatusCode)
	}
	return nil
}

// NopNotifier drops every alert. Used when alerting is unconfigured and
// in tests.
type NopNotifier struct{}

// Send implements Notifier.
func (NopNotifier) Send(context.Context, *Alert) {}
