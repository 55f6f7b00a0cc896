package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chatwarden/chatwarden/common/messaging"
	"github.com/chatwarden/chatwarden/internal/models"
)

// Directory answers presence queries about monitored guilds.
type Directory interface {
	ListGuilds(ctx context.Context) ([]models.GuildStats, error)
}

// BusDirectory queries the gateway over request/reply.
type BusDirectory struct {
	publisher messaging.Publisher
	timeout   time.Duration
}

// NewBusDirectory creates a bus-backed Directory.
func NewBusDirectory(publisher messaging.Publisher, timeout time.Duration) *BusDirectory {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BusDirectory{publisher: publisher, timeout: timeout}
}

// ListGuilds implements Directory.
func (d *BusDirectory) ListGuilds(ctx context.Context) ([]models.GuildStats, error) {
	resp, err := d.publisher.Request(ctx, messaging.SubjectGatewayQueryGuilds, nil, d.timeout)
	if err != nil {
		return nil, fmt.Errorf("guild stats request failed: %w", err)
	}

	var guilds []models.GuildStats
	if err := json.Unmarshal(resp.Data, &guilds); err != nil {
		return nil, fmt.Errorf("failed to decode guild stats: %w", err)
	}
	return guilds, nil
}
