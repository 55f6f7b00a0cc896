// Package repository implements the durable append-only sink on PostgreSQL.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatwarden/chatwarden/internal/models"
)

// PostgresSink persists security events and message traces.
// It implements eventlog.Sink.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink creates a sink backed by a pgx connection pool.
func NewPostgresSink(ctx context.Context, connString string) (*PostgresSink, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Connection pool configuration
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresSink{pool: pool}, nil
}

// AppendEvent appends a security event. The table is append-only; rows
// are never updated or deleted by warden.
func (s *PostgresSink) AppendEvent(ctx context.Context, evt *models.SecurityEvent) error {
	query := `
		INSERT INTO security_events
			(timestamp, user_id, user_name, event_type, description, level, channel_id, message_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		evt.Timestamp.UTC().Format(time.RFC3339Nano),
		evt.UserID, evt.UserName, string(evt.Type),
		evt.Description, string(evt.Level),
		evt.ChannelID, evt.MessageID,
	)
	if err != nil {
		return fmt.Errorf("failed to append security event: %w", err)
	}

	return nil
}

// AppendMessage upserts a message trace keyed by message ID. Edited
// messages replace the stored row.
func (s *PostgresSink) AppendMessage(ctx context.Context, trace *models.MessageTrace) error {
	query := `
		INSERT INTO messages (id, user_id, user_name, channel_id, content, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			user_name = EXCLUDED.user_name,
			channel_id = EXCLUDED.channel_id,
			content = EXCLUDED.content,
			timestamp = EXCLUDED.timestamp
	`

	_, err := s.pool.Exec(ctx, query,
		trace.MessageID, trace.UserID, trace.UserName,
		trace.ChannelID, trace.Content,
		trace.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert message trace: %w", err)
	}

	return nil
}

// Close releases the connection pool.
func (s *PostgresSink) Close() {
	s.pool.Close()
}
