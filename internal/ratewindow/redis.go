package ratewindow

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTracker keeps windows in Redis sorted sets, scored by timestamp.
// Useful when warden restarts should not reset burst state.
type RedisTracker struct {
	client *redis.Client
	window time.Duration
	burst  int
	seq    atomic.Uint64
}

// recordScript atomically prunes, records, and counts a user's window.
// Scores are millisecond timestamps (safe inside Lua number precision);
// pruning removes scores strictly below the window start.
const recordScript = `
	local key = KEYS[1]

	redis.call('ZREMRANGEBYSCORE', key, 0, '(' .. ARGV[2])
	redis.call('ZADD', key, ARGV[1], ARGV[3])
	redis.call('EXPIRE', key, ARGV[4])
	return redis.call('ZCARD', key)
`

const countScript = `
	local key = KEYS[1]

	redis.call('ZREMRANGEBYSCORE', key, 0, '(' .. ARGV[1])
	return redis.call('ZCARD', key)
`

// NewRedisTracker creates a Redis-backed tracker from a redis URL.
func NewRedisTracker(redisURL string, window time.Duration, burst int) (*RedisTracker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisTracker{client: client, window: window, burst: burst}, nil
}

// NewRedisTrackerWithClient wraps an existing client. Used by tests.
func NewRedisTrackerWithClient(client *redis.Client, window time.Duration, burst int) *RedisTracker {
	return &RedisTracker{client: client, window: window, burst: burst}
}

func (t *RedisTracker) key(userID int64) string {
	return fmt.Sprintf("ratewindow:%d", userID)
}

// ttlSeconds keeps keys alive slightly past the horizon so idle users
// expire on their own.
func (t *RedisTracker) ttlSeconds() int64 {
	secs := int64(t.window/time.Second) * 2
	if secs < 1 {
		secs = 1
	}
	return secs
}

// RecordAndCheck implements Tracker.
func (t *RedisTracker) RecordAndCheck(ctx context.Context, userID int64, now time.Time) (bool, error) {
	nowMs := now.UnixMilli()
	windowStart := nowMs - t.window.Milliseconds()
	// Sequence suffix keeps members unique when timestamps collide.
	member := fmt.Sprintf("%d-%d", nowMs, t.seq.Add(1))

	count, err := t.client.Eval(ctx, recordScript,
		[]string{t.key(userID)}, nowMs, windowStart, member, t.ttlSeconds()).Int()
	if err != nil {
		return false, fmt.Errorf("rate window record failed: %w", err)
	}

	return count >= t.burst, nil
}

// Count implements Tracker.
func (t *RedisTracker) Count(ctx context.Context, userID int64, now time.Time) (int, error) {
	windowStart := now.UnixMilli() - t.window.Milliseconds()

	count, err := t.client.Eval(ctx, countScript, []string{t.key(userID)}, windowStart).Int()
	if err != nil {
		return 0, fmt.Errorf("rate window count failed: %w", err)
	}
	return count, nil
}

// Clear implements Tracker.
func (t *RedisTracker) Clear(ctx context.Context, userID int64) error {
	if err := t.client.Del(ctx, t.key(userID)).Err(); err != nil {
		return fmt.Errorf("rate window clear failed: %w", err)
	}
	return nil
}

// Close implements Tracker.
func (t *RedisTracker) Close() error {
	return t.client.Close()
}
