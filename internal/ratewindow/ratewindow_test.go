package ratewindow

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trackers builds one of each implementation so every case runs against both.
func trackers(t *testing.T, window time.Duration, burst int) map[string]Tracker {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]Tracker{
		"memory": NewMemoryTracker(window, burst),
		"redis":  NewRedisTrackerWithClient(client, window, burst),
	}
}

func TestBurstDetected(t *testing.T) {
	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for name, tr := range trackers(t, 10*time.Second, 5) {
		t.Run(name, func(t *testing.T) {
			// 5 messages within a 10 second span: the 5th flags a burst.
			for i := 0; i < 4; i++ {
				burst, err := tr.RecordAndCheck(ctx, 42, base.Add(time.Duration(i)*time.Second))
				require.NoError(t, err)
				assert.False(t, burst, "call %d", i+1)
			}
			burst, err := tr.RecordAndCheck(ctx, 42, base.Add(9*time.Second))
			require.NoError(t, err)
			assert.True(t, burst)
		})
	}
}

func TestWindowPrunesByAbsoluteAge(t *testing.T) {
	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for name, tr := range trackers(t, 10*time.Second, 5) {
		t.Run(name, func(t *testing.T) {
			// 4 calls within 10s, then a 5th 11s after the first: no burst,
			// and only the newest entry survives pruning.
			for i := 0; i < 4; i++ {
				_, err := tr.RecordAndCheck(ctx, 7, base.Add(time.Duration(i)*100*time.Millisecond))
				require.NoError(t, err)
			}
			burst, err := tr.RecordAndCheck(ctx, 7, base.Add(11*time.Second))
			require.NoError(t, err)
			assert.False(t, burst)

			count, err := tr.Count(ctx, 7, base.Add(11*time.Second))
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}

func TestUnknownUserGetsFreshWindow(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for name, tr := range trackers(t, 10*time.Second, 5) {
		t.Run(name, func(t *testing.T) {
			count, err := tr.Count(ctx, 999, now)
			require.NoError(t, err)
			assert.Equal(t, 0, count)

			burst, err := tr.RecordAndCheck(ctx, 999, now)
			require.NoError(t, err)
			assert.False(t, burst)

			count, err = tr.Count(ctx, 999, now)
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}

func TestUsersDoNotInterfere(t *testing.T) {
	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for name, tr := range trackers(t, 10*time.Second, 5) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 4; i++ {
				_, err := tr.RecordAndCheck(ctx, 1, base.Add(time.Duration(i)*time.Second))
				require.NoError(t, err)
			}
			// User 2 has sent nothing; their first message is not a burst.
			burst, err := tr.RecordAndCheck(ctx, 2, base.Add(4*time.Second))
			require.NoError(t, err)
			assert.False(t, burst)

			count, err := tr.Count(ctx, 2, base.Add(4*time.Second))
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}

func TestOutOfOrderTimestamps(t *testing.T) {
	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for name, tr := range trackers(t, 10*time.Second, 5) {
		t.Run(name, func(t *testing.T) {
			// A stale timestamp recorded after a fresh one is still pruned
			// by age, not by position.
			_, err := tr.RecordAndCheck(ctx, 3, base.Add(30*time.Second))
			require.NoError(t, err)
			_, err = tr.RecordAndCheck(ctx, 3, base) // 30s stale
			require.NoError(t, err)

			count, err := tr.Count(ctx, 3, base.Add(30*time.Second))
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}

func TestClear(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for name, tr := range trackers(t, 10*time.Second, 5) {
		t.Run(name, func(t *testing.T) {
			_, err := tr.RecordAndCheck(ctx, 5, now)
			require.NoError(t, err)

			require.NoError(t, tr.Clear(ctx, 5))
			require.NoError(t, tr.Clear(ctx, 5)) // idempotent

			count, err := tr.Count(ctx, 5, now)
			require.NoError(t, err)
			assert.Equal(t, 0, count)
		})
	}
}

func TestMemoryTrackerConcurrentUsers(t *testing.T) {
	tr := NewMemoryTracker(10*time.Second, 5)
	now := time.Now()
	ctx := context.Background()

	var wg sync.WaitGroup
	for u := 0; u < 32; u++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				_, err := tr.RecordAndCheck(ctx, userID, now.Add(time.Duration(i)*time.Millisecond))
				assert.NoError(t, err)
			}
		}(int64(u))
	}
	wg.Wait()

	for u := 0; u < 32; u++ {
		count, err := tr.Count(ctx, int64(u), now)
		require.NoError(t, err, fmt.Sprintf("user %d", u))
		assert.Equal(t, 10, count)
	}
}
