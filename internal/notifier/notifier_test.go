package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/andescargo/tracking-gateway/internal/events"
	"github.com/andescargo/tracking-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestQueue(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter, *events.Queue) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	adapter, err := redis.NewRedisAdapter(t.Name()+"-"+mr.Addr(), "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	q, err := events.NewQueue(adapter, events.QueueConfig{
		Stream:            "test:packages:events",
		ConsumerGroup:     "notifier",
		ConsumerName:      "notifier-1",
		PollInterval:      50 * time.Millisecond,
		VisibilityTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	return mr, adapter, q
}

func TestNotifier_ConsumesAndAcksEvents(t *testing.T) {
	mr, adapter, q := setupTestQueue(t)
	defer mr.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := q.PublishJSON(ctx, events.PackageEvent{
			Type:           events.TypeStatusChanged,
			PackageID:      "pkg-1",
			TrackingNumber: "PKG-1234ABCD",
			Status:         "delivered",
			OccurredAt:     time.Now().UTC(),
		})
		require.NoError(t, err)
	}

	n := New(q, 2)
	go func() {
		_ = n.Run()
	}()

	// every event read and acked, nothing left pending
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		groups, err := adapter.Client().XInfoGroups(ctx, "test:packages:events").Result()
		if err == nil && len(groups) == 1 && groups[0].Pending == 0 && groups[0].LastDeliveredID != "0-0" {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	groups, err := adapter.Client().XInfoGroups(ctx, "test:packages:events").Result()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, int64(0), groups[0].Pending)
	assert.NotEqual(t, "0-0", groups[0].LastDeliveredID)

	n.Stop(time.Second)
}

func TestNotifier_DropsUnparseablePayload(t *testing.T) {
	mr, adapter, q := setupTestQueue(t)
	defer mr.Close()

	ctx := context.Background()
	_, err := q.Publish(ctx, []byte("not json"))
	require.NoError(t, err)

	n := New(q, 1)
	go func() {
		_ = n.Run()
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		groups, err := adapter.Client().XInfoGroups(ctx, "test:packages:events").Result()
		if err == nil && len(groups) == 1 && groups[0].Pending == 0 && groups[0].LastDeliveredID != "0-0" {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	groups, err := adapter.Client().XInfoGroups(ctx, "test:packages:events").Result()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	// acked and dropped, not retried forever
	assert.Equal(t, int64(0), groups[0].Pending)

	n.Stop(time.Second)
}
