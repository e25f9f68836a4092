package feed

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/marksheet-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func receiveKind(t *testing.T, ch <-chan Kind) Kind {
	t.Helper()
	select {
	case k, ok := <-ch:
		require.True(t, ok, "channel closed")
		return k
	case <-time.After(2 * time.Second):
		t.Fatal("no change received")
		return ""
	}
}

func TestQueueNotifierPushesToChangeQueue(t *testing.T) {
	mr, rdb := newTestRedis(t)
	n := NewQueueNotifier(rdb, zerolog.Nop())

	require.NoError(t, n.Notify(context.Background(), KindStudents))
	require.NoError(t, n.Notify(context.Background(), KindSubjects))

	queued, err := mr.List(config.WorkerKey.ChangeQueue)
	require.NoError(t, err)
	assert.Equal(t, []string{"students", "subjects"}, queued)
}

func TestQueueNotifierPublishesWhenPushFails(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := NewRedisSignal(rdb, zerolog.Nop()).Listen(ctx)
	require.NoError(t, err)

	// A string under the queue key makes RPUSH fail with WRONGTYPE.
	require.NoError(t, mr.Set(config.WorkerKey.ChangeQueue, "busy"))

	require.NoError(t, NewQueueNotifier(rdb, zerolog.Nop()).Notify(context.Background(), KindSubjects))
	assert.Equal(t, KindSubjects, receiveKind(t, changes))
}

func TestRedisSignalIgnoresUnknownKinds(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := NewRedisSignal(rdb, zerolog.Nop()).Listen(ctx)
	require.NoError(t, err)

	mr.Publish(config.CacheKey.ChangeChannel(), "grades")
	mr.Publish(config.CacheKey.ChangeChannel(), "students")

	assert.Equal(t, KindStudents, receiveKind(t, changes))
}

func TestRedisSignalClosesOnCancel(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())

	changes, err := NewRedisSignal(rdb, zerolog.Nop()).Listen(ctx)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-changes:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestRelayHoldsOneSubscription(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewLocalBus()
	require.NoError(t, bus.Relay(ctx, NewRedisSignal(rdb, zerolog.Nop())))

	first, err := bus.Listen(ctx)
	require.NoError(t, err)
	second, err := bus.Listen(ctx)
	require.NoError(t, err)

	channel := config.CacheKey.ChangeChannel()
	assert.Equal(t, 1, mr.PubSubNumSub(channel)[channel])

	mr.Publish(channel, "subjects")
	assert.Equal(t, KindSubjects, receiveKind(t, first))
	assert.Equal(t, KindSubjects, receiveKind(t, second))
}
