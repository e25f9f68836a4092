package feed

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/marksheet-backend/internal/config"
)

// QueueNotifier pushes change kinds onto the change queue drained by the change
// worker. When the push fails it publishes straight to the change channel.
type QueueNotifier struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewQueueNotifier creates a QueueNotifier.
func NewQueueNotifier(rdb *redis.Client, log zerolog.Logger) *QueueNotifier {
	return &QueueNotifier{
		rdb: rdb,
		log: log.With().Str("component", "queue_notifier").Logger(),
	}
}

// Notify implements Notifier.
func (n *QueueNotifier) Notify(ctx context.Context, kind Kind) error {
	err := n.rdb.RPush(ctx, config.WorkerKey.ChangeQueue, string(kind)).Err()
	if err == nil {
		return nil
	}

	n.log.Warn().Err(err).Str("kind", string(kind)).Msg("Change queue push failed, publishing directly")
	if perr := n.rdb.Publish(ctx, config.CacheKey.ChangeChannel(), string(kind)).Err(); perr != nil {
		return fmt.Errorf("publish change: %w", perr)
	}
	return nil
}

// RedisSignal listens to the change channel.
type RedisSignal struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisSignal creates a RedisSignal.
func NewRedisSignal(rdb *redis.Client, log zerolog.Logger) *RedisSignal {
	return &RedisSignal{
		rdb: rdb,
		log: log.With().Str("component", "redis_signal").Logger(),
	}
}

// Listen implements Signal. The subscription is confirmed before returning.
func (s *RedisSignal) Listen(ctx context.Context) (<-chan Kind, error) {
	pubsub := s.rdb.Subscribe(ctx, config.CacheKey.ChangeChannel())
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe changes: %w", err)
	}

	out := make(chan Kind, 1)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				kind := Kind(msg.Payload)
				if !kind.Valid() {
					s.log.Warn().Str("payload", msg.Payload).Msg("Ignoring unknown change kind")
					continue
				}
				select {
				case out <- kind:
				default:
					// A reload is already pending.
				}
			}
		}
	}()

	return out, nil
}
