package worker

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/marksheet-backend/internal/config"
	"github.com/stemsi/marksheet-backend/internal/feed"
)

const (
	ChangeBatchSize    = 64
	ChangeBatchTimeout = 250 * time.Millisecond
	ChangePollTimeout  = 1 * time.Second
	changeIdleBackoff  = 25 * time.Millisecond
)

// ChangeWorker drains the change queue and publishes one message per distinct
// change kind in each batch, so a burst of writes costs subscribers one reload.
type ChangeWorker struct {
	rdb *redis.Client
	log zerolog.Logger
}

func NewChangeWorker(rdb *redis.Client, log zerolog.Logger) *ChangeWorker {
	return &ChangeWorker{
		rdb: rdb,
		log: log.With().Str("component", "change_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ChangeWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ChangeWorker started")

	batch := make([]string, 0, ChangeBatchSize)
	var firstAt time.Time

	for {
		if len(batch) > 0 &&
			(len(batch) >= ChangeBatchSize || time.Since(firstAt) >= ChangeBatchTimeout) {

			w.flush(ctx, batch)
			batch = batch[:0]
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flush(context.Background(), batch)
			return
		default:
		}

		if len(batch) == 0 {
			// Idle: block until something arrives.
			item, err := w.rdb.BLPop(ctx, ChangePollTimeout, config.WorkerKey.ChangeQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}
			batch = append(batch, item[1])
			firstAt = time.Now()
			continue
		}

		// Collecting: take whatever is queued without blocking past the batch window.
		items, err := w.rdb.LPopCount(ctx, config.WorkerKey.ChangeQueue, ChangeBatchSize-len(batch)).Result()
		if err != nil && err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("LPop error")
		}
		if len(items) > 0 {
			batch = append(batch, items...)
			continue
		}

		select {
		case <-ctx.Done():
		case <-time.After(changeIdleBackoff):
		}
	}
}

func (w *ChangeWorker) flush(ctx context.Context, batch []string) {
	if len(batch) == 0 {
		return
	}

	kinds, dropped := Coalesce(batch)
	if dropped > 0 {
		w.log.Warn().Int("dropped", dropped).Msg("Ignored unknown change kinds")
	}

	for _, kind := range kinds {
		if err := w.rdb.Publish(ctx, config.CacheKey.ChangeChannel(), string(kind)).Err(); err != nil {
			w.log.Error().Err(err).Str("kind", string(kind)).Msg("Publish failed, requeueing")
			if rerr := w.rdb.RPush(ctx, config.WorkerKey.ChangeQueue, string(kind)).Err(); rerr != nil {
				w.log.Error().Err(rerr).Str("kind", string(kind)).Msg("Requeue failed, change lost")
			}
		}
	}

	w.log.Debug().Int("queued", len(batch)).Int("published", len(kinds)).Msg("Change batch flushed")
}

// Coalesce returns the distinct valid kinds of a batch in first-seen order and
// the number of unknown entries skipped.
func Coalesce(batch []string) ([]feed.Kind, int) {
	seen := make(map[feed.Kind]bool, 2)
	kinds := make([]feed.Kind, 0, 2)
	dropped := 0
	for _, raw := range batch {
		kind := feed.Kind(raw)
		if !kind.Valid() {
			dropped++
			continue
		}
		if seen[kind] {
			continue
		}
		seen[kind] = true
		kinds = append(kinds, kind)
	}
	return kinds, dropped
}
