package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/marksheet-backend/internal/config"
)

// SessionRepository keeps login sessions in Redis, keyed by JWT ID.
type SessionRepository struct {
	rdb *redis.Client
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(rdb *redis.Client) *SessionRepository {
	return &SessionRepository{rdb: rdb}
}

// Save registers a session for the token lifetime.
func (r *SessionRepository) Save(ctx context.Context, jti string, userID int, ttl time.Duration) error {
	return r.rdb.Set(ctx, config.CacheKey.SessionKey(jti), userID, ttl).Err()
}

// Owner returns the user a session belongs to.
func (r *SessionRepository) Owner(ctx context.Context, jti string) (int, error) {
	v, err := r.rdb.Get(ctx, config.CacheKey.SessionKey(jti)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrSessionNotFound
		}
		return 0, fmt.Errorf("check session: %w", err)
	}
	id, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("corrupt session %s: %w", jti, err)
	}
	return id, nil
}

// Delete ends a session.
func (r *SessionRepository) Delete(ctx context.Context, jti string) error {
	return r.rdb.Del(ctx, config.CacheKey.SessionKey(jti)).Err()
}
