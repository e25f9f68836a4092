package memory

import (
	"context"
	"strings"
	"time"

	"github.com/stemsi/marksheet-backend/internal/model"
	"github.com/stemsi/marksheet-backend/internal/repository"
)

// UserRepository stores accounts in memory.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a UserRepository over db.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(_ context.Context, id int) (*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *UserRepository) Create(_ context.Context, u *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrDuplicateEmail
		}
	}
	r.db.userSeq++
	u.ID = r.db.userSeq
	u.CreatedAt = r.db.now()
	u.UpdatedAt = u.CreatedAt
	r.db.users[u.ID] = *u
	return nil
}

// SessionRepository keeps login sessions in memory.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a SessionRepository over db.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Save(_ context.Context, jti string, userID int, ttl time.Duration) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.sessions[jti] = session{userID: userID, expires: r.db.now().Add(ttl)}
	return nil
}

func (r *SessionRepository) Owner(_ context.Context, jti string) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sessions[jti]
	if !ok {
		return 0, repository.ErrSessionNotFound
	}
	if r.db.now().After(s.expires) {
		delete(r.db.sessions, jti)
		return 0, repository.ErrSessionNotFound
	}
	return s.userID, nil
}

func (r *SessionRepository) Delete(_ context.Context, jti string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, jti)
	return nil
}
