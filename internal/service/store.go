package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/marksheet-backend/internal/model"
)

// StudentStore persists student records. Implemented by the Postgres and memory repositories.
type StudentStore interface {
	GetAll(ctx context.Context) ([]model.Student, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error)
	Create(ctx context.Context, s *model.Student) error
	Update(ctx context.Context, s *model.Student) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SubjectStore persists the subject list.
type SubjectStore interface {
	GetAll(ctx context.Context) ([]model.Subject, error)
	Create(ctx context.Context, s *model.Subject) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserStore persists accounts.
type UserStore interface {
	GetByID(ctx context.Context, id int) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
}

// SessionStore tracks live login sessions by JWT ID.
type SessionStore interface {
	Save(ctx context.Context, jti string, userID int, ttl time.Duration) error
	Owner(ctx context.Context, jti string) (int, error)
	Delete(ctx context.Context, jti string) error
}
