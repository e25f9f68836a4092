package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/stemsi/marksheet-backend/internal/model"
	"github.com/stemsi/marksheet-backend/internal/repository"
)

// SubjectRepository stores subjects in memory.
type SubjectRepository struct {
	db *DB
}

// NewSubjectRepository creates a SubjectRepository over db.
func NewSubjectRepository(db *DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

func (r *SubjectRepository) Create(_ context.Context, s *model.Subject) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.subjects {
		if strings.EqualFold(existing.Name, s.Name) {
			return repository.ErrDuplicateSubject
		}
	}
	s.ID = uuid.New()
	s.CreatedAt = r.db.now()
	r.db.subjects = append(r.db.subjects, *s)
	return nil
}

func (r *SubjectRepository) GetAll(_ context.Context) ([]model.Subject, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return append([]model.Subject{}, r.db.subjects...), nil
}

func (r *SubjectRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for i, s := range r.db.subjects {
		if s.ID == id {
			r.db.subjects = append(r.db.subjects[:i], r.db.subjects[i+1:]...)
			return nil
		}
	}
	return repository.ErrSubjectNotFound
}
