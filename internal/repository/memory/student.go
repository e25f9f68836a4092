package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/marksheet-backend/internal/model"
	"github.com/stemsi/marksheet-backend/internal/repository"
)

// StudentRepository stores student records in memory.
type StudentRepository struct {
	db *DB
}

// NewStudentRepository creates a StudentRepository over db.
func NewStudentRepository(db *DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) GetAll(_ context.Context) ([]model.Student, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]model.Student, 0, len(r.db.students))
	for _, s := range r.db.students {
		out = append(out, s.Clone())
	}
	return out, nil
}

func (r *StudentRepository) GetByID(_ context.Context, id uuid.UUID) (*model.Student, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	i := r.db.studentIndex(id)
	if i < 0 {
		return nil, repository.ErrStudentNotFound
	}
	s := r.db.students[i].Clone()
	return &s, nil
}

func (r *StudentRepository) Create(_ context.Context, s *model.Student) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := r.db.now()
	s.ID = uuid.New()
	s.UpdatedBy = s.CreatedBy
	s.CreatedAt = now
	s.UpdatedAt = now
	r.db.students = append(r.db.students, s.Clone())
	return nil
}

func (r *StudentRepository) Update(_ context.Context, s *model.Student) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.db.studentIndex(s.ID)
	if i < 0 {
		return repository.ErrStudentNotFound
	}
	old := r.db.students[i]
	s.CreatedBy = old.CreatedBy
	s.CreatedAt = old.CreatedAt
	s.UpdatedAt = r.db.now()
	r.db.students[i] = s.Clone()
	return nil
}

func (r *StudentRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.db.studentIndex(id)
	if i < 0 {
		return repository.ErrStudentNotFound
	}
	r.db.students = append(r.db.students[:i], r.db.students[i+1:]...)
	return nil
}
