package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/marksheet-backend/internal/model"
)

const studentColumns = `id, name, roll_no, marks, total, percentage, created_by, updated_by, created_at, updated_at`

// StudentRepository handles student record storage. Marks live in a JSONB column.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

func scanStudent(row pgx.Row) (model.Student, error) {
	var s model.Student
	err := row.Scan(&s.ID, &s.Name, &s.RollNo, &s.Marks, &s.Total, &s.Percentage,
		&s.CreatedBy, &s.UpdatedBy, &s.CreatedAt, &s.UpdatedAt)
	if s.Marks == nil {
		s.Marks = map[string]float64{}
	}
	return s, err
}

// GetAll returns every student in creation order.
func (r *StudentRepository) GetAll(ctx context.Context) ([]model.Student, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+studentColumns+` FROM students ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := []model.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	s, err := scanStudent(r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Create inserts a new student. The database assigns the ID and timestamps.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO students (name, roll_no, marks, total, percentage, created_by, updated_by)
		 VALUES ($1, $2, $3::jsonb, $4, $5, $6, $6)
		 RETURNING id, created_at, updated_at`,
		s.Name, s.RollNo, s.Marks, s.Total, s.Percentage, s.CreatedBy,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// Update replaces the editable fields of a student and fills back the columns
// the save does not touch.
func (r *StudentRepository) Update(ctx context.Context, s *model.Student) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE students
		 SET name = $1, roll_no = $2, marks = $3::jsonb, total = $4, percentage = $5,
		     updated_by = $6, updated_at = NOW()
		 WHERE id = $7
		 RETURNING created_by, created_at, updated_at`,
		s.Name, s.RollNo, s.Marks, s.Total, s.Percentage, s.UpdatedBy, s.ID,
	).Scan(&s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrStudentNotFound
	}
	return err
}

// Delete removes a student by ID.
func (r *StudentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStudentNotFound
	}
	return nil
}
