package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/marksheet-backend/internal/feed"
	"github.com/stemsi/marksheet-backend/internal/marks"
	"github.com/stemsi/marksheet-backend/internal/model"
)

// ErrDuplicateStudent is returned when a new record reuses an existing name or roll number.
var ErrDuplicateStudent = errors.New("a student with this name or roll number already exists")

// StudentService handles student record business logic.
type StudentService struct {
	students StudentStore
	subjects SubjectStore
	notifier feed.Notifier
	composer *marks.Composer
	log      zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(students StudentStore, subjects SubjectStore, notifier feed.Notifier, composer *marks.Composer, log zerolog.Logger) *StudentService {
	return &StudentService{
		students: students,
		subjects: subjects,
		notifier: notifier,
		composer: composer,
		log:      log.With().Str("component", "student_service").Logger(),
	}
}

// List returns the marksheet view for q.
func (s *StudentService) List(ctx context.Context, q marks.ViewQuery) ([]model.Student, error) {
	all, err := s.students.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.composer.DeriveView(all, q), nil
}

// Get retrieves a student by ID.
func (s *StudentService) Get(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	return s.students.GetByID(ctx, id)
}

// Create validates uniqueness, derives totals and stores a new record.
func (s *StudentService) Create(ctx context.Context, actor int, req model.SaveStudentRequest) (*model.Student, error) {
	student, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}

	existing, err := s.students.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range existing {
		if strings.EqualFold(strings.TrimSpace(e.RollNo), student.RollNo) ||
			strings.EqualFold(strings.TrimSpace(e.Name), student.Name) {
			return nil, ErrDuplicateStudent
		}
	}

	student.CreatedBy = &actor
	if err := s.students.Create(ctx, student); err != nil {
		return nil, err
	}

	s.log.Info().Str("student_id", student.ID.String()).Int("actor", actor).Msg("Student created")
	s.notify(ctx, feed.KindStudents)
	return student, nil
}

// Update replaces the name, roll number and marks of an existing record and
// recomputes its totals. Creation metadata is kept.
func (s *StudentService) Update(ctx context.Context, actor int, id uuid.UUID, req model.SaveStudentRequest) (*model.Student, error) {
	if _, err := s.students.GetByID(ctx, id); err != nil {
		return nil, err
	}

	student, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}
	student.ID = id
	student.UpdatedBy = &actor

	if err := s.students.Update(ctx, student); err != nil {
		return nil, err
	}

	s.log.Info().Str("student_id", id.String()).Int("actor", actor).Msg("Student updated")
	s.notify(ctx, feed.KindStudents)
	return student, nil
}

// Delete removes a student record.
func (s *StudentService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.students.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("student_id", id.String()).Msg("Student deleted")
	s.notify(ctx, feed.KindStudents)
	return nil
}

// Preview aggregates a draft mark sheet without storing anything.
func (s *StudentService) Preview(raw map[string]any) marks.Totals {
	return marks.ComputeTotals(marks.Coerce(raw))
}

// LoadSnapshot implements feed.Loader.
func (s *StudentService) LoadSnapshot(ctx context.Context) (feed.Snapshot, error) {
	students, err := s.students.GetAll(ctx)
	if err != nil {
		return feed.Snapshot{}, fmt.Errorf("load students: %w", err)
	}
	subjects, err := s.subjects.GetAll(ctx)
	if err != nil {
		return feed.Snapshot{}, fmt.Errorf("load subjects: %w", err)
	}
	return feed.Snapshot{Students: students, Subjects: subjects, At: time.Now()}, nil
}

// build lays the submitted marks over the current subject list: every subject gets
// the submitted value or 0 and keys that are not subjects are dropped.
func (s *StudentService) build(ctx context.Context, req model.SaveStudentRequest) (*model.Student, error) {
	subjects, err := s.subjects.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	submitted := marks.Coerce(req.Marks)
	m := make(map[string]float64, len(subjects))
	for _, subj := range subjects {
		m[subj.Name] = submitted[subj.Name]
	}

	totals := marks.ComputeTotals(m)
	return &model.Student{
		Name:       strings.TrimSpace(req.Name),
		RollNo:     strings.TrimSpace(req.RollNo),
		Marks:      m,
		Total:      totals.Total,
		Percentage: totals.Percentage,
	}, nil
}

// notify runs after the write is committed, so a failure is logged and not returned.
func (s *StudentService) notify(ctx context.Context, kind feed.Kind) {
	if err := s.notifier.Notify(ctx, kind); err != nil {
		s.log.Warn().Err(err).Str("kind", string(kind)).Msg("Change notification failed")
	}
}
