package service

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/marksheet-backend/internal/feed"
	"github.com/stemsi/marksheet-backend/internal/model"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var ErrSubjectNameRequired = errors.New("subject name is required")

// SubjectOrder selects how the subject list is returned.
type SubjectOrder string

const (
	// OrderCreated is the marksheet column order.
	OrderCreated SubjectOrder = "created"
	OrderName    SubjectOrder = "name"
)

type SubjectService struct {
	subjects SubjectStore
	notifier feed.Notifier
	locale   language.Tag
	log      zerolog.Logger
}

func NewSubjectService(subjects SubjectStore, notifier feed.Notifier, locale language.Tag, log zerolog.Logger) *SubjectService {
	return &SubjectService{
		subjects: subjects,
		notifier: notifier,
		locale:   locale,
		log:      log.With().Str("component", "subject_service").Logger(),
	}
}

func (s *SubjectService) List(ctx context.Context, order SubjectOrder) ([]model.Subject, error) {
	subjects, err := s.subjects.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if order == OrderName {
		col := collate.New(s.locale)
		slices.SortStableFunc(subjects, func(a, b model.Subject) int {
			return col.CompareString(a.Name, b.Name)
		})
	}
	return subjects, nil
}

func (s *SubjectService) Create(ctx context.Context, name string) (*model.Subject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrSubjectNameRequired
	}

	sub := &model.Subject{Name: name}
	if err := s.subjects.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.log.Info().Str("subject", sub.Name).Msg("Subject created")
	s.notify(ctx)
	return sub, nil
}

// Delete removes a subject. Marks stored under its name stay on the student
// records until each record is saved again.
func (s *SubjectService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.subjects.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("subject_id", id.String()).Msg("Subject deleted")
	s.notify(ctx)
	return nil
}

func (s *SubjectService) notify(ctx context.Context) {
	if err := s.notifier.Notify(ctx, feed.KindSubjects); err != nil {
		s.log.Warn().Err(err).Msg("Change notification failed")
	}
}
