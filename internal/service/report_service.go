package service

import (
	"context"

	"github.com/stemsi/marksheet-backend/internal/marks"
	"github.com/stemsi/marksheet-backend/internal/model"
)

// ReportService builds the dashboard chart data.
type ReportService struct {
	students StudentStore
	subjects SubjectStore
	composer *marks.Composer
}

// NewReportService creates a new ReportService.
func NewReportService(students StudentStore, subjects SubjectStore, composer *marks.Composer) *ReportService {
	return &ReportService{students: students, subjects: subjects, composer: composer}
}

// Chart computes chart statistics over the records visible in the view q.
func (s *ReportService) Chart(ctx context.Context, q marks.ViewQuery, mode marks.ChartMode) (marks.Chart, error) {
	all, err := s.students.GetAll(ctx)
	if err != nil {
		return marks.Chart{}, err
	}
	subjects, err := s.subjects.GetAll(ctx)
	if err != nil {
		return marks.Chart{}, err
	}

	visible := s.composer.DeriveView(all, q)
	return s.composer.BuildChart(visible, model.SubjectNames(subjects), mode), nil
}
