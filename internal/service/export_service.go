package service

import (
	"context"
	"time"

	"github.com/stemsi/marksheet-backend/internal/config"
	"github.com/stemsi/marksheet-backend/internal/export"
	"github.com/stemsi/marksheet-backend/internal/marks"
	"github.com/stemsi/marksheet-backend/internal/model"
)

// ExportService assembles the marksheet documents offered for download.
type ExportService struct {
	students StudentStore
	subjects SubjectStore
	composer *marks.Composer
	cfg      *config.Config
	now      func() time.Time
}

// NewExportService creates a new ExportService.
func NewExportService(students StudentStore, subjects SubjectStore, composer *marks.Composer, cfg *config.Config) *ExportService {
	return &ExportService{
		students: students,
		subjects: subjects,
		composer: composer,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Marksheet returns the records visible in q, in view order, with the current subjects.
func (s *ExportService) Marksheet(ctx context.Context, q marks.ViewQuery) (*export.Marksheet, error) {
	all, err := s.students.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	subjects, err := s.subjects.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	return &export.Marksheet{
		Institute:   s.cfg.InstituteName,
		GeneratedAt: s.now(),
		Subjects:    model.SubjectNames(subjects),
		Students:    s.composer.DeriveView(all, q),
	}, nil
}

// PDFWriter returns a writer using the configured font.
func (s *ExportService) PDFWriter() *export.PDFWriter {
	return export.NewPDFWriter(s.cfg.PDFFontPath)
}
