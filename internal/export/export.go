// Package export renders the marksheet as downloadable XLSX and PDF documents.
package export

import (
	"fmt"
	"strconv"
	"time"

	"github.com/stemsi/marksheet-backend/internal/model"
)

// Marksheet is the document content shared by every export format.
type Marksheet struct {
	Institute   string
	GeneratedAt time.Time
	Subjects    []string
	// Students are already filtered and ordered.
	Students []model.Student
}

// Header returns the table header row.
func (m *Marksheet) Header() []string {
	h := make([]string, 0, len(m.Subjects)+4)
	h = append(h, "Roll No", "Name")
	h = append(h, m.Subjects...)
	return append(h, "Total", "Percentage")
}

// FileName returns the download name for the extension, dated in UTC.
func FileName(ext string, at time.Time) string {
	return fmt.Sprintf("students-%s.%s", at.UTC().Format("2006-01-02"), ext)
}

// MissingMark is printed for a subject the student has no mark for.
const MissingMark = "-"

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// textRow formats one student as table cells.
func textRow(s model.Student, subjects []string) []string {
	row := make([]string, 0, len(subjects)+4)
	row = append(row, s.RollNo, s.Name)
	for _, subj := range subjects {
		if v, ok := s.Marks[subj]; ok {
			row = append(row, formatNumber(v))
		} else {
			row = append(row, MissingMark)
		}
	}
	return append(row, formatNumber(s.Total), strconv.FormatFloat(s.Percentage, 'f', 2, 64)+"%")
}
