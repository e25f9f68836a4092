package model

import (
	"time"

	"github.com/google/uuid"
)

// Student is a single student's marksheet record. Total and Percentage are
// derived from Marks and recomputed on every save.
type Student struct {
	ID         uuid.UUID          `json:"id"`
	Name       string             `json:"name"`
	RollNo     string             `json:"roll_no"`
	Marks      map[string]float64 `json:"marks"`
	Total      float64            `json:"total"`
	Percentage float64            `json:"percentage"`
	CreatedBy  *int               `json:"created_by,omitempty"`
	UpdatedBy  *int               `json:"updated_by,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// Clone returns a deep copy so callers can hand records out without sharing the marks map.
func (s Student) Clone() Student {
	c := s
	if s.Marks != nil {
		c.Marks = make(map[string]float64, len(s.Marks))
		for k, v := range s.Marks {
			c.Marks[k] = v
		}
	}
	return c
}

// SaveStudentRequest is the payload for creating or replacing a student record.
// Marks values may arrive as numbers, numeric strings or blanks straight from the
// form; they are coerced before aggregation. Client-side totals are ignored.
type SaveStudentRequest struct {
	Name   string         `json:"name" binding:"required,notblank,max=100"`
	RollNo string         `json:"roll_no" binding:"required,notblank,max=20"`
	Marks  map[string]any `json:"marks"`
}

// PreviewMarksRequest carries a draft mark sheet for live total/percentage display.
type PreviewMarksRequest struct {
	Marks map[string]any `json:"marks"`
}

// ListStudentsQuery holds the marksheet view parameters taken from the query string.
type ListStudentsQuery struct {
	Search string `form:"search"`
	Sort   string `form:"sort"`
	Dir    string `form:"dir"`
}
