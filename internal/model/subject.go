package model

import (
	"time"

	"github.com/google/uuid"
)

// Subject is a named scoring category shared by all student records.
type Subject struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateSubjectRequest is the payload for creating a subject.
type CreateSubjectRequest struct {
	Name string `json:"name" binding:"required,notblank,max=100"`
}

// SubjectNames returns the subject names in the given order.
func SubjectNames(subjects []Subject) []string {
	names := make([]string, 0, len(subjects))
	for _, s := range subjects {
		names = append(names, s.Name)
	}
	return names
}
