package worker

import (
	"testing"

	"github.com/stemsi/marksheet-backend/internal/feed"
	"github.com/stretchr/testify/assert"
)

func TestCoalesce(t *testing.T) {
	tests := []struct {
		name    string
		batch   []string
		want    []feed.Kind
		dropped int
	}{
		{"empty", nil, []feed.Kind{}, 0},
		{"single", []string{"students"}, []feed.Kind{feed.KindStudents}, 0},
		{
			"burst collapses",
			[]string{"students", "students", "subjects", "students", "subjects"},
			[]feed.Kind{feed.KindStudents, feed.KindSubjects},
			0,
		},
		{"first seen order", []string{"subjects", "students"}, []feed.Kind{feed.KindSubjects, feed.KindStudents}, 0},
		{"unknown skipped", []string{"grades", "students", ""}, []feed.Kind{feed.KindStudents}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, dropped := Coalesce(tt.batch)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.dropped, dropped)
		})
	}
}
