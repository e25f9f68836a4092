// Package memory implements the repositories in process memory. It backs the
// "memory" storage driver for single-instance development and the service and
// handler tests.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/marksheet-backend/internal/model"
)

// DB holds all tables behind one lock.
type DB struct {
	mu sync.RWMutex

	students []model.Student // creation order
	subjects []model.Subject // creation order
	users    map[int]model.User
	userSeq  int
	sessions map[string]session

	now func() time.Time
}

type session struct {
	userID  int
	expires time.Time
}

// NewDB creates an empty database.
func NewDB() *DB {
	return &DB{
		users:    make(map[int]model.User),
		sessions: make(map[string]session),
		now:      time.Now,
	}
}

func (db *DB) studentIndex(id uuid.UUID) int {
	for i := range db.students {
		if db.students[i].ID == id {
			return i
		}
	}
	return -1
}
