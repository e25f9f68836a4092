package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrStudentNotFound  = errors.New("student not found")
	ErrSubjectNotFound  = errors.New("subject not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrDuplicateSubject = errors.New("subject with this name already exists")
	ErrDuplicateEmail   = errors.New("user with this email already exists")
	ErrSessionNotFound  = errors.New("session not found")
)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
