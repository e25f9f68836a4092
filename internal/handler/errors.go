package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/marksheet-backend/internal/export"
	"github.com/stemsi/marksheet-backend/internal/repository"
	"github.com/stemsi/marksheet-backend/internal/response"
	"github.com/stemsi/marksheet-backend/internal/service"
)

// failWith maps a service or repository error onto the response envelope.
// Unknown errors are recorded on the context and reported as internal.
func failWith(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrStudentNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrStudentNotFound)
	case errors.Is(err, repository.ErrSubjectNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSubjectNotFound)
	case errors.Is(err, repository.ErrUserNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrDuplicateStudent):
		response.Fail(c, http.StatusConflict, response.ErrDuplicateStudent)
	case errors.Is(err, repository.ErrDuplicateSubject):
		response.Fail(c, http.StatusConflict, response.ErrDuplicateSubject)
	case errors.Is(err, service.ErrSubjectNameRequired):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrSubjectNameRequired,
			map[string]string{"name": "name must not be blank"})
	case errors.Is(err, repository.ErrDuplicateEmail):
		response.Fail(c, http.StatusConflict, response.ErrEmailTaken)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
	case errors.Is(err, export.ErrFontUnavailable):
		_ = c.Error(err)
		response.Fail(c, http.StatusServiceUnavailable, response.ErrExportUnavailable)
	default:
		_ = c.Error(err)
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
