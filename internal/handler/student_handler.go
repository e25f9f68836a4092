package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/marksheet-backend/internal/marks"
	"github.com/stemsi/marksheet-backend/internal/middleware"
	"github.com/stemsi/marksheet-backend/internal/model"
	"github.com/stemsi/marksheet-backend/internal/response"
	"github.com/stemsi/marksheet-backend/internal/service"
	"github.com/stemsi/marksheet-backend/internal/validator"
)

// StudentHandler serves the marksheet records.
type StudentHandler struct {
	studentService *service.StudentService
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

// List godoc
// GET /api/v1/students?search=&sort=&dir=
// Returns the filtered and ordered marksheet.
func (h *StudentHandler) List(c *gin.Context) {
	q, ok := bindViewQuery(c)
	if !ok {
		return
	}

	students, err := h.studentService.List(c.Request.Context(), q)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"students": students,
		"query":    q,
	})
}

// Get godoc
// GET /api/v1/students/:id
func (h *StudentHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	student, err := h.studentService.Get(c.Request.Context(), id)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// Create godoc
// POST /api/v1/students
// Totals are computed server-side; any client values are ignored.
func (h *StudentHandler) Create(c *gin.Context) {
	var req model.SaveStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	student, err := h.studentService.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"student": student})
}

// Update godoc
// PUT /api/v1/students/:id
func (h *StudentHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req model.SaveStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	student, err := h.studentService.Update(c.Request.Context(), claims.UserID, id, req)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// Delete godoc
// DELETE /api/v1/students/:id
func (h *StudentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.studentService.Delete(c.Request.Context(), id); err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "student deleted successfully"})
}

// Preview godoc
// POST /api/v1/marks/preview
// Returns the total and percentage for a draft mark sheet without saving it.
func (h *StudentHandler) Preview(c *gin.Context) {
	var req model.PreviewMarksRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	response.Success(c, http.StatusOK, h.studentService.Preview(req.Marks))
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

func bindViewQuery(c *gin.Context) (marks.ViewQuery, bool) {
	var raw model.ListStudentsQuery
	if fields := validator.BindQuery(c, &raw); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return marks.ViewQuery{}, false
	}
	return marks.NewViewQuery(raw.Search, raw.Sort, raw.Dir), true
}
