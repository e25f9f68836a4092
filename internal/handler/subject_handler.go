package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/marksheet-backend/internal/model"
	"github.com/stemsi/marksheet-backend/internal/response"
	"github.com/stemsi/marksheet-backend/internal/service"
	"github.com/stemsi/marksheet-backend/internal/validator"
)

type SubjectHandler struct {
	subjectService *service.SubjectService
}

func NewSubjectHandler(subjectService *service.SubjectService) *SubjectHandler {
	return &SubjectHandler{subjectService: subjectService}
}

// List godoc
// GET /api/v1/subjects?order=created|name
func (h *SubjectHandler) List(c *gin.Context) {
	order := service.OrderCreated
	if c.Query("order") == string(service.OrderName) {
		order = service.OrderName
	}

	subjects, err := h.subjectService.List(c.Request.Context(), order)
	if err != nil {
		failWith(c, err)
		return
	}

	if subjects == nil {
		subjects = []model.Subject{}
	}

	response.Success(c, http.StatusOK, gin.H{"subjects": subjects})
}

// Create godoc
// POST /api/v1/subjects
func (h *SubjectHandler) Create(c *gin.Context) {
	var req model.CreateSubjectRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sub, err := h.subjectService.Create(c.Request.Context(), req.Name)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"subject": sub})
}

// Delete godoc
// DELETE /api/v1/subjects/:id
func (h *SubjectHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.subjectService.Delete(c.Request.Context(), id); err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "subject deleted successfully"})
}
