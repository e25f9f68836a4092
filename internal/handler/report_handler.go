package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/marksheet-backend/internal/marks"
	"github.com/stemsi/marksheet-backend/internal/response"
	"github.com/stemsi/marksheet-backend/internal/service"
)

type ReportHandler struct {
	reportService *service.ReportService
}

func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Chart godoc
// GET /api/v1/reports/chart?search=&sort=&dir=&mode=name|percentage
func (h *ReportHandler) Chart(c *gin.Context) {
	q, ok := bindViewQuery(c)
	if !ok {
		return
	}

	chart, err := h.reportService.Chart(c.Request.Context(), q, marks.ParseChartMode(c.Query("mode")))
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, chart)
}
