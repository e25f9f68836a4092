package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/marksheet-backend/internal/export"
	"github.com/stemsi/marksheet-backend/internal/service"
)

const (
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimePDF  = "application/pdf"
)

type ExportHandler struct {
	exportService *service.ExportService
}

func NewExportHandler(exportService *service.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// XLSX godoc
// GET /api/v1/exports/students.xlsx?search=&sort=&dir=
func (h *ExportHandler) XLSX(c *gin.Context) {
	h.serve(c, "xlsx", mimeXLSX, export.WriteXLSX)
}

// PDF godoc
// GET /api/v1/exports/students.pdf?search=&sort=&dir=
func (h *ExportHandler) PDF(c *gin.Context) {
	h.serve(c, "pdf", mimePDF, h.exportService.PDFWriter().Write)
}

// serve renders into memory first so a failed render still gets a JSON error.
func (h *ExportHandler) serve(c *gin.Context, ext, mime string, render func(w io.Writer, m *export.Marksheet) error) {
	q, ok := bindViewQuery(c)
	if !ok {
		return
	}

	m, err := h.exportService.Marksheet(c.Request.Context(), q)
	if err != nil {
		failWith(c, err)
		return
	}

	var buf bytes.Buffer
	if err := render(&buf, m); err != nil {
		failWith(c, err)
		return
	}

	name := export.FileName(ext, m.GeneratedAt)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, mime, buf.Bytes())
}
