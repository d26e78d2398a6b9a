package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ComplianceSentinel/internal/application/compliance"
)

// Exporter renders the compliance register workbook.
type Exporter interface {
	Export(ctx context.Context, organizationID string) (*compliance.Export, error)
	Upload(ctx context.Context, organizationID string) (string, error)
}

type ExportHandler struct {
	exporter Exporter
}

func NewExportHandler(exporter Exporter) *ExportHandler {
	return &ExportHandler{exporter: exporter}
}

func (h *ExportHandler) RegisterRoutes(r gin.IRouter) {
	org := r.Group("/organizations/:orgID")
	org.GET("/register", h.Download)
	org.POST("/register/uploads", h.Upload)
}

// Download streams the register as an attachment.
func (h *ExportHandler) Download(c *gin.Context) {
	exp, err := h.exporter.Export(c.Request.Context(), c.Param("orgID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exp.FileName))
	c.Data(http.StatusOK, compliance.XLSXContentType, exp.Data)
}

type uploadResponse struct {
	Location string `json:"location"`
}

// Upload archives the register in object storage.
func (h *ExportHandler) Upload(c *gin.Context) {
	loc, err := h.exporter.Upload(c.Request.Context(), c.Param("orgID"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, uploadResponse{Location: loc})
}

//Personal.AI order the ending
