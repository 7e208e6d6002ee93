package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/limaJavier/timetabler/internal/dto"
	appErrors "github.com/limaJavier/timetabler/internal/errors"
	"github.com/limaJavier/timetabler/internal/response"
	"github.com/limaJavier/timetabler/internal/service"
	"github.com/limaJavier/timetabler/pkg/export"
)

const rootMessage = "AI Solver Service is running!"

type timetableGenerator interface {
	Generate(ctx context.Context, request dto.GenerateRequest) (*dto.GenerateResponse, error)
	Export(ctx context.Context, request dto.GenerateRequest, format export.Format) (*dto.ExportResult, error)
}

// GeneratorHandler exposes the timetable generation endpoints.
type GeneratorHandler struct {
	service timetableGenerator
}

func NewGeneratorHandler(svc *service.GeneratorService) *GeneratorHandler {
	return &GeneratorHandler{service: svc}
}

// Root is the static liveness message.
func (h *GeneratorHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": rootMessage})
}

// Generate handles POST /generate.
func (h *GeneratorHandler) Generate(c *gin.Context) {
	request, ok := bindRequest(c)
	if !ok {
		return
	}

	result, err := h.service.Generate(c.Request.Context(), request)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Export handles POST /generate/export?format=csv|pdf. The format defaults to csv.
func (h *GeneratorHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Unsupported export format. Use csv or pdf."))
		return
	}
	format := export.FormatCSV
	if query.Format != "" {
		format = export.Format(query.Format)
	}

	request, ok := bindRequest(c)
	if !ok {
		return
	}

	result, err := h.service.Export(c.Request.Context(), request, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result)
}

func bindRequest(c *gin.Context) (dto.GenerateRequest, bool) {
	var request dto.GenerateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid request body."))
		return request, false
	}
	return request, true
}
