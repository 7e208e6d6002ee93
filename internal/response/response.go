package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/limaJavier/timetabler/internal/dto"
	appErrors "github.com/limaJavier/timetabler/internal/errors"
)

// JSON sends a success payload.
func JSON(c *gin.Context, status int, data any) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, data)
}

// Error converts err to the common error payload and aborts the chain.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Err != nil {
		_ = c.Error(appErr.Err)
	}
	c.Header("Cache-Control", "no-store")
	c.AbortWithStatusJSON(appErr.Status, dto.ErrorResponse{
		Status:     dto.StatusError,
		Code:       appErr.Code,
		Message:    appErr.Message,
		Details:    appErr.Details,
		Advisories: appErr.Advisories,
	})
}

// Attachment writes content as a download.
func Attachment(c *gin.Context, result *dto.ExportResult) {
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
