package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"school-timetable/internal/dto"
	"school-timetable/internal/service"
	pkgerrors "school-timetable/pkg/errors"
	"school-timetable/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportTimetable 导出时间表
// GET /timetable/export?className=xxx&format=xlsx|ics&weekOf=2026-09-07
// format 缺省为 xlsx；weekOf 仅对 ics 有效
func (h *ExportHandler) ExportTimetable(c *gin.Context) {
	var req dto.ExportTimetableRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid export parameters")
		return
	}

	switch req.Format {
	case "", "xlsx":
		buf, filename, err := h.exportSvc.ExportExcel(c.Request.Context(), req.ClassName)
		if err != nil {
			h.handleExportError(c, err)
			return
		}
		setAttachment(c, filename)
		c.Data(http.StatusOK, contentTypeXLSX, buf.Bytes())

	case "ics":
		var weekOf time.Time
		if req.WeekOf != "" {
			// 格式已由 binding 校验
			weekOf, _ = time.Parse("2006-01-02", req.WeekOf)
		}
		content, filename, err := h.exportSvc.ExportICS(c.Request.Context(), req.ClassName, weekOf)
		if err != nil {
			h.handleExportError(c, err)
			return
		}
		setAttachment(c, filename)
		c.Data(http.StatusOK, contentTypeICS, []byte(content))
	}
}

func setAttachment(c *gin.Context, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		response.NotFound(c, msgNotFound)
	case errors.Is(err, pkgerrors.ErrValidation):
		response.BadRequest(c, "Invalid export parameters")
	default:
		response.InternalError(c, msgInternalFailure)
	}
}
