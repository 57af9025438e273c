package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"school-timetable/internal/dto"
	"school-timetable/internal/service"
	pkgerrors "school-timetable/pkg/errors"
	"school-timetable/pkg/response"
)

// 对外错误文案，调用方依赖其原文
const (
	msgMissingFields   = "Missing required fields"
	msgCreateFailed    = "Failed to create timetable"
	msgAlreadyExists   = "Timetable already exists"
	msgNotFound        = "Timetable not found"
	msgInternalFailure = "Internal Server Error"
)

// TimetableHandler 时间表模块 Handler
type TimetableHandler struct {
	svc service.TimetableService
}

// NewTimetableHandler 创建 TimetableHandler 实例
func NewTimetableHandler(svc service.TimetableService) *TimetableHandler {
	return &TimetableHandler{svc: svc}
}

// CreateTimetable 创建时间表
// POST /timetable
//
// 必填字段缺失返回 400；请求体无法解析与其他失败一样返回 500。
func (h *TimetableHandler) CreateTimetable(c *gin.Context) {
	var req dto.CreateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			response.BadRequest(c, msgMissingFields)
			return
		}
		_ = c.Error(err)
		// 超出请求体上限时由 BodyLimit 中间件返回 413
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return
		}
		response.InternalError(c, msgCreateFailed)
		return
	}

	doc, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		switch {
		case errors.Is(err, pkgerrors.ErrValidation):
			response.BadRequest(c, msgMissingFields)
		case errors.Is(err, pkgerrors.ErrConflict):
			response.Conflict(c, msgAlreadyExists)
		default:
			response.InternalError(c, msgCreateFailed)
		}
		return
	}

	response.OK(c, dto.CreateTimetableResponse{
		Success:   true,
		Message:   service.CreatedMessage,
		Timetable: doc,
	})
}

// GetTimetable 查询时间表
// GET /timetable?className=xxx   返回单个时间表
// GET /timetable                 返回全部班级名
func (h *TimetableHandler) GetTimetable(c *gin.Context) {
	var q dto.TimetableQuery
	_ = c.ShouldBindQuery(&q)

	if q.ClassName == "" {
		names, err := h.svc.ListClassNames(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
			response.InternalError(c, msgInternalFailure)
			return
		}
		response.OK(c, dto.ClassNamesResponse{ClassNames: names})
		return
	}

	doc, err := h.svc.GetByClassName(c.Request.Context(), q.ClassName)
	if err != nil {
		_ = c.Error(err)
		if errors.Is(err, pkgerrors.ErrNotFound) {
			response.NotFound(c, msgNotFound)
			return
		}
		response.InternalError(c, msgInternalFailure)
		return
	}

	response.OK(c, doc)
}
