package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"school-timetable/internal/dto"
	"school-timetable/internal/service"
	"school-timetable/pkg/response"
)

// RosterHandler 班级名册 / 教师目录 Handler
type RosterHandler struct {
	svc service.RosterService
}

// NewRosterHandler 创建 RosterHandler 实例
func NewRosterHandler(svc service.RosterService) *RosterHandler {
	return &RosterHandler{svc: svc}
}

// ListClasses 班级列表
// GET /classes
func (h *RosterHandler) ListClasses(c *gin.Context) {
	classes, err := h.svc.ListClasses(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.InternalError(c, msgInternalFailure)
		return
	}
	response.OK(c, classes)
}

// ListTeachers 按部门列出教师
// GET /teachers?department=xxx
func (h *RosterHandler) ListTeachers(c *gin.Context) {
	var req dto.TeacherListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, service.ErrDepartmentRequired.Error())
		return
	}

	teachers, err := h.svc.ListTeachers(c.Request.Context(), req.Department)
	if err != nil {
		_ = c.Error(err)
		if errors.Is(err, service.ErrDepartmentRequired) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, msgInternalFailure)
		return
	}
	response.OK(c, teachers)
}
