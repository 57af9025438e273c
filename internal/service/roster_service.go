package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"school-timetable/internal/dto"
	"school-timetable/internal/model"
	"school-timetable/internal/repository"
	pkgerrors "school-timetable/pkg/errors"
)

// ErrDepartmentRequired 查询教师目录时未指定部门
var ErrDepartmentRequired = errors.New("department is required")

// RosterService 班级名册与教师目录业务接口
//
// 两者均为只读协作数据，供时间表编辑器选择班级与教师。
type RosterService interface {
	// ListClasses 列出全部班级（含课程与预分配教师）
	ListClasses(ctx context.Context) ([]dto.ClassResponse, error)
	// ListTeachers 按部门列出教师
	ListTeachers(ctx context.Context, department string) ([]dto.TeacherResponse, error)
}

type rosterService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRosterService 创建 RosterService 实例
func NewRosterService(repo *repository.Repository, logger *zap.Logger) RosterService {
	return &rosterService{repo: repo, logger: logger}
}

func (s *rosterService) ListClasses(ctx context.Context) ([]dto.ClassResponse, error) {
	classes, err := s.repo.Class.List(ctx)
	if err != nil {
		s.logger.Error("查询班级名册失败", zap.Error(err))
		return nil, pkgerrors.Persistence("roster.list_classes", err)
	}

	out := make([]dto.ClassResponse, 0, len(classes))
	for i := range classes {
		out = append(out, s.toClassResponse(&classes[i]))
	}
	return out, nil
}

func (s *rosterService) ListTeachers(ctx context.Context, department string) ([]dto.TeacherResponse, error) {
	department = strings.TrimSpace(department)
	if department == "" {
		return nil, ErrDepartmentRequired
	}

	teachers, err := s.repo.Teacher.ListByDepartment(ctx, department)
	if err != nil {
		s.logger.Error("查询教师目录失败", zap.String("department", department), zap.Error(err))
		return nil, pkgerrors.Persistence("roster.list_teachers", err)
	}

	out := make([]dto.TeacherResponse, 0, len(teachers))
	for _, t := range teachers {
		out = append(out, dto.TeacherResponse{
			ID:         t.TeacherID,
			FirstName:  t.FirstName,
			LastName:   t.LastName,
			Department: t.Department,
		})
	}
	return out, nil
}

// ── 内部辅助方法 ──

// toClassResponse teachers 列解析失败时只记日志，返回不含预分配教师的班级
func (s *rosterService) toClassResponse(c *model.Class) dto.ClassResponse {
	resp := dto.ClassResponse{
		ClassName:  c.ClassName,
		ClassLevel: c.ClassLevel,
		Stream:     c.Stream,
		Courses:    []string(c.Courses),
	}
	if resp.Courses == nil {
		resp.Courses = []string{}
	}

	if len(c.Teachers) == 0 {
		return resp
	}
	var assigned []model.ClassTeacher
	if err := json.Unmarshal(c.Teachers, &assigned); err != nil {
		s.logger.Warn("班级预分配教师格式错误", zap.String("class_name", c.ClassName), zap.Error(err))
		return resp
	}
	for _, a := range assigned {
		resp.Teachers = append(resp.Teachers, dto.ClassTeacherBrief{Course: a.Course, Teacher: a.Teacher})
	}
	return resp
}
