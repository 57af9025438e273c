// Package editor 时间表编辑器的客户端状态机
//
// 编辑器在内存中逐格构建一周课表，最后一次性提交。它不依赖任何传输层：
// 班级名册、教师目录与提交端都以接口注入，HTTP 实现见 Client。
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"school-timetable/internal/dto"
)

// ── 编辑器业务错误 ──

var (
	ErrUnknownClass      = errors.New("班级不存在")
	ErrNoClassSelected   = errors.New("尚未选择班级")
	ErrUnknownDepartment = errors.New("部门不存在")
	ErrGridLocked        = errors.New("请先选择班级与部门")
	ErrDayOutOfRange     = errors.New("星期序号越界")
	ErrSlotOutOfRange    = errors.New("时间段序号越界")
	ErrInvalidSlotCount  = errors.New("新增时间段数量不能为负")
	ErrInvalidTime       = errors.New("时间格式应为 HH:MM")
	ErrUnknownRoom       = errors.New("教室不存在")
	ErrUnknownCourse     = errors.New("课程不属于所选班级")
	ErrUnknownTeacher    = errors.New("教师不在当前部门目录中")
	ErrUnknownField      = errors.New("不支持的字段")
	ErrSubmitInFlight    = errors.New("提交进行中")
)

const (
	DefaultBreakStart = "13:00"
	DefaultBreakEnd   = "14:00"

	// SuccessMessage / FailureMessage 提交结果提示语
	SuccessMessage = "Timetable created successfully!"
	FailureMessage = "Timetable creation failed"
)

// Weekdays 网格固定的五个工作日
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// Departments 可选部门
var Departments = []string{"Arts", "Maths", "Chem", "Physics", "English", "Urdu", "Islamiat", "History"}

// Stage 编辑器所处阶段
type Stage int

const (
	StageSelectingClass Stage = iota
	StageSelectingDepartment
	StageEditingGrid
	StageEditingSlot
	StageEditingBreak
	StageSubmitting
)

func (s Stage) String() string {
	switch s {
	case StageSelectingClass:
		return "selecting_class"
	case StageSelectingDepartment:
		return "selecting_department"
	case StageEditingGrid:
		return "editing_grid"
	case StageEditingSlot:
		return "editing_slot"
	case StageEditingBreak:
		return "editing_break"
	case StageSubmitting:
		return "submitting"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Field 可单独编辑的时间段字段；教师通过 AssignTeacher 设置
type Field string

const (
	FieldStartTime Field = "startTime"
	FieldEndTime   Field = "endTime"
	FieldCourse    Field = "course"
	FieldRoom      Field = "room"
)

// ── 协作方接口 ──

// Roster 班级名册
type Roster interface {
	ListClasses(ctx context.Context) ([]dto.ClassResponse, error)
}

// Directory 教师目录（按部门）
type Directory interface {
	ListTeachers(ctx context.Context, department string) ([]dto.TeacherResponse, error)
}

// Submitter 时间表提交端
type Submitter interface {
	CreateTimetable(ctx context.Context, req *dto.CreateTimetableRequest) error
}

// NotificationKind 提示类型
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
)

// Notification 提交结果提示，可关闭
type Notification struct {
	Kind    NotificationKind
	Message string
}

// Editor 时间表编辑器
//
// 所有方法并发安全；锁不会跨网络调用持有。
type Editor struct {
	roster    Roster
	directory Directory
	submitter Submitter
	logger    *zap.Logger

	mu           sync.Mutex
	stage        Stage
	classes      []dto.ClassResponse
	class        *dto.ClassResponse
	department   string
	teachers     []dto.TeacherResponse
	teachersGen  uint64
	days         []dto.DayPayload
	breakTime    dto.BreakTimePayload
	openDay      int
	openSlot     int
	submitting   bool
	notification *Notification
}

// NewEditor 创建编辑器；网格初始为五个无时间段的工作日
func NewEditor(roster Roster, directory Directory, submitter Submitter, logger *zap.Logger) *Editor {
	days := make([]dto.DayPayload, len(Weekdays))
	for i, name := range Weekdays {
		days[i] = dto.DayPayload{Name: name, Slots: []dto.SlotPayload{}}
	}
	return &Editor{
		roster:    roster,
		directory: directory,
		submitter: submitter,
		logger:    logger,
		stage:     StageSelectingClass,
		days:      days,
		breakTime: dto.BreakTimePayload{Start: DefaultBreakStart, End: DefaultBreakEnd},
		openDay:   -1,
		openSlot:  -1,
	}
}

// ────────────────────── 班级 / 部门 ──────────────────────

// LoadClasses 拉取班级名册；失败只记日志，列表保持为空
func (e *Editor) LoadClasses(ctx context.Context) {
	classes, err := e.roster.ListClasses(ctx)
	if err != nil {
		e.logger.Warn("加载班级列表失败", zap.Error(err))
		classes = nil
	}

	e.mu.Lock()
	e.classes = classes
	e.mu.Unlock()
}

// Classes 已加载的班级
func (e *Editor) Classes() []dto.ClassResponse {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]dto.ClassResponse, len(e.classes))
	copy(out, e.classes)
	return out
}

func (e *Editor) SelectClass(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.submitting {
		return ErrSubmitInFlight
	}
	for i := range e.classes {
		if e.classes[i].ClassName == name {
			c := e.classes[i]
			e.class = &c
			if e.department == "" {
				e.stage = StageSelectingDepartment
			}
			return nil
		}
	}
	return ErrUnknownClass
}

// SelectedClass 当前班级名；未选择时为空
func (e *Editor) SelectedClass() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.class == nil {
		return ""
	}
	return e.class.ClassName
}

// AssignedCourses 所选班级的课程及名册中的预分配教师（可能为空）
func (e *Editor) AssignedCourses() []dto.ClassTeacherBrief {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.class == nil {
		return nil
	}

	preset := make(map[string]string, len(e.class.Teachers))
	for _, t := range e.class.Teachers {
		if _, ok := preset[t.Course]; !ok {
			preset[t.Course] = t.Teacher
		}
	}
	out := make([]dto.ClassTeacherBrief, 0, len(e.class.Courses))
	for _, course := range e.class.Courses {
		out = append(out, dto.ClassTeacherBrief{Course: course, Teacher: preset[course]})
	}
	return out
}

// SelectDepartment 选择部门并拉取该部门教师
//
// 拉取失败只记日志，教师列表保持为空。拉取期间若部门再次变更，
// 旧请求的结果被丢弃。
func (e *Editor) SelectDepartment(ctx context.Context, department string) error {
	if !contains(Departments, department) {
		return ErrUnknownDepartment
	}

	e.mu.Lock()
	if e.submitting {
		e.mu.Unlock()
		return ErrSubmitInFlight
	}
	if e.class == nil {
		e.mu.Unlock()
		return ErrNoClassSelected
	}
	e.department = department
	e.teachers = nil
	e.teachersGen++
	gen := e.teachersGen
	if e.stage < StageEditingGrid {
		e.stage = StageEditingGrid
	}
	e.mu.Unlock()

	teachers, err := e.directory.ListTeachers(ctx, department)
	if err != nil {
		e.logger.Warn("加载教师目录失败", zap.String("department", department), zap.Error(err))
		teachers = nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.teachersGen {
		e.logger.Debug("丢弃过期的教师目录结果", zap.String("department", department))
		return nil
	}
	e.teachers = teachers
	return nil
}

// Department 当前部门；未选择时为空
func (e *Editor) Department() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.department
}

// Teachers 当前部门的教师
func (e *Editor) Teachers() []dto.TeacherResponse {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]dto.TeacherResponse, len(e.teachers))
	copy(out, e.teachers)
	return out
}

// Stage 当前阶段
func (e *Editor) Stage() Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stage
}

// Rooms 可选教室 A-01..A-20
func Rooms() []string {
	out := make([]string, len(rooms))
	copy(out, rooms)
	return out
}

var rooms = func() []string {
	out := make([]string, 20)
	for i := range out {
		out[i] = fmt.Sprintf("A-%02d", i+1)
	}
	return out
}()

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
