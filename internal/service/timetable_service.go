package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"school-timetable/internal/dto"
	"school-timetable/internal/model"
	"school-timetable/internal/repository"
	pkgerrors "school-timetable/pkg/errors"
)

// CreatedMessage 创建成功时返回的提示语
const CreatedMessage = "Timetable created successfully!"

// createdAtLayout 与文档库 ISO 日期输出保持一致（毫秒精度，UTC）
const createdAtLayout = "2006-01-02T15:04:05.000Z07:00"

// ClassNameCache 班级名列表缓存；实现为 *redis.Client
//
// SetClassNames 只在代数仍为 gen 时写入，防止失效之前的查询结果被写回。
type ClassNameCache interface {
	GetClassNames(ctx context.Context) ([]string, bool, error)
	ClassNamesGeneration(ctx context.Context) (int64, error)
	SetClassNames(ctx context.Context, names []string, gen int64) (bool, error)
	InvalidateClassNames(ctx context.Context) error
}

// ── TimetableService 接口 ──────────────────────────────────
//
// 设计说明：
//   - 创建为整份写入，不做局部更新，也不重试；超时后的客户端重试可能被唯一索引拒绝。
//   - 每个 slot 的 teacherId 是"谁教什么"的权威来源；请求未携带 teachers 时由 slots 推导。
//   - 班级名列表优先读缓存，创建成功后失效缓存；缓存故障只记日志。
//   - 回写缓存以查询前的代数为条件，查询期间发生的失效不会被覆盖。
// ─────────────────────────────────────────────────────────────

// TimetableService 时间表模块业务接口
type TimetableService interface {
	// Create 创建时间表，返回回显文档（含 createdAt 与 __v）
	Create(ctx context.Context, req *dto.CreateTimetableRequest) (*dto.TimetableDocument, error)
	// GetByClassName 按班级名查询时间表（不含 createdAt 与 __v）
	GetByClassName(ctx context.Context, className string) (*dto.TimetableDocument, error)
	// ListClassNames 列出所有已有时间表的班级名
	ListClassNames(ctx context.Context) ([]string, error)
}

type timetableService struct {
	repo   *repository.Repository
	cache  ClassNameCache
	logger *zap.Logger
}

// NewTimetableService 创建 TimetableService 实例；cache 可为 nil
func NewTimetableService(repo *repository.Repository, cache ClassNameCache, logger *zap.Logger) TimetableService {
	return &timetableService{repo: repo, cache: cache, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *timetableService) Create(ctx context.Context, req *dto.CreateTimetableRequest) (*dto.TimetableDocument, error) {
	if missing := missingFields(req); len(missing) > 0 {
		return nil, pkgerrors.Validation("timetable.create", missing...)
	}

	tt := toTimetableModel(req)

	saved, err := s.repo.Timetable.Create(ctx, tt)
	if err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrConflict):
			s.logger.Warn("班级时间表已存在", zap.String("class_name", req.ClassName))
		default:
			s.logger.Error("创建时间表失败", zap.String("class_name", req.ClassName), zap.Error(err))
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateClassNames(ctx); err != nil {
			s.logger.Warn("失效班级名缓存失败", zap.Error(err))
		}
	}

	s.logger.Info("时间表已创建",
		zap.String("class_name", saved.ClassName),
		zap.String("id", saved.ID.Hex()),
		zap.Int("days", len(saved.Days)),
	)

	return toTimetableDocument(saved, true), nil
}

// ────────────────────── GetByClassName ──────────────────────

func (s *timetableService) GetByClassName(ctx context.Context, className string) (*dto.TimetableDocument, error) {
	tt, err := s.repo.Timetable.FindByClassName(ctx, className)
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrNotFound) {
			s.logger.Error("查询时间表失败", zap.String("class_name", className), zap.Error(err))
		}
		return nil, err
	}
	return toTimetableDocument(tt, false), nil
}

// ────────────────────── ListClassNames ──────────────────────

func (s *timetableService) ListClassNames(ctx context.Context) ([]string, error) {
	var (
		gen      int64
		writable bool
	)
	if s.cache != nil {
		names, ok, err := s.cache.GetClassNames(ctx)
		switch {
		case err != nil:
			s.logger.Warn("读取班级名缓存失败，回源查询", zap.Error(err))
		case ok:
			return names, nil
		}

		// 代数须在回源查询之前读取
		if g, err := s.cache.ClassNamesGeneration(ctx); err != nil {
			s.logger.Warn("读取班级名缓存代数失败，本次不回写缓存", zap.Error(err))
		} else {
			gen, writable = g, true
		}
	}

	names, err := s.repo.Timetable.ListDistinctClassNames(ctx)
	if err != nil {
		s.logger.Error("列出班级名失败", zap.Error(err))
		return nil, err
	}
	if names == nil {
		names = []string{}
	}

	if writable {
		stored, err := s.cache.SetClassNames(ctx, names, gen)
		switch {
		case err != nil:
			s.logger.Warn("写入班级名缓存失败", zap.Error(err))
		case !stored:
			s.logger.Debug("查询期间缓存已失效，放弃回写班级名列表", zap.Int64("generation", gen))
		}
	}

	return names, nil
}

// ── 内部辅助方法 ──

// missingFields 返回缺失的必填字段；days 为 nil 视为缺失，空列表视为存在
func missingFields(req *dto.CreateTimetableRequest) []string {
	if req == nil {
		return []string{"className", "department", "days"}
	}
	var missing []string
	if req.ClassName == "" {
		missing = append(missing, "className")
	}
	if req.Department == "" {
		missing = append(missing, "department")
	}
	if req.Days == nil {
		missing = append(missing, "days")
	}
	return missing
}

func toTimetableModel(req *dto.CreateTimetableRequest) *model.Timetable {
	days := make([]model.Day, len(req.Days))
	for i, d := range req.Days {
		slots := make([]model.Slot, len(d.Slots))
		for j, sl := range d.Slots {
			slots[j] = model.Slot{
				StartTime: sl.StartTime,
				EndTime:   sl.EndTime,
				Course:    sl.Course,
				Teacher:   sl.Teacher,
				TeacherID: sl.TeacherID,
				Room:      sl.Room,
			}
		}
		days[i] = model.Day{Name: d.Name, Slots: slots}
	}

	var teachers []model.TeacherAssignment
	if len(req.Teachers) > 0 {
		teachers = make([]model.TeacherAssignment, len(req.Teachers))
		for i, ta := range req.Teachers {
			teachers[i] = model.TeacherAssignment{Course: ta.Course, TeacherRef: ta.Teacher}
		}
	} else {
		teachers = deriveTeacherAssignments(days)
	}

	return &model.Timetable{
		ClassName:  req.ClassName,
		Department: req.Department,
		Days:       days,
		BreakTime:  model.BreakTime{Start: req.BreakTime.Start, End: req.BreakTime.End},
		Teachers:   teachers,
	}
}

// deriveTeacherAssignments 由 slots 推导课程 → 教师分配
// 按首次出现顺序，每个 (course, teacherId) 只记一次；任一为空则跳过
func deriveTeacherAssignments(days []model.Day) []model.TeacherAssignment {
	type pair struct{ course, teacherID string }
	seen := make(map[pair]bool)
	out := []model.TeacherAssignment{}
	for _, d := range days {
		for _, sl := range d.Slots {
			if sl.Course == "" || sl.TeacherID == "" {
				continue
			}
			p := pair{sl.Course, sl.TeacherID}
			if seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, model.TeacherAssignment{Course: sl.Course, TeacherRef: sl.TeacherID})
		}
	}
	return out
}

func toTimetableDocument(tt *model.Timetable, withMeta bool) *dto.TimetableDocument {
	days := make([]dto.DayPayload, len(tt.Days))
	for i, d := range tt.Days {
		slots := make([]dto.SlotPayload, len(d.Slots))
		for j, sl := range d.Slots {
			slots[j] = dto.SlotPayload{
				StartTime: sl.StartTime,
				EndTime:   sl.EndTime,
				Course:    sl.Course,
				Teacher:   sl.Teacher,
				TeacherID: sl.TeacherID,
				Room:      sl.Room,
			}
		}
		days[i] = dto.DayPayload{Name: d.Name, Slots: slots}
	}

	teachers := make([]dto.TeacherAssignmentPayload, len(tt.Teachers))
	for i, ta := range tt.Teachers {
		teachers[i] = dto.TeacherAssignmentPayload{Course: ta.Course, Teacher: ta.TeacherRef}
	}

	doc := &dto.TimetableDocument{
		ID:         tt.ID.Hex(),
		ClassName:  tt.ClassName,
		Department: tt.Department,
		Days:       days,
		BreakTime:  dto.BreakTimePayload{Start: tt.BreakTime.Start, End: tt.BreakTime.End},
		Teachers:   teachers,
	}
	if withMeta {
		createdAt := tt.CreatedAt.UTC().Format(createdAtLayout)
		version := tt.Version
		doc.CreatedAt = &createdAt
		doc.Version = &version
	}
	return doc
}
