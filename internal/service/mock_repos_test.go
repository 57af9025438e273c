package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"school-timetable/config"
	"school-timetable/internal/model"
	"school-timetable/internal/repository"
	pkgerrors "school-timetable/pkg/errors"
)

// ── Mock TimetableRepository ──

type mockTimetableRepo struct {
	timetables map[string]*model.Timetable
	order      []string
	createErr  error
	findErr    error
	listErr    error
	creates    int
	lists      int
	last       *model.Timetable
}

func newMockTimetableRepo() *mockTimetableRepo {
	return &mockTimetableRepo{timetables: make(map[string]*model.Timetable)}
}

func (m *mockTimetableRepo) Create(_ context.Context, tt *model.Timetable) (*model.Timetable, error) {
	m.creates++
	m.last = tt
	if m.createErr != nil {
		return nil, m.createErr
	}
	if _, ok := m.timetables[tt.ClassName]; ok {
		return nil, pkgerrors.Conflict("timetable.create", errors.New("duplicate key"))
	}
	saved := *tt
	saved.ID = primitive.NewObjectID()
	saved.CreatedAt = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	saved.Normalize()
	m.timetables[tt.ClassName] = &saved
	m.order = append(m.order, tt.ClassName)
	return &saved, nil
}

func (m *mockTimetableRepo) FindByClassName(_ context.Context, className string) (*model.Timetable, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	tt, ok := m.timetables[className]
	if !ok {
		return nil, pkgerrors.NotFound("timetable.find_by_class_name", errors.New("no documents"))
	}
	out := *tt
	out.CreatedAt = time.Time{}
	return &out, nil
}

func (m *mockTimetableRepo) ListDistinctClassNames(_ context.Context) ([]string, error) {
	m.lists++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out, nil
}

func (m *mockTimetableRepo) EnsureIndexes(_ context.Context) error { return nil }

// ── Mock ClassRepository ──

type mockClassRepo struct {
	classes []model.Class
	listErr error
}

func (m *mockClassRepo) List(_ context.Context) ([]model.Class, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.classes, nil
}

// ── Mock TeacherRepository ──

type mockTeacherRepo struct {
	teachers []model.Teacher
	listErr  error
}

func (m *mockTeacherRepo) ListByDepartment(_ context.Context, department string) ([]model.Teacher, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.Teacher
	for _, t := range m.teachers {
		if t.Department == department {
			out = append(out, t)
		}
	}
	return out, nil
}

// ── Mock ClassNameCache（带代数，行为与 Redis 实现一致）──

type mockClassNameCache struct {
	names       []string
	cached      bool
	gen         int64
	getErr      error
	genErr      error
	setErr      error
	invalidated int
	sets        int
	staleSets   int
}

func (m *mockClassNameCache) GetClassNames(_ context.Context) ([]string, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	return m.names, m.cached, nil
}

func (m *mockClassNameCache) ClassNamesGeneration(_ context.Context) (int64, error) {
	if m.genErr != nil {
		return 0, m.genErr
	}
	return m.gen, nil
}

func (m *mockClassNameCache) SetClassNames(_ context.Context, names []string, gen int64) (bool, error) {
	m.sets++
	if m.setErr != nil {
		return false, m.setErr
	}
	if gen != m.gen {
		m.staleSets++
		return false, nil
	}
	m.names = names
	m.cached = true
	return true, nil
}

func (m *mockClassNameCache) InvalidateClassNames(_ context.Context) error {
	m.invalidated++
	m.gen++
	m.names = nil
	m.cached = false
	return nil
}

// ── 测试辅助 ──

type testRepos struct {
	timetable *mockTimetableRepo
	class     *mockClassRepo
	teacher   *mockTeacherRepo
}

func newTestRepository() (*repository.Repository, *testRepos) {
	r := &testRepos{
		timetable: newMockTimetableRepo(),
		class:     &mockClassRepo{},
		teacher:   &mockTeacherRepo{},
	}
	return &repository.Repository{
		Timetable: r.timetable,
		Class:     r.class,
		Teacher:   r.teacher,
	}, r
}

func testConfig() *config.Config {
	return &config.Config{Export: config.ExportConfig{Timezone: "Asia/Karachi"}}
}

var nopLogger = zap.NewNop()
