package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"school-timetable/internal/dto"
	"school-timetable/internal/service"
	pkgerrors "school-timetable/pkg/errors"
	"school-timetable/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock TimetableService（内存实现，按 className 存取）──

type mockTimetableService struct {
	docs      map[string]*dto.TimetableDocument
	createErr error
	getErr    error
	listErr   error
	creates   int
}

func newMockTimetableService() *mockTimetableService {
	return &mockTimetableService{docs: make(map[string]*dto.TimetableDocument)}
}

func (m *mockTimetableService) Create(_ context.Context, req *dto.CreateTimetableRequest) (*dto.TimetableDocument, error) {
	m.creates++
	if m.createErr != nil {
		return nil, m.createErr
	}
	createdAt := "2026-09-01T08:00:00.000Z"
	version := 0
	doc := &dto.TimetableDocument{
		ID:         "66d4000000000000000000aa",
		ClassName:  req.ClassName,
		Department: req.Department,
		Days:       req.Days,
		BreakTime:  req.BreakTime,
		Teachers:   []dto.TeacherAssignmentPayload{},
		CreatedAt:  &createdAt,
		Version:    &version,
	}
	stored := *doc
	stored.CreatedAt, stored.Version = nil, nil
	m.docs[req.ClassName] = &stored
	return doc, nil
}

func (m *mockTimetableService) GetByClassName(_ context.Context, className string) (*dto.TimetableDocument, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	doc, ok := m.docs[className]
	if !ok {
		return nil, pkgerrors.NotFound("timetable.find_by_class_name", errors.New("no documents"))
	}
	return doc, nil
}

func (m *mockTimetableService) ListClassNames(_ context.Context) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	names := []string{}
	for name := range m.docs {
		names = append(names, name)
	}
	return names, nil
}

// ── Mock RosterService ──

type mockRosterService struct {
	classes    []dto.ClassResponse
	teachers   []dto.TeacherResponse
	err        error
	department string
}

func (m *mockRosterService) ListClasses(_ context.Context) ([]dto.ClassResponse, error) {
	return m.classes, m.err
}

func (m *mockRosterService) ListTeachers(_ context.Context, department string) ([]dto.TeacherResponse, error) {
	m.department = department
	return m.teachers, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	err    error
	weekOf time.Time
}

func (m *mockExportService) ExportExcel(_ context.Context, className string) (*bytes.Buffer, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	return bytes.NewBufferString("PK-fake"), "timetable_" + className + ".xlsx", nil
}

func (m *mockExportService) ExportICS(_ context.Context, className string, weekOf time.Time) (string, string, error) {
	m.weekOf = weekOf
	if m.err != nil {
		return "", "", m.err
	}
	return "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n", "timetable_" + className + ".ics", nil
}

// ═══════════════════════════════════════════════════════════
// 测试辅助
// ═══════════════════════════════════════════════════════════

type testServices struct {
	timetable *mockTimetableService
	roster    *mockRosterService
	export    *mockExportService
}

func setupRouter() (*gin.Engine, *testServices) {
	mocks := &testServices{
		timetable: newMockTimetableService(),
		roster:    &mockRosterService{},
		export:    &mockExportService{},
	}
	h := NewHandler(&service.Service{
		Timetable: mocks.timetable,
		Roster:    mocks.roster,
		Export:    mocks.export,
	})

	r := gin.New()
	r.POST("/timetable", h.Timetable.CreateTimetable)
	r.GET("/timetable", h.Timetable.GetTimetable)
	r.GET("/timetable/export", h.Export.ExportTimetable)
	r.GET("/classes", h.Roster.ListClasses)
	r.GET("/teachers", h.Roster.ListTeachers)
	return r, mocks
}

func doRequest(r *gin.Engine, method, target string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body response.ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("解析错误响应失败: %v, body=%s", err, w.Body.String())
	}
	return body.Error
}

const scenarioPayload = `{
	"className": "9-C",
	"department": "Science",
	"days": [{"name": "Monday", "slots": [{
		"startTime": "08:00", "endTime": "09:00", "course": "Physics",
		"teacher": "Dr. Khan", "teacherId": "t1", "room": "A-01"
	}]}],
	"breakTime": {"start": "13:00", "end": "14:00"}
}`

// ═══════════════════════════════════════════════════════════
// POST /timetable
// ═══════════════════════════════════════════════════════════

func TestTimetableHandler_Create_ThenGet(t *testing.T) {
	r, _ := setupRouter()

	w := doRequest(r, http.MethodPost, "/timetable", []byte(scenarioPayload))
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}

	var created dto.CreateTimetableResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if !created.Success || created.Message != "Timetable created successfully!" {
		t.Errorf("期望 success=true 且提示语正确，实际 %+v", created)
	}
	if created.Timetable == nil || created.Timetable.CreatedAt == nil {
		t.Fatal("创建响应应回显含 createdAt 的文档")
	}

	w = doRequest(r, http.MethodGet, "/timetable?className=9-C", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if _, ok := raw["createdAt"]; ok {
		t.Error("查询结果不应包含 createdAt")
	}
	if _, ok := raw["__v"]; ok {
		t.Error("查询结果不应包含 __v")
	}

	var got dto.TimetableDocument
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if !reflect.DeepEqual(got.Days, created.Timetable.Days) {
		t.Errorf("days 往返不一致:\n期望 %+v\n实际 %+v", created.Timetable.Days, got.Days)
	}
	if got.BreakTime != (dto.BreakTimePayload{Start: "13:00", End: "14:00"}) {
		t.Errorf("breakTime 往返不一致: %+v", got.BreakTime)
	}
}

func TestTimetableHandler_Create_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"缺少 className", `{"department":"Science","days":[]}`},
		{"缺少 department", `{"className":"9-C","days":[]}`},
		{"缺少 days", `{"className":"9-C","department":"Science"}`},
		{"days 为 null", `{"className":"9-C","department":"Science","days":null}`},
		{"空对象", `{}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, mocks := setupRouter()

			w := doRequest(r, http.MethodPost, "/timetable", []byte(tc.body))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("期望 400，实际 %d", w.Code)
			}
			if msg := parseError(t, w); msg != "Missing required fields" {
				t.Errorf("期望 Missing required fields，实际 %q", msg)
			}
			if mocks.timetable.creates != 0 {
				t.Error("校验失败时不应调用 Service")
			}
		})
	}
}

func TestTimetableHandler_Create_EmptyDaysAccepted(t *testing.T) {
	r, _ := setupRouter()

	w := doRequest(r, http.MethodPost, "/timetable", []byte(`{"className":"9-C","department":"Arts","days":[]}`))
	if w.Code != http.StatusOK {
		t.Errorf("空 days 列表应被接受，实际 %d: %s", w.Code, w.Body.String())
	}
}

func TestTimetableHandler_Create_BadJSON(t *testing.T) {
	r, mocks := setupRouter()

	w := doRequest(r, http.MethodPost, "/timetable", []byte("invalid json"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("期望 500，实际 %d", w.Code)
	}
	if msg := parseError(t, w); msg != "Failed to create timetable" {
		t.Errorf("期望 Failed to create timetable，实际 %q", msg)
	}
	if mocks.timetable.creates != 0 {
		t.Error("请求体无法解析时不应调用 Service")
	}
}

func TestTimetableHandler_Create_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"校验失败", pkgerrors.Validation("timetable.create", "days"), http.StatusBadRequest, "Missing required fields"},
		{"重复班级", pkgerrors.Conflict("timetable.create", errors.New("E11000")), http.StatusConflict, "Timetable already exists"},
		{"存储失败", pkgerrors.Persistence("timetable.create", errors.New("timeout")), http.StatusInternalServerError, "Failed to create timetable"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, mocks := setupRouter()
			mocks.timetable.createErr = tc.err

			w := doRequest(r, http.MethodPost, "/timetable", []byte(scenarioPayload))
			if w.Code != tc.status {
				t.Fatalf("期望 %d，实际 %d", tc.status, w.Code)
			}
			if msg := parseError(t, w); msg != tc.msg {
				t.Errorf("期望 %q，实际 %q", tc.msg, msg)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// GET /timetable
// ═══════════════════════════════════════════════════════════

func TestTimetableHandler_Get_NotFound(t *testing.T) {
	r, _ := setupRouter()

	w := doRequest(r, http.MethodGet, "/timetable?className=never-created", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("期望 404，实际 %d", w.Code)
	}
	if msg := parseError(t, w); msg != "Timetable not found" {
		t.Errorf("期望 Timetable not found，实际 %q", msg)
	}
}

func TestTimetableHandler_Get_Failure(t *testing.T) {
	r, mocks := setupRouter()
	mocks.timetable.getErr = pkgerrors.Persistence("timetable.find_by_class_name", errors.New("timeout"))

	w := doRequest(r, http.MethodGet, "/timetable?className=9-C", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("期望 500，实际 %d", w.Code)
	}
	if msg := parseError(t, w); msg != "Internal Server Error" {
		t.Errorf("期望 Internal Server Error，实际 %q", msg)
	}
}

func TestTimetableHandler_ListClassNames(t *testing.T) {
	r, _ := setupRouter()
	for _, name := range []string{"10-A", "10-B"} {
		body := strings.Replace(scenarioPayload, `"9-C"`, `"`+name+`"`, 1)
		if w := doRequest(r, http.MethodPost, "/timetable", []byte(body)); w.Code != http.StatusOK {
			t.Fatalf("创建 %s 失败: %d", name, w.Code)
		}
	}

	w := doRequest(r, http.MethodGet, "/timetable", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	var resp dto.ClassNamesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	got := map[string]bool{}
	for _, n := range resp.ClassNames {
		got[n] = true
	}
	if len(resp.ClassNames) != 2 || !got["10-A"] || !got["10-B"] {
		t.Errorf("期望 {10-A, 10-B}，实际 %v", resp.ClassNames)
	}
}

func TestTimetableHandler_ListClassNames_Empty(t *testing.T) {
	r, _ := setupRouter()

	w := doRequest(r, http.MethodGet, "/timetable", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != `{"classNames":[]}` {
		t.Errorf("期望空列表，实际 %s", w.Body.String())
	}
}

func TestTimetableHandler_ListClassNames_Failure(t *testing.T) {
	r, mocks := setupRouter()
	mocks.timetable.listErr = pkgerrors.Persistence("timetable.list_class_names", errors.New("timeout"))

	w := doRequest(r, http.MethodGet, "/timetable", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("期望 500，实际 %d", w.Code)
	}
	if msg := parseError(t, w); msg != "Internal Server Error" {
		t.Errorf("期望 Internal Server Error，实际 %q", msg)
	}
}

// ═══════════════════════════════════════════════════════════
// 班级名册 / 教师目录
// ═══════════════════════════════════════════════════════════

func TestRosterHandler_ListClasses(t *testing.T) {
	r, mocks := setupRouter()
	mocks.roster.classes = []dto.ClassResponse{{ClassName: "9-C", ClassLevel: "9", Stream: "Science", Courses: []string{"Physics"}}}

	w := doRequest(r, http.MethodGet, "/classes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	var got []dto.ClassResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if !reflect.DeepEqual(got, mocks.roster.classes) {
		t.Errorf("期望 %+v，实际 %+v", mocks.roster.classes, got)
	}
}

func TestRosterHandler_ListTeachers(t *testing.T) {
	r, mocks := setupRouter()
	mocks.roster.teachers = []dto.TeacherResponse{{ID: "t1", FirstName: "Imran", LastName: "Khan", Department: "Physics"}}

	w := doRequest(r, http.MethodGet, "/teachers?department=Physics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if mocks.roster.department != "Physics" {
		t.Errorf("期望按 Physics 查询，实际 %q", mocks.roster.department)
	}
	if !strings.Contains(w.Body.String(), `"_id":"t1"`) {
		t.Errorf("响应应包含 _id，实际 %s", w.Body.String())
	}
}

func TestRosterHandler_ListTeachers_MissingDepartment(t *testing.T) {
	r, _ := setupRouter()

	w := doRequest(r, http.MethodGet, "/teachers", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("期望 400，实际 %d", w.Code)
	}
	if msg := parseError(t, w); msg != "department is required" {
		t.Errorf("期望 department is required，实际 %q", msg)
	}
}

// ═══════════════════════════════════════════════════════════
// GET /timetable/export
// ═══════════════════════════════════════════════════════════

func TestExportHandler_Excel(t *testing.T) {
	r, _ := setupRouter()

	w := doRequest(r, http.MethodGet, "/timetable/export?className=9-C", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != contentTypeXLSX {
		t.Errorf("期望 Content-Type=%s，实际 %s", contentTypeXLSX, ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "timetable_9-C.xlsx") {
		t.Errorf("Content-Disposition 应包含文件名，实际 %s", cd)
	}
}

func TestExportHandler_ICS_WeekOf(t *testing.T) {
	r, mocks := setupRouter()

	w := doRequest(r, http.MethodGet, "/timetable/export?className=9-C&format=ics&weekOf=2026-09-07", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/calendar") {
		t.Errorf("期望 text/calendar，实际 %s", w.Header().Get("Content-Type"))
	}
	if !mocks.export.weekOf.Equal(time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("weekOf 解析错误: %s", mocks.export.weekOf)
	}
}

func TestExportHandler_BadParams(t *testing.T) {
	tests := []string{
		"/timetable/export",
		"/timetable/export?className=9-C&format=pdf",
		"/timetable/export?className=9-C&format=ics&weekOf=07-09-2026",
	}
	for _, target := range tests {
		r, _ := setupRouter()
		if w := doRequest(r, http.MethodGet, target, nil); w.Code != http.StatusBadRequest {
			t.Errorf("%s 期望 400，实际 %d", target, w.Code)
		}
	}
}

func TestExportHandler_NotFound(t *testing.T) {
	r, mocks := setupRouter()
	mocks.export.err = pkgerrors.NotFound("timetable.find_by_class_name", errors.New("no documents"))

	w := doRequest(r, http.MethodGet, "/timetable/export?className=never-created&format=ics", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("期望 404，实际 %d", w.Code)
	}
	if msg := parseError(t, w); msg != "Timetable not found" {
		t.Errorf("期望 Timetable not found，实际 %q", msg)
	}
}
