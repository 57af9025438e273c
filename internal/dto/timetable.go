package dto

// ── 时间表模块 DTO ──

// CreateTimetableRequest 创建时间表请求（整份提交，无局部更新）
// days 允许为空列表，但不能缺失或为 null
type CreateTimetableRequest struct {
	ClassName  string                     `json:"className"  binding:"required"`
	Department string                     `json:"department" binding:"required"`
	Days       []DayPayload               `json:"days"       binding:"required"`
	BreakTime  BreakTimePayload           `json:"breakTime"`
	Teachers   []TeacherAssignmentPayload `json:"teachers,omitempty"`
}

// DayPayload 一天的课表
type DayPayload struct {
	Name  string        `json:"name"`
	Slots []SlotPayload `json:"slots"`
}

// SlotPayload 一个时间段，空字符串表示未分配
type SlotPayload struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Course    string `json:"course"`
	Teacher   string `json:"teacher"`
	TeacherID string `json:"teacherId"`
	Room      string `json:"room"`
}

// BreakTimePayload 课间休息 {start, end}，HH:MM
type BreakTimePayload struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TeacherAssignmentPayload 课程 → 教师 ID
type TeacherAssignmentPayload struct {
	Course  string `json:"course"`
	Teacher string `json:"teacher"`
}

// TimetableDocument 时间表文档响应
// 查询接口不返回 createdAt 与 __v，创建接口原样回显
type TimetableDocument struct {
	ID         string                     `json:"_id"`
	ClassName  string                     `json:"className"`
	Department string                     `json:"department"`
	Days       []DayPayload               `json:"days"`
	BreakTime  BreakTimePayload           `json:"breakTime"`
	Teachers   []TeacherAssignmentPayload `json:"teachers"`
	CreatedAt  *string                    `json:"createdAt,omitempty"`
	Version    *int                       `json:"__v,omitempty"`
}

// CreateTimetableResponse 创建成功响应
type CreateTimetableResponse struct {
	Success   bool               `json:"success"`
	Message   string             `json:"message"`
	Timetable *TimetableDocument `json:"timetable"`
}

// TimetableQuery GET /timetable 查询参数；className 为空时返回班级名列表
type TimetableQuery struct {
	ClassName string `form:"className"`
}

// ClassNamesResponse 班级名列表响应
type ClassNamesResponse struct {
	ClassNames []string `json:"classNames"`
}

// ExportTimetableRequest 导出查询参数
type ExportTimetableRequest struct {
	ClassName string `form:"className" binding:"required"`
	Format    string `form:"format"    binding:"omitempty,oneof=xlsx ics"`
	WeekOf    string `form:"weekOf"    binding:"omitempty,datetime=2006-01-02"` // ICS 起始周内任意日期
}
