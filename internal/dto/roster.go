package dto

// ── 班级名册 / 教师目录 DTO ──

// ClassResponse 班级信息（含课程与预分配教师）
type ClassResponse struct {
	ClassName  string              `json:"className"`
	ClassLevel string              `json:"classLevel"`
	Stream     string              `json:"stream"`
	Courses    []string            `json:"courses"`
	Teachers   []ClassTeacherBrief `json:"teachers,omitempty"`
}

// ClassTeacherBrief 班级课程的预分配教师
type ClassTeacherBrief struct {
	Course  string `json:"course"`
	Teacher string `json:"teacher"`
}

// TeacherListRequest 教师目录查询参数
type TeacherListRequest struct {
	Department string `form:"department" binding:"required"`
}

// TeacherResponse 教师目录条目
type TeacherResponse struct {
	ID         string `json:"_id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Department string `json:"department"`
}
