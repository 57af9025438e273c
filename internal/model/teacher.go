package model

// Teacher 教师目录表，对应 teachers
type Teacher struct {
	TeacherID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"teacher_id"`
	FirstName  string `gorm:"type:varchar(100);not null"                     json:"first_name"`
	LastName   string `gorm:"type:varchar(100);not null;default:''"          json:"last_name"`
	Department string `gorm:"type:varchar(50);not null;index"                json:"department"`
	BaseModel
}

// TableName 指定表名
func (Teacher) TableName() string { return "teachers" }

// FullName 教师显示名
func (t Teacher) FullName() string {
	if t.LastName == "" {
		return t.FirstName
	}
	return t.FirstName + " " + t.LastName
}
