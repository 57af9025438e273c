package model

import (
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Class 班级名册表，对应 classes
type Class struct {
	ClassID    string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"class_id"`
	ClassName  string         `gorm:"type:varchar(50);not null;uniqueIndex"          json:"class_name"`
	ClassLevel string         `gorm:"type:varchar(50);not null;default:''"           json:"class_level"`
	Stream     string         `gorm:"type:varchar(50);not null;default:''"           json:"stream"`
	Courses    pq.StringArray `gorm:"type:text[];not null;default:'{}'"              json:"courses"`
	Teachers   datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"              json:"teachers"` // []ClassTeacher
	BaseModel
}

// TableName 指定表名
func (Class) TableName() string { return "classes" }

// ClassTeacher 班级内课程的预分配教师（classes.teachers 元素）
type ClassTeacher struct {
	Course  string `json:"course"`
	Teacher string `json:"teacher"`
}
