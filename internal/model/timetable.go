package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TimetableCollection 时间表文档所在集合
const TimetableCollection = "timetable"

// Timetable 班级周课表文档，对应 MongoDB timetable 集合
// 以 className 作为对外查找键
type Timetable struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty"       json:"_id"`
	ClassName  string              `bson:"className"           json:"className"  validate:"required"`
	Department string              `bson:"department"          json:"department" validate:"required"`
	Days       []Day               `bson:"days"                json:"days"       validate:"required"`
	BreakTime  BreakTime           `bson:"breakTime"           json:"breakTime"`
	CreatedAt  time.Time           `bson:"createdAt,omitempty" json:"createdAt"`
	Teachers   []TeacherAssignment `bson:"teachers"            json:"teachers"`
	Version    int                 `bson:"__v"                 json:"__v"` // 存储内部版本号，创建时恒为 0
}

// Day 一天的课表，Name 为星期名称（Monday…）
type Day struct {
	Name  string `bson:"name"  json:"name"`
	Slots []Slot `bson:"slots" json:"slots"`
}

// Slot 一个时间段；空字符串表示“未分配”
type Slot struct {
	StartTime string `bson:"startTime" json:"startTime"` // "08:00"
	EndTime   string `bson:"endTime"   json:"endTime"`
	Course    string `bson:"course"    json:"course"`
	Teacher   string `bson:"teacher"   json:"teacher"`   // 教师显示名
	TeacherID string `bson:"teacherId" json:"teacherId"` // 教师目录 ID
	Room      string `bson:"room"      json:"room"`
}

// BreakTime 课间休息时间
type BreakTime struct {
	Start string `bson:"start" json:"start"`
	End   string `bson:"end"   json:"end"`
}

// TeacherAssignment 课程 → 教师的冗余分配
type TeacherAssignment struct {
	Course     string `bson:"course"  json:"course"`
	TeacherRef string `bson:"teacher" json:"teacher"`
}

// Normalize 将 nil 列表替换为空列表，保证序列化为 [] 而非 null
func (t *Timetable) Normalize() {
	for i := range t.Days {
		if t.Days[i].Slots == nil {
			t.Days[i].Slots = []Slot{}
		}
	}
	if t.Teachers == nil {
		t.Teachers = []TeacherAssignment{}
	}
}
