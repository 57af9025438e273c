package repository

import (
	"gorm.io/gorm"

	"school-timetable/pkg/mongodb"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Timetable TimetableRepository
	Class     ClassRepository
	Teacher   TeacherRepository
}

// NewRepository 创建 Repository 聚合
// 时间表存于 MongoDB，班级名册与教师目录存于 PostgreSQL
func NewRepository(conn *mongodb.Conn, collection string, db *gorm.DB) *Repository {
	return &Repository{
		Timetable: NewTimetableRepo(conn, collection),
		Class:     NewClassRepo(db),
		Teacher:   NewTeacherRepo(db),
	}
}
