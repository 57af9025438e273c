package repository

import (
	"context"

	"gorm.io/gorm"

	"school-timetable/internal/model"
)

// TeacherRepository 教师目录数据访问接口
type TeacherRepository interface {
	ListByDepartment(ctx context.Context, department string) ([]model.Teacher, error)
}

type teacherRepo struct {
	db *gorm.DB
}

// NewTeacherRepo 创建 TeacherRepository 实例
func NewTeacherRepo(db *gorm.DB) TeacherRepository {
	return &teacherRepo{db: db}
}

func (r *teacherRepo) ListByDepartment(ctx context.Context, department string) ([]model.Teacher, error) {
	var teachers []model.Teacher
	err := r.db.WithContext(ctx).
		Where("department = ?", department).
		Order("first_name ASC, last_name ASC").
		Find(&teachers).Error
	return teachers, err
}
