package repository

import (
	"context"

	"gorm.io/gorm"

	"school-timetable/internal/model"
)

// ClassRepository 班级名册数据访问接口
type ClassRepository interface {
	List(ctx context.Context) ([]model.Class, error)
}

type classRepo struct {
	db *gorm.DB
}

// NewClassRepo 创建 ClassRepository 实例
func NewClassRepo(db *gorm.DB) ClassRepository {
	return &classRepo{db: db}
}

func (r *classRepo) List(ctx context.Context) ([]model.Class, error) {
	var classes []model.Class
	err := r.db.WithContext(ctx).
		Order("class_level ASC, class_name ASC").
		Find(&classes).Error
	return classes, err
}
