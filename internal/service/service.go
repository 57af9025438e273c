package service

import (
	"go.uber.org/zap"

	"school-timetable/config"
	"school-timetable/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Timetable TimetableService
	Roster    RosterService
	Export    ExportService
}

// NewService 创建 Service 聚合
// cache 为 nil 时班级名列表每次回源查询
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	cache ClassNameCache,
	logger *zap.Logger,
) *Service {
	return &Service{
		Timetable: NewTimetableService(repo, cache, logger),
		Roster:    NewRosterService(repo, logger),
		Export:    NewExportService(cfg, repo, logger),
	}
}
