package handler

import "school-timetable/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Timetable *TimetableHandler
	Roster    *RosterHandler
	Export    *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Timetable: NewTimetableHandler(svc.Timetable),
		Roster:    NewRosterHandler(svc.Roster),
		Export:    NewExportHandler(svc.Export),
	}
}
