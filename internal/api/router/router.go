package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"school-timetable/config"
	"school-timetable/internal/api/handler"
	"school-timetable/internal/api/middleware"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── 时间表模块 ──
	timetable := r.Group("/timetable")
	{
		timetable.POST("", h.Timetable.CreateTimetable)
		timetable.GET("", h.Timetable.GetTimetable)
		timetable.GET("/export", h.Export.ExportTimetable)
	}

	// ── 班级名册 / 教师目录（编辑器协作接口）──
	r.GET("/classes", h.Roster.ListClasses)
	r.GET("/teachers", h.Roster.ListTeachers)

	return r
}
