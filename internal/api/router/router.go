package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rdo-fidel/backend/config"
	"rdo-fidel/backend/internal/api/handler"
	"rdo-fidel/backend/internal/api/middleware"
	"rdo-fidel/backend/pkg/jwt"
)

// Setup 初始化并返回 Gin 路由引擎
// blacklist 与 limiter 由 Redis 提供，未启用 Redis 时传 nil。
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	blacklist middleware.TokenBlacklist,
	limiter middleware.RateLimiter,
	logger *zap.Logger,
) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// 现场填报角色
	staff := []string{jwt.RoleAdmin, jwt.RoleSupervisor, jwt.RoleForeman}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, blacklist, logger))
	v1.Use(middleware.RateLimit(limiter, cfg.Server.RateLimit, time.Minute))
	{
		// 参考数据
		v1.GET("/sites", h.Directory.ListSites)
		v1.GET("/catalog", h.Directory.Catalog)
		v1.GET("/incident-types", h.Directory.IncidentTypes)

		// 日报草稿
		sessions := v1.Group("/sessions", middleware.RoleAuth(staff...))
		{
			sessions.POST("", h.Session.Open)
			sessions.GET("/:id", h.Session.Get)
			sessions.DELETE("/:id", h.Session.Discard)
			sessions.PUT("/:id/date", h.Session.SetDate)
			sessions.POST("/:id/weather/refresh", h.Session.RefreshWeather)
			sessions.POST("/:id/supervisors/refresh", h.Session.RefreshSupervisors)
			sessions.PUT("/:id/supervisor", h.Session.SelectSupervisor)
			sessions.PUT("/:id/foreman", h.Session.SelectForeman)

			// 出勤与确认
			roster := sessions.Group("/:id/roster/:memberId")
			{
				roster.PUT("/status", h.Session.SetStatus)
				roster.PUT("/destination", h.Session.SetDestination)
				roster.GET("/methods", h.Session.AvailableMethods)
				roster.POST("/confirmation", h.Session.BeginConfirmation)
				roster.POST("/confirmation/submit", h.Session.Confirm)
				roster.DELETE("/confirmation", h.Session.CancelConfirmation)
				roster.POST("/hardware-unavailable", h.Session.MarkHardwareUnavailable)
			}

			// 作业
			sessions.POST("/:id/activities", h.Session.AddActivity)
			activity := sessions.Group("/:id/activities/:activityId")
			{
				activity.PUT("", h.Session.UpdateActivity)
				activity.DELETE("", h.Session.RemoveActivity)
				activity.PUT("/span", h.Session.SetActivitySpan)
				activity.POST("/distribute", h.Session.DistributeActivityHours)
				activity.POST("/members/:memberId", h.Session.AddActivityMember)
				activity.PUT("/members/:memberId/hours", h.Session.SetActivityHours)
				activity.PUT("/members/:memberId/active", h.Session.SetActivityMemberActive)
			}

			// 事件
			sessions.POST("/:id/incidents", h.Session.AddIncident)
			incident := sessions.Group("/:id/incidents/:incidentId")
			{
				incident.PUT("", h.Session.UpdateIncident)
				incident.DELETE("", h.Session.RemoveIncident)
				incident.PUT("/span", h.Session.SetIncidentSpan)
				incident.POST("/distribute", h.Session.DistributeIncidentHours)
				incident.PUT("/affected", h.Session.MarkAllAffected)
				incident.PUT("/affected/:memberId", h.Session.MarkAffected)
				incident.PUT("/affected/:memberId/hours", h.Session.SetAffectedHours)
				incident.POST("/photos", h.Session.AddIncidentPhoto)
				incident.DELETE("/photos/:photoId", h.Session.RemoveIncidentPhoto)
			}

			// 照片、PTS、备注、签字
			sessions.POST("/:id/photos", h.Session.AddPhoto)
			sessions.DELETE("/:id/photos/:photoId", h.Session.RemovePhoto)
			sessions.PUT("/:id/pts", h.Session.SetPTS)
			sessions.PUT("/:id/notes", h.Session.SetNotes)
			sessions.PUT("/:id/signature", h.Session.SetSignature)
			sessions.DELETE("/:id/signature", h.Session.ClearSignature)

			sessions.POST("/:id/finalize", h.Session.Finalize)
		}

		// 已定稿报告
		reports := v1.Group("/reports")
		{
			reports.GET("", h.Report.List)
			reports.GET("/totals", h.Report.Totals)
			reports.GET("/:id", h.Report.Detail)
			reports.DELETE("/:id", middleware.RoleAuth(jwt.RoleAdmin), h.Report.Delete)
			reports.GET("/:id/export/xlsx", h.Export.ExportReport)
			reports.GET("/:id/export/ics", h.Export.ExportCalendar)
		}
	}

	return r
}
