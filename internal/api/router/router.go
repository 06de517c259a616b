package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fieldops/config"
	"fieldops/internal/api/handler"
	"fieldops/internal/api/middleware"
	"fieldops/pkg/jwt"
	"fieldops/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎；rdb 可为 nil
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	if cfg.Server.BodyLimit > 0 {
		r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		authorized.Use(middleware.RateLimit(rdb, cfg.Server.RateLimit.Limit, cfg.Server.RateLimit.Window))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 换班模块；角色与站点范围以用户目录为准，在 Service 层校验
			exchanges := authorized.Group("/shift-exchanges")
			{
				exchanges.POST("", h.Exchange.CreateExchange)
				exchanges.GET("/mine", h.Exchange.ListMine)
				exchanges.GET("/open", h.Exchange.ListOpen)
				exchanges.GET("/pending-approval", h.Exchange.ListPendingApproval)
				exchanges.GET("/:id", h.Exchange.GetExchange)
				exchanges.POST("/:id/respond", h.Exchange.RespondExchange)
				exchanges.POST("/:id/cancel", h.Exchange.CancelExchange)
				exchanges.POST("/:id/approve", h.Exchange.ApproveExchange)
				exchanges.POST("/:id/apply", h.Exchange.ApplyExchange)
			}
		}
	}

	return r
}
