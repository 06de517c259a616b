package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"fieldops/internal/model"
	"fieldops/pkg/jwt"
	"fieldops/pkg/redis"
	"fieldops/pkg/response"
)

// 上下文键（与 handler.MustGet* 一致）
const (
	ContextUserID   = "user_id"
	ContextRole     = "role"
	ContextSiteID   = "site_id"
	ContextTokenJTI = "token_jti"
	ContextTokenExp = "token_exp"
)

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token；
// rdb 非 nil 时检查 Token 黑名单，Redis 出错时降级放行
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		// 角色在边界处校验，未知取值直接拒绝
		role, err := model.ParseRole(claims.Role)
		if err != nil {
			response.Unauthorized(c, 10002, "Token 角色无效")
			c.Abort()
			return
		}

		if rdb != nil {
			revoked, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
			if err == nil && revoked {
				response.Unauthorized(c, 10002, "Token 已注销")
				c.Abort()
				return
			}
		}

		// 将用户信息注入上下文
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, string(role))
		c.Set(ContextSiteID, claims.SiteID)
		c.Set(ContextTokenJTI, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(ContextTokenExp, claims.ExpiresAt.Time)
		} else {
			c.Set(ContextTokenExp, time.Time{})
		}

		c.Next()
	}
}
