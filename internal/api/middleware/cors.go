package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fieldops/pkg/response"
)

// 换班 API 只有 GET 查询与 POST 动作
const (
	corsAllowMethods  = "GET, POST, OPTIONS"
	corsAllowHeaders  = "Content-Type, Authorization, X-Request-ID"
	corsExposeHeaders = "X-Request-ID"
)

// CORS 跨域中间件
// 白名单外来源的预检请求返回 403；不带 Origin 的请求（移动端、服务间调用）不受影响
func CORS(allowOrigins []string) gin.HandlerFunc {
	originsMap := make(map[string]bool, len(allowOrigins))
	for _, o := range allowOrigins {
		originsMap[strings.TrimRight(o, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowed := originsMap[origin]

		if origin != "" {
			c.Header("Vary", "Origin")
		}
		if allowed {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
			c.Header("Access-Control-Allow-Methods", corsAllowMethods)
			c.Header("Access-Control-Expose-Headers", corsExposeHeaders)
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			if origin != "" && !allowed {
				response.Forbidden(c, 10003, "跨域来源不被允许")
				c.Abort()
				return
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
