package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"fieldops/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, "user_id")
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, "role")
}

// GetSiteID 提取 site_id；空串表示全公司范围
func GetSiteID(c *gin.Context) string {
	return c.GetString("site_id")
}

// GetToken 提取当前 Token 的 JTI 与过期时间（登出使用）
func GetToken(c *gin.Context) (string, time.Time) {
	return c.GetString("token_jti"), c.GetTime("token_exp")
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}
