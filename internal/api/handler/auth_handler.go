package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fieldops/pkg/response"
)

// TokenRevoker Token 吊销（Redis 黑名单）
type TokenRevoker interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// AuthHandler 认证模块 HTTP 处理器
// 令牌由外部身份系统或 `token` 子命令签发，这里只负责注销
type AuthHandler struct {
	revoker TokenRevoker
	logger  *zap.Logger
}

// NewAuthHandler 创建 AuthHandler；revoker 为 nil 时登出仅返回成功
func NewAuthHandler(revoker TokenRevoker, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{revoker: revoker, logger: logger}
}

// Logout 用户登出：将当前 Access Token 加入黑名单直至其自然过期
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if _, ok := MustGetUserID(c); !ok {
		return
	}
	jti, exp := GetToken(c)
	if h.revoker == nil || jti == "" {
		response.OK(c, nil)
		return
	}

	if err := h.revoker.BlacklistToken(c.Request.Context(), jti, time.Until(exp)); err != nil {
		h.logger.Error("Token 加入黑名单失败", zap.String("jti", jti), zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}
