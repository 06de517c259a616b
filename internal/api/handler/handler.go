package handler

import (
	"go.uber.org/zap"

	"fieldops/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth     *AuthHandler
	Exchange *ExchangeHandler
}

// NewHandler 创建 Handler 聚合；revoker 为 nil 时登出不吊销 Token
func NewHandler(svc *service.Service, revoker TokenRevoker, logger *zap.Logger) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(revoker, logger),
		Exchange: NewExchangeHandler(svc.Exchange, logger),
	}
}
