package service

import (
	"go.uber.org/zap"

	"fieldops/config"
	"fieldops/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Exchange ExchangeService
	Expirer  *ExchangeExpirer
}

// NewService 创建 Service 聚合；publisher 为 nil 时不做事件广播
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	publisher EventPublisher,
	logger *zap.Logger,
) *Service {
	notifier := NewExchangeNotifier(repo, publisher, cfg.Redis.ChannelPrefix, logger.Named("notifier"))
	return &Service{
		Exchange: NewExchangeService(&cfg.Exchange, repo, notifier, logger.Named("exchange")),
		Expirer:  NewExchangeExpirer(&cfg.Exchange.Expiry, repo, notifier, logger.Named("expirer")),
	}
}
