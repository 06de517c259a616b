package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"fieldops/config"
	"fieldops/internal/model"
	"fieldops/internal/repository"
	pkgerrors "fieldops/pkg/errors"
)

// ExchangeExpirer 关闭长期无人处理的 PENDING / PENDING_APPROVAL 申请。
// 默认关闭；开启后由 cron 周期触发，也可通过 CLI 单次执行。
type ExchangeExpirer struct {
	cfg      *config.ExpiryConfig
	repo     *repository.Repository
	notifier ExchangeNotifier
	logger   *zap.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// NewExchangeExpirer 创建过期清理器；notifier 可为 nil
func NewExchangeExpirer(cfg *config.ExpiryConfig, repo *repository.Repository, notifier ExchangeNotifier, logger *zap.Logger) *ExchangeExpirer {
	return &ExchangeExpirer{cfg: cfg, repo: repo, notifier: notifier, logger: logger}
}

// Start 按配置的 cron 表达式启动周期任务；未开启时直接返回
func (e *ExchangeExpirer) Start() error {
	if !e.cfg.Enabled {
		e.logger.Info("换班申请过期清理未开启")
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cron != nil {
		return nil
	}

	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(e.cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := e.RunOnce(ctx, time.Now().UTC()); err != nil {
			e.logger.Error("换班申请过期清理失败", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("解析过期清理 cron 表达式 %q: %w", e.cfg.Schedule, err)
	}
	c.Start()
	e.cron = c

	e.logger.Info("换班申请过期清理已启动",
		zap.String("schedule", e.cfg.Schedule),
		zap.Duration("pending_ttl", e.cfg.PendingTTL),
	)
	return nil
}

// Stop 停止调度并等待进行中的清理结束
func (e *ExchangeExpirer) Stop() {
	e.mu.Lock()
	c := e.cron
	e.cron = nil
	e.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
}

// RunOnce 执行一次清理，返回成功关闭的申请数。
// 并发下已被他人处理的申请跳过，不视为错误。
func (e *ExchangeExpirer) RunOnce(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-e.cfg.PendingTTL)
	batchSize := e.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	stale, err := e.repo.ExchangeRequest.ListStale(ctx,
		[]model.ExchangeStatus{model.ExchangeStatusPending, model.ExchangeStatusPendingApproval},
		cutoff, batchSize)
	if err != nil {
		return 0, fmt.Errorf("查询过期换班申请: %w", err)
	}

	expired := 0
	for i := range stale {
		req := &stale[i]
		ok, err := e.expireOne(ctx, req, now)
		if err != nil {
			return expired, err
		}
		if !ok {
			continue
		}
		expired++
		e.notify(ctx, req, now)
	}

	if expired > 0 {
		e.logger.Info("换班申请过期清理完成",
			zap.Int("expired", expired),
			zap.Int("scanned", len(stale)),
			zap.Time("cutoff", cutoff),
		)
	}
	return expired, nil
}

func (e *ExchangeExpirer) expireOne(ctx context.Context, req *model.ExchangeRequest, now time.Time) (bool, error) {
	next, err := nextExchangeStatus(req.Status, ExchangeActionExpire, ExchangeActorSystem, req.RequiresApproval)
	if err != nil {
		e.logger.Warn("换班申请当前状态不可过期，跳过",
			zap.String("exchange_request_id", req.ExchangeRequestID),
			zap.String("status", string(req.Status)),
			zap.Error(err))
		return false, nil
	}
	req.Status = next
	req.UpdatedBy = nil

	if err := e.repo.ExchangeRequest.Update(ctx, req); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			e.logger.Debug("换班申请已被并发修改，跳过过期",
				zap.String("exchange_request_id", req.ExchangeRequestID))
			return false, nil
		}
		return false, fmt.Errorf("关闭过期换班申请 %s: %w", req.ExchangeRequestID, err)
	}
	return true, nil
}

func (e *ExchangeExpirer) notify(ctx context.Context, req *model.ExchangeRequest, now time.Time) {
	if e.notifier == nil {
		return
	}
	event := ExchangeEvent{Type: ExchangeEventExpired, OccurredAt: now}
	if err := e.notifier.NotifyExchange(ctx, req, event); err != nil {
		e.logger.Warn("换班过期通知发送失败",
			zap.String("exchange_request_id", req.ExchangeRequestID),
			zap.Error(err),
		)
	}
}
