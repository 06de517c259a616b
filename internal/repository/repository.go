package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User            UserRepository
	Site            SiteRepository
	Shift           ShiftRepository
	ShiftChangeLog  ShiftChangeLogRepository
	ExchangeRequest ExchangeRequestRepository
	Notification    NotificationRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:              db,
		User:            NewUserRepo(db),
		Site:            NewSiteRepo(db),
		Shift:           NewShiftRepo(db),
		ShiftChangeLog:  NewShiftChangeLogRepo(db),
		ExchangeRequest: NewExchangeRequestRepo(db),
		Notification:    NewNotificationRepo(db),
	}
}

// WithTx 返回绑定到指定事务的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction 在单个数据库事务中执行 fn；fn 返回错误或 panic 时整体回滚。
// fn 内只能使用传入的 txRepo，不可回到外层 Repository。
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
