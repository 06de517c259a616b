package repository

import (
	"context"

	"gorm.io/gorm"

	"fieldops/internal/model"
)

// NotificationRepository 通知数据访问接口
type NotificationRepository interface {
	BatchCreate(ctx context.Context, notifications []model.Notification) error
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Notification, int64, error)
	// ExchangeOptOuts 返回关闭了换班通知的用户集合
	ExchangeOptOuts(ctx context.Context, userIDs []string) (map[string]bool, error)
	SavePreference(ctx context.Context, pref *model.NotificationPreference) error
}

type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo 创建 NotificationRepository 实例
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) BatchCreate(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&notifications).Error
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Notification, int64, error) {
	var list []model.Notification
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ?", userID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&list).Error
	return list, total, err
}

func (r *notificationRepo) ExchangeOptOuts(ctx context.Context, userIDs []string) (map[string]bool, error) {
	optOuts := make(map[string]bool)
	if len(userIDs) == 0 {
		return optOuts, nil
	}

	var prefs []model.NotificationPreference
	err := r.db.WithContext(ctx).
		Where("user_id IN ? AND exchange_notification = ?", userIDs, false).
		Find(&prefs).Error
	if err != nil {
		return nil, err
	}
	for _, p := range prefs {
		optOuts[p.UserID] = true
	}
	return optOuts, nil
}

func (r *notificationRepo) SavePreference(ctx context.Context, pref *model.NotificationPreference) error {
	return r.db.WithContext(ctx).Save(pref).Error
}
