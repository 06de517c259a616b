package model

import "gorm.io/gorm"

// 通知类型
const (
	NotificationTypeExchange = "shift_exchange"
)

// Notification 通知消息表 — 对应 notifications
type Notification struct {
	NotificationID string  `gorm:"type:uuid;primaryKey"       json:"notification_id"`
	UserID         string  `gorm:"type:uuid;not null;index"   json:"user_id"`
	Type           string  `gorm:"type:varchar(50);not null"  json:"type"`
	Title          string  `gorm:"type:varchar(200);not null" json:"title"`
	Content        string  `gorm:"type:text;not null"         json:"content"`
	IsRead         bool    `gorm:"not null"                   json:"is_read"`
	RelatedType    *string `gorm:"type:varchar(30)"           json:"related_type,omitempty"` // shift | shift_exchange
	RelatedID      *string `gorm:"type:uuid"                  json:"related_id,omitempty"`
	SoftDeleteModel
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// BeforeCreate 生成主键
func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	newID(&n.NotificationID)
	return nil
}

// NotificationPreference 通知偏好表 — 对应 notification_preferences（与 users 1:1）
// 无记录时视为全部开启
type NotificationPreference struct {
	UserID               string `gorm:"type:uuid;primaryKey" json:"user_id"`
	ExchangeNotification bool   `gorm:"not null"             json:"exchange_notification"`
	ShiftReminder        bool   `gorm:"not null"             json:"shift_reminder"`
	BaseModel
}

// TableName 指定表名
func (NotificationPreference) TableName() string { return "notification_preferences" }
