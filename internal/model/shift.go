package model

import (
	"time"

	"gorm.io/gorm"
)

// Shift 班次表 — 对应 shifts（一个站点一个时段由一名队员值守）
type Shift struct {
	ShiftID  string    `gorm:"type:uuid;primaryKey"        json:"shift_id"`
	SiteID   string    `gorm:"type:uuid;not null;index"    json:"site_id"`
	MemberID string    `gorm:"type:uuid;not null;index"    json:"member_id"` // 当前持有人
	Post     string    `gorm:"type:varchar(100)"           json:"post,omitempty"`
	StartsAt time.Time `gorm:"not null"                    json:"starts_at"`
	EndsAt   time.Time `gorm:"not null"                    json:"ends_at"`
	VersionedModel
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// BeforeCreate 生成主键并初始化版本号
func (s *Shift) BeforeCreate(_ *gorm.DB) error {
	newID(&s.ShiftID)
	initVersion(&s.Version)
	return nil
}

// ShiftChangeType 班次变更类型
const (
	ShiftChangeExchange    = "exchange"
	ShiftChangeAdminModify = "admin_modify"
)

// ShiftChangeLog 班次变更记录表 — 对应 shift_change_logs（纯审计日志）
type ShiftChangeLog struct {
	ChangeLogID       string    `gorm:"type:uuid;primaryKey"              json:"change_log_id"`
	ShiftID           string    `gorm:"type:uuid;not null;index"          json:"shift_id"`
	OriginalMemberID  string    `gorm:"type:uuid;not null"                json:"original_member_id"`
	NewMemberID       string    `gorm:"type:uuid;not null"                json:"new_member_id"`
	ChangeType        string    `gorm:"type:varchar(20);not null"         json:"change_type"`
	ExchangeRequestID *string   `gorm:"type:uuid;index"                   json:"exchange_request_id,omitempty"`
	OperatorID        string    `gorm:"type:uuid;not null"                json:"operator_id"`
	CreatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (ShiftChangeLog) TableName() string { return "shift_change_logs" }

// BeforeCreate 生成主键
func (l *ShiftChangeLog) BeforeCreate(_ *gorm.DB) error {
	newID(&l.ChangeLogID)
	return nil
}
