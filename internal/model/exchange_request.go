package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ExchangeStatus 换班申请状态（封闭枚举）
type ExchangeStatus string

const (
	ExchangeStatusPending              ExchangeStatus = "PENDING"
	ExchangeStatusAccepted             ExchangeStatus = "ACCEPTED"
	ExchangeStatusRejected             ExchangeStatus = "REJECTED"
	ExchangeStatusPendingApproval      ExchangeStatus = "PENDING_APPROVAL"
	ExchangeStatusRejectedBySupervisor ExchangeStatus = "REJECTED_BY_SUPERVISOR"
	ExchangeStatusCancelled            ExchangeStatus = "CANCELLED"
	ExchangeStatusApplied              ExchangeStatus = "APPLIED"
)

// ActiveExchangeStatuses 非终态；同一班次同一时刻至多一条
var ActiveExchangeStatuses = []ExchangeStatus{
	ExchangeStatusPending,
	ExchangeStatusAccepted,
	ExchangeStatusPendingApproval,
}

// ParseExchangeStatus 在边界处校验状态字符串
func ParseExchangeStatus(s string) (ExchangeStatus, error) {
	switch st := ExchangeStatus(s); st {
	case ExchangeStatusPending, ExchangeStatusAccepted, ExchangeStatusRejected,
		ExchangeStatusPendingApproval, ExchangeStatusRejectedBySupervisor,
		ExchangeStatusCancelled, ExchangeStatusApplied:
		return st, nil
	default:
		return "", fmt.Errorf("未知换班状态: %q", s)
	}
}

// IsTerminal 终态不再发生任何迁移
func (s ExchangeStatus) IsTerminal() bool {
	switch s {
	case ExchangeStatusRejected, ExchangeStatusRejectedBySupervisor,
		ExchangeStatusCancelled, ExchangeStatusApplied:
		return true
	}
	return false
}

// ExchangeRequest 换班申请表 — 对应 shift_exchange_requests
//
// 记录永不物理删除；终态保留用于审计。ToUserID 为空表示开放市场，
// ToShiftID 为空表示单向转让/认领，非空表示双向互换。
type ExchangeRequest struct {
	ExchangeRequestID string  `gorm:"type:uuid;primaryKey"     json:"id"`
	SiteID            string  `gorm:"type:uuid;not null;index" json:"site_id"`
	FromUserID        string  `gorm:"type:uuid;not null;index" json:"from_user_id"`
	ToUserID          *string `gorm:"type:uuid;index"          json:"to_user_id,omitempty"`

	// 部分唯一索引：同一班次只允许一条非终态申请
	FromShiftID string `gorm:"type:uuid;not null;uniqueIndex:uq_exchange_active_from_shift,where:status = 'PENDING' OR status = 'ACCEPTED' OR status = 'PENDING_APPROVAL'" json:"from_shift_id"`

	ToShiftID *string `gorm:"type:uuid" json:"to_shift_id,omitempty"`

	Status          ExchangeStatus `gorm:"type:varchar(30);not null;index" json:"status"`
	RequestMessage  string         `gorm:"type:varchar(500)"               json:"request_message,omitempty"`
	ResponseMessage string         `gorm:"type:varchar(500)"               json:"response_message,omitempty"`

	RequiresApproval bool       `gorm:"not null"          json:"requires_approval"`
	ApprovedByUserID *string    `gorm:"type:uuid"         json:"approved_by_user_id,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	ApprovalNotes    string     `gorm:"type:varchar(500)" json:"approval_notes,omitempty"`

	RequestedAt time.Time  `gorm:"not null;index" json:"requested_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	AppliedAt   *time.Time `json:"applied_at,omitempty"`

	Version   int       `gorm:"not null"                           json:"version"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`

	// 关联
	FromShift *Shift `gorm:"foreignKey:FromShiftID;references:ShiftID" json:"from_shift,omitempty"`
	ToShift   *Shift `gorm:"foreignKey:ToShiftID;references:ShiftID"   json:"to_shift,omitempty"`
}

// TableName 指定表名
func (ExchangeRequest) TableName() string { return "shift_exchange_requests" }

// BeforeCreate 生成主键并初始化版本号
func (r *ExchangeRequest) BeforeCreate(_ *gorm.DB) error {
	newID(&r.ExchangeRequestID)
	initVersion(&r.Version)
	return nil
}

// IsOpenMarket 尚未绑定接班人的开放申请
func (r *ExchangeRequest) IsOpenMarket() bool {
	return r.ToUserID == nil || *r.ToUserID == ""
}

// IsTwoWaySwap 双向互换
func (r *ExchangeRequest) IsTwoWaySwap() bool {
	return r.ToShiftID != nil && *r.ToShiftID != ""
}

// IsParty 是否为申请的当事人（申请人或已绑定的接班人）
func (r *ExchangeRequest) IsParty(userID string) bool {
	if r.FromUserID == userID {
		return true
	}
	return !r.IsOpenMarket() && *r.ToUserID == userID
}
