package model

import "gorm.io/gorm"

// Site 驻点表 — 对应 sites（巡逻/值守的站点，也是主管审批的权限边界）
type Site struct {
	SiteID  string `gorm:"type:uuid;primaryKey"       json:"site_id"`
	Name    string `gorm:"type:varchar(100);not null" json:"name"`
	Address string `gorm:"type:varchar(200)"          json:"address,omitempty"`
	// RequiresExchangeApproval 为 nil 时使用全局默认策略
	RequiresExchangeApproval *bool `json:"requires_exchange_approval,omitempty"`
	IsActive                 bool  `gorm:"not null" json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (Site) TableName() string { return "sites" }

// BeforeCreate 生成主键
func (s *Site) BeforeCreate(_ *gorm.DB) error {
	newID(&s.SiteID)
	return nil
}

// ExchangeApprovalPolicy 解析站点换班审批策略
func (s *Site) ExchangeApprovalPolicy(defaultRequires bool) bool {
	if s == nil || s.RequiresExchangeApproval == nil {
		return defaultRequires
	}
	return *s.RequiresExchangeApproval
}
