package model

import (
	"fmt"

	"gorm.io/gorm"
)

// Role 用户角色（封闭枚举）
type Role string

const (
	RoleGuard      Role = "guard"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

// ParseRole 在边界处校验角色字符串，未知取值一律拒绝
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleGuard, RoleSupervisor, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("未知角色: %q", s)
	}
}

// IsSupervisory 主管或管理员
func (r Role) IsSupervisory() bool {
	return r == RoleSupervisor || r == RoleAdmin
}

// User 用户表 — 对应 users
type User struct {
	UserID     string  `gorm:"type:uuid;primaryKey"       json:"user_id"`
	Name       string  `gorm:"type:varchar(100);not null" json:"name"`
	EmployeeNo string  `gorm:"type:varchar(30);not null"  json:"employee_no"`
	Role       Role    `gorm:"type:varchar(20);not null"  json:"role"`
	SiteID     *string `gorm:"type:uuid;index"            json:"site_id,omitempty"` // nil = 全公司范围
	IsActive   bool    `gorm:"not null"                   json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// BeforeCreate 生成主键并初始化版本号
func (u *User) BeforeCreate(_ *gorm.DB) error {
	newID(&u.UserID)
	initVersion(&u.Version)
	return nil
}

// CompanyWide 未绑定站点的用户拥有全公司范围
func (u *User) CompanyWide() bool {
	return u.SiteID == nil || *u.SiteID == ""
}

// InSite 用户是否归属（或覆盖）指定站点
func (u *User) InSite(siteID string) bool {
	return u.CompanyWide() || *u.SiteID == siteID
}
