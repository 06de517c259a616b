// Package testutil 提供仓储与服务层测试共用的 SQLite 数据库夹具。
// 仅供 _test.go 引用。
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fieldops/internal/model"
)

// Models 参与 AutoMigrate 的全部模型（顺序即建表顺序）
var Models = []interface{}{
	&model.Site{},
	&model.User{},
	&model.Shift{},
	&model.ShiftChangeLog{},
	&model.ExchangeRequest{},
	&model.Notification{},
	&model.NotificationPreference{},
}

// NewDB 基于临时文件创建 SQLite 数据库并完成建表。
// 单连接串行化事务，行为上近似 PostgreSQL 的行锁。
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fieldops_test.db")
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层 sql.DB 失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(Models...); err != nil {
		t.Fatalf("AutoMigrate 失败: %v", err)
	}
	return db
}

// Seed 常用种子数据
type Seed struct {
	DB *gorm.DB
	t  *testing.T
}

// NewSeed 创建种子数据构造器
func NewSeed(t *testing.T, db *gorm.DB) *Seed {
	return &Seed{DB: db, t: t}
}

// Site 创建站点；requiresApproval 为 nil 时沿用全局默认
func (s *Seed) Site(name string, requiresApproval *bool) *model.Site {
	s.t.Helper()
	site := &model.Site{Name: name, RequiresExchangeApproval: requiresApproval, IsActive: true}
	if err := s.DB.Create(site).Error; err != nil {
		s.t.Fatalf("创建站点失败: %v", err)
	}
	return site
}

// User 创建用户；siteID 为空表示全公司范围
func (s *Seed) User(name string, role model.Role, siteID string) *model.User {
	s.t.Helper()
	user := &model.User{
		Name:       name,
		EmployeeNo: fmt.Sprintf("E%d", time.Now().UnixNano()),
		Role:       role,
		IsActive:   true,
	}
	if siteID != "" {
		user.SiteID = &siteID
	}
	if err := s.DB.Create(user).Error; err != nil {
		s.t.Fatalf("创建用户失败: %v", err)
	}
	return user
}

// Shift 为指定队员创建一个班次
func (s *Seed) Shift(siteID, memberID string, startsAt time.Time) *model.Shift {
	s.t.Helper()
	shift := &model.Shift{
		SiteID:   siteID,
		MemberID: memberID,
		Post:     "东门岗",
		StartsAt: startsAt.UTC(),
		EndsAt:   startsAt.Add(8 * time.Hour).UTC(),
	}
	if err := s.DB.Create(shift).Error; err != nil {
		s.t.Fatalf("创建班次失败: %v", err)
	}
	return shift
}

// Holder 直接读取班次当前持有人
func (s *Seed) Holder(shiftID string) string {
	s.t.Helper()
	var shift model.Shift
	if err := s.DB.Where("shift_id = ?", shiftID).First(&shift).Error; err != nil {
		s.t.Fatalf("读取班次失败: %v", err)
	}
	return shift.MemberID
}

// Bool 便捷构造 *bool
func Bool(v bool) *bool { return &v }
