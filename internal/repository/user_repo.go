package repository

import (
	"context"

	"gorm.io/gorm"

	"fieldops/internal/model"
)

// UserRepository 用户数据访问接口（用户/角色目录，只读为主）
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	ListSupervisorsBySite(ctx context.Context, siteID string) ([]model.User, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListSupervisorsBySite 站点主管 + 全公司范围的主管/管理员
func (r *userRepo) ListSupervisorsBySite(ctx context.Context, siteID string) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("role IN ? AND is_active = ?", []model.Role{model.RoleSupervisor, model.RoleAdmin}, true).
		Where("site_id = ? OR site_id IS NULL", siteID).
		Order("name ASC").
		Find(&users).Error
	return users, err
}
