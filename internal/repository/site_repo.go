package repository

import (
	"context"

	"gorm.io/gorm"

	"fieldops/internal/model"
)

// SiteRepository 站点数据访问接口
type SiteRepository interface {
	Create(ctx context.Context, site *model.Site) error
	GetByID(ctx context.Context, id string) (*model.Site, error)
}

type siteRepo struct {
	db *gorm.DB
}

// NewSiteRepo 创建 SiteRepository 实例
func NewSiteRepo(db *gorm.DB) SiteRepository {
	return &siteRepo{db: db}
}

func (r *siteRepo) Create(ctx context.Context, site *model.Site) error {
	return r.db.WithContext(ctx).Create(site).Error
}

func (r *siteRepo) GetByID(ctx context.Context, id string) (*model.Site, error) {
	var site model.Site
	err := r.db.WithContext(ctx).
		Where("site_id = ?", id).
		First(&site).Error
	if err != nil {
		return nil, err
	}
	return &site, nil
}
