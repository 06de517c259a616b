package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fieldops/internal/model"
	pkgerrors "fieldops/pkg/errors"
)

// ExchangeListFilter 换班申请列表过滤条件（零值字段不参与过滤）
type ExchangeListFilter struct {
	SiteID        string
	Statuses      []model.ExchangeStatus
	OpenOnly      bool   // 仅 to_user_id 为空的开放申请
	ParticipantID string // from_user_id 或 to_user_id 等于该用户
}

// ExchangeRequestRepository 换班申请数据访问接口
type ExchangeRequestRepository interface {
	Create(ctx context.Context, req *model.ExchangeRequest) error
	GetByID(ctx context.Context, id string) (*model.ExchangeRequest, error)
	// GetByIDForUpdate 事务内加行锁读取
	GetByIDForUpdate(ctx context.Context, id string) (*model.ExchangeRequest, error)
	FindActiveByShift(ctx context.Context, shiftID string) (*model.ExchangeRequest, error)
	List(ctx context.Context, filter ExchangeListFilter, offset, limit int) ([]model.ExchangeRequest, int64, error)
	ListStale(ctx context.Context, statuses []model.ExchangeStatus, requestedBefore time.Time, limit int) ([]model.ExchangeRequest, error)
	// Update 乐观锁更新；版本不匹配或记录已落地时返回 ErrOptimisticLock
	Update(ctx context.Context, req *model.ExchangeRequest) error
}

type exchangeRequestRepo struct {
	db *gorm.DB
}

// NewExchangeRequestRepo 创建 ExchangeRequestRepository 实例
func NewExchangeRequestRepo(db *gorm.DB) ExchangeRequestRepository {
	return &exchangeRequestRepo{db: db}
}

func (r *exchangeRequestRepo) Create(ctx context.Context, req *model.ExchangeRequest) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Create(req).Error
}

func (r *exchangeRequestRepo) GetByID(ctx context.Context, id string) (*model.ExchangeRequest, error) {
	var req model.ExchangeRequest
	err := r.db.WithContext(ctx).
		Preload("FromShift").
		Preload("ToShift").
		Where("exchange_request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *exchangeRequestRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.ExchangeRequest, error) {
	var req model.ExchangeRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("exchange_request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *exchangeRequestRepo) FindActiveByShift(ctx context.Context, shiftID string) (*model.ExchangeRequest, error) {
	var req model.ExchangeRequest
	err := r.db.WithContext(ctx).
		Where("from_shift_id = ? AND status IN ?", shiftID, model.ActiveExchangeStatuses).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *exchangeRequestRepo) List(ctx context.Context, filter ExchangeListFilter, offset, limit int) ([]model.ExchangeRequest, int64, error) {
	var list []model.ExchangeRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ExchangeRequest{})
	if filter.SiteID != "" {
		db = db.Where("site_id = ?", filter.SiteID)
	}
	if len(filter.Statuses) > 0 {
		db = db.Where("status IN ?", filter.Statuses)
	}
	if filter.OpenOnly {
		db = db.Where("to_user_id IS NULL")
	}
	if filter.ParticipantID != "" {
		db = db.Where("from_user_id = ? OR to_user_id = ?", filter.ParticipantID, filter.ParticipantID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("FromShift").
		Preload("ToShift").
		Offset(offset).Limit(limit).
		Order("requested_at DESC").
		Find(&list).Error
	return list, total, err
}

func (r *exchangeRequestRepo) ListStale(ctx context.Context, statuses []model.ExchangeStatus, requestedBefore time.Time, limit int) ([]model.ExchangeRequest, error) {
	var list []model.ExchangeRequest
	err := r.db.WithContext(ctx).
		Where("status IN ? AND requested_at < ?", statuses, requestedBefore).
		Order("requested_at ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *exchangeRequestRepo) Update(ctx context.Context, req *model.ExchangeRequest) error {
	oldVersion := req.Version

	db := r.db.WithContext(ctx).
		Model(&model.ExchangeRequest{}).
		Where("exchange_request_id = ? AND version = ? AND applied_at IS NULL", req.ExchangeRequestID, oldVersion)
	// 接班人一经绑定不可改写
	if req.ToUserID != nil {
		db = db.Where("to_user_id IS NULL OR to_user_id = ?", *req.ToUserID)
	} else {
		db = db.Where("to_user_id IS NULL")
	}

	result := db.Updates(map[string]interface{}{
		"to_user_id":          req.ToUserID,
		"status":              req.Status,
		"response_message":    req.ResponseMessage,
		"approved_by_user_id": req.ApprovedByUserID,
		"approved_at":         req.ApprovedAt,
		"approval_notes":      req.ApprovalNotes,
		"responded_at":        req.RespondedAt,
		"applied_at":          req.AppliedAt,
		"updated_by":          req.UpdatedBy,
		"version":             oldVersion + 1,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version = oldVersion + 1
	return nil
}
