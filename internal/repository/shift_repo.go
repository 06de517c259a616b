package repository

import (
	"context"

	"gorm.io/gorm"

	"fieldops/internal/model"
	pkgerrors "fieldops/pkg/errors"
)

// ShiftRepository 班次数据访问接口
// GetHolder/Reassign 构成换班引擎依赖的排班网关契约
type ShiftRepository interface {
	Create(ctx context.Context, shift *model.Shift) error
	GetByID(ctx context.Context, id string) (*model.Shift, error)
	GetHolder(ctx context.Context, shiftID string) (string, error)
	Reassign(ctx context.Context, shiftID, expectedHolder, newHolder string) error
}

// ShiftChangeLogRepository 班次变更日志数据访问接口
type ShiftChangeLogRepository interface {
	Create(ctx context.Context, log *model.ShiftChangeLog) error
	ListByShift(ctx context.Context, shiftID string) ([]model.ShiftChangeLog, error)
	ListByExchangeRequest(ctx context.Context, requestID string) ([]model.ShiftChangeLog, error)
}

// ── Shift Repository 实现 ──

type shiftRepo struct {
	db *gorm.DB
}

func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func (r *shiftRepo) Create(ctx context.Context, shift *model.Shift) error {
	return r.db.WithContext(ctx).Create(shift).Error
}

func (r *shiftRepo) GetByID(ctx context.Context, id string) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Where("shift_id = ?", id).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) GetHolder(ctx context.Context, shiftID string) (string, error) {
	shift, err := r.GetByID(ctx, shiftID)
	if err != nil {
		return "", err
	}
	return shift.MemberID, nil
}

// Reassign 比较并交换：仅当当前持有人等于 expectedHolder 时改为 newHolder
func (r *shiftRepo) Reassign(ctx context.Context, shiftID, expectedHolder, newHolder string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("shift_id = ? AND member_id = ?", shiftID, expectedHolder).
		Updates(map[string]interface{}{
			"member_id": newHolder,
			"version":   gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrShiftHolderChanged
	}
	return nil
}

// ── ShiftChangeLog Repository 实现 ──

type shiftChangeLogRepo struct {
	db *gorm.DB
}

func NewShiftChangeLogRepo(db *gorm.DB) ShiftChangeLogRepository {
	return &shiftChangeLogRepo{db: db}
}

func (r *shiftChangeLogRepo) Create(ctx context.Context, log *model.ShiftChangeLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *shiftChangeLogRepo) ListByShift(ctx context.Context, shiftID string) ([]model.ShiftChangeLog, error) {
	var logs []model.ShiftChangeLog
	err := r.db.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}

func (r *shiftChangeLogRepo) ListByExchangeRequest(ctx context.Context, requestID string) ([]model.ShiftChangeLog, error) {
	var logs []model.ShiftChangeLog
	err := r.db.WithContext(ctx).
		Where("exchange_request_id = ?", requestID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}
