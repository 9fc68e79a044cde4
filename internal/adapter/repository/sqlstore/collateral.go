package sqlstore

import (
	"context"
	"time"

	"lendledger/internal/domain/collateral"

	"gorm.io/gorm"
)

type CollateralRepository struct{ db *gorm.DB }

func NewCollateralRepository(db *gorm.DB) *CollateralRepository {
	return &CollateralRepository{db: db}
}

func (r *CollateralRepository) Create(ctx context.Context, c *collateral.Collateral) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CollateralRepository) Save(ctx context.Context, c *collateral.Collateral) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *CollateralRepository) GetByID(ctx context.Context, id string) (*collateral.Collateral, error) {
	var out collateral.Collateral
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, translate(err, collateral.ErrNotFound, nil)
	}
	return &out, nil
}

func (r *CollateralRepository) GetByIDForUpdate(ctx context.Context, id string) (*collateral.Collateral, error) {
	var out collateral.Collateral
	if err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, translate(err, collateral.ErrNotFound, nil)
	}
	return &out, nil
}

func (r *CollateralRepository) List(ctx context.Context, f collateral.Filter) ([]collateral.Collateral, int64, error) {
	q := r.db.WithContext(ctx).Model(&collateral.Collateral{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []collateral.Collateral
	err := page(q, f.Offset, f.Limit).Order("created_at DESC, id DESC").Find(&out).Error
	return out, total, err
}

func (r *CollateralRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]collateral.Collateral, error) {
	var out []collateral.Collateral
	q := r.db.WithContext(ctx).
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", collateral.StatusApproved, now).
		Where("loan_amount > amount_repaid").
		Order("due_date ASC")
	err := page(q, 0, limit).Find(&out).Error
	return out, err
}
