package sqlstore

import (
	"context"

	"lendledger/internal/domain/account"

	"gorm.io/gorm"
)

type AccountRepository struct{ db *gorm.DB }

func NewAccountRepository(db *gorm.DB) *AccountRepository { return &AccountRepository{db: db} }

func (r *AccountRepository) Create(ctx context.Context, a *account.Account) error {
	return translate(r.db.WithContext(ctx).Create(a).Error, nil, account.ErrAlreadyExists)
}

func (r *AccountRepository) Save(ctx context.Context, a *account.Account) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *AccountRepository) first(ctx context.Context, db *gorm.DB, query string, args ...any) (*account.Account, error) {
	var out account.Account
	res := db.WithContext(ctx).Where(query, args...).First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, account.ErrNotFound, nil)
	}
	return &out, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	return r.first(ctx, r.db, "id = ?", id)
}

func (r *AccountRepository) GetByUserID(ctx context.Context, userID string) (*account.Account, error) {
	return r.first(ctx, r.db, "user_id = ?", userID)
}

func (r *AccountRepository) GetByNumber(ctx context.Context, number string) (*account.Account, error) {
	return r.first(ctx, r.db, "account_number = ?", number)
}

func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, id string) (*account.Account, error) {
	return r.first(ctx, forUpdate(r.db), "id = ?", id)
}

func (r *AccountRepository) GetTreasuryForUpdate(ctx context.Context) (*account.Account, error) {
	var out account.Account
	res := forUpdate(r.db.WithContext(ctx)).
		Where("account_number LIKE ?", account.TreasuryPrefix+"%").
		Order("created_at ASC").
		First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, account.ErrTreasuryNotFound, nil)
	}
	return &out, nil
}

func (r *AccountRepository) List(ctx context.Context, f account.Filter) ([]account.Account, int64, error) {
	q := r.db.WithContext(ctx).Model(&account.Account{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []account.Account
	err := page(q, f.Offset, f.Limit).Order("created_at DESC, id DESC").Find(&out).Error
	return out, total, err
}
