package sqlstore

import (
	"context"

	"lendledger/internal/domain/transaction"

	"gorm.io/gorm"
)

type TransactionRepository struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, t *transaction.Transaction) error {
	return translate(r.db.WithContext(ctx).Create(t).Error, nil, transaction.ErrAlreadyReversed)
}

func (r *TransactionRepository) one(ctx context.Context, query string, args ...any) (*transaction.Transaction, error) {
	var out transaction.Transaction
	if err := r.db.WithContext(ctx).Where(query, args...).First(&out).Error; err != nil {
		return nil, translate(err, transaction.ErrNotFound, nil)
	}
	return &out, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	return r.one(ctx, "id = ?", id)
}

func (r *TransactionRepository) FindByReference(ctx context.Context, accountID, ref string) (*transaction.Transaction, error) {
	return r.one(ctx, "account_id = ? AND reference_number = ? AND status = ?", accountID, ref, transaction.StatusCompleted)
}

func (r *TransactionRepository) FindReversalOf(ctx context.Context, originalID string) (*transaction.Transaction, error) {
	return r.one(ctx, "reverses_id = ?", originalID)
}

func (r *TransactionRepository) FindCounterOf(ctx context.Context, originalID string) (*transaction.Transaction, error) {
	return r.one(ctx, "counter_of_id = ? AND status = ?", originalID, transaction.StatusCompleted)
}

func (r *TransactionRepository) filtered(ctx context.Context, f transaction.Filter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&transaction.Transaction{})
	if f.AccountID != "" {
		q = q.Where("account_id = ?", f.AccountID)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.CollateralID != "" {
		q = q.Where("collateral_id = ?", f.CollateralID)
	}
	if f.Type != "" {
		q = q.Where("transaction_type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	return q
}

func (r *TransactionRepository) List(ctx context.Context, f transaction.Filter) ([]transaction.Transaction, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []transaction.Transaction
	err := page(r.filtered(ctx, f), f.Offset, f.Limit).Order("created_at DESC, id DESC").Find(&out).Error
	return out, total, err
}

func (r *TransactionRepository) Summarize(ctx context.Context, userID string) ([]transaction.SummaryRow, error) {
	var rows []transaction.SummaryRow
	err := r.db.WithContext(ctx).
		Model(&transaction.Transaction{}).
		Select("transaction_type, status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ?", userID).
		Group("transaction_type, status").
		Order("transaction_type, status").
		Scan(&rows).Error
	return rows, err
}
