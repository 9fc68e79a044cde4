package transaction

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Filter struct {
	AccountID    string
	UserID       string
	CollateralID string
	Type         Type
	Status       Status
	From         *time.Time
	To           *time.Time
	Offset       int
	Limit        int
}

// SummaryRow aggregates one (type, status) bucket.
type SummaryRow struct {
	Type   Type            `gorm:"column:transaction_type"`
	Status Status          `gorm:"column:status"`
	Count  int64           `gorm:"column:count"`
	Total  decimal.Decimal `gorm:"column:total"`
}

// Repository has no update or delete: ledger rows are append-only.
type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	GetByID(ctx context.Context, id string) (*Transaction, error)
	// FindByReference returns the completed entry for (accountID, ref).
	FindByReference(ctx context.Context, accountID, ref string) (*Transaction, error)
	FindReversalOf(ctx context.Context, originalID string) (*Transaction, error)
	FindCounterOf(ctx context.Context, originalID string) (*Transaction, error)
	List(ctx context.Context, f Filter) ([]Transaction, int64, error)
	Summarize(ctx context.Context, userID string) ([]SummaryRow, error)
}
