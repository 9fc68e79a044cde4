package transaction

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Type string

const (
	TypeDeposit          Type = "deposit"
	TypeWithdrawal       Type = "withdrawal"
	TypeInterest         Type = "interest"
	TypeLoanDisbursement Type = "loan_disbursement"
	TypePayment          Type = "payment"
	TypeFee              Type = "fee"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusReversed  Status = "reversed"
)

var (
	ErrNotFound          = errors.New("transaction not found")
	ErrImmutable         = errors.New("ledger entries are append-only")
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrInvalidAmount     = errors.New("amount must be positive with at most 2 decimal places")
	ErrReferenceConflict = errors.New("reference number already used for a different transaction")
	ErrAlreadyReversed   = errors.New("transaction already reversed")
	ErrNotReversible     = errors.New("transaction cannot be reversed")
	ErrCollateralMissing = errors.New("collateral_id is required for this transaction type")
)

// LoanTerms is attached to loan_disbursement entries.
type LoanTerms struct {
	LoanLimit decimal.Decimal `json:"loan_limit"`
	Interest  decimal.Decimal `json:"interest"`
	DueDate   *time.Time      `json:"due_date,omitempty"`
	Drawn     decimal.Decimal `json:"drawn_total"`
}

// Extension is attached to the fee entry of a loan extension.
type Extension struct {
	Days            int       `json:"extension_days"`
	PreviousDueDate time.Time `json:"previous_due_date"`
	NewDueDate      time.Time `json:"new_due_date"`
}

type Reversal struct {
	Reason string `json:"reason,omitempty"`
}

// Counterparty links a treasury counter-entry to the user entry it mirrors.
type Counterparty struct {
	AccountID string `json:"account_id"`
	UserID    string `json:"user_id"`
	Type      Type   `json:"transaction_type"`
}

// Metadata holds the known variants; Annotations is the open extension point.
type Metadata struct {
	Loan         *LoanTerms        `json:"loan,omitempty"`
	Extension    *Extension        `json:"extension,omitempty"`
	Reversal     *Reversal         `json:"reversal,omitempty"`
	Counterparty *Counterparty     `json:"counterparty,omitempty"`
	Annotations  map[string]string `json:"annotations,omitempty"`
}

type Transaction struct {
	ID                      string           `gorm:"primaryKey;size:32" json:"id"`
	AccountID               string           `gorm:"size:32;index:idx_tx_account_ref;not null" json:"account_id"`
	UserID                  string           `gorm:"size:32;index:idx_tx_user;not null" json:"user_id"`
	Type                    Type             `gorm:"column:transaction_type;size:32;not null" json:"transaction_type"`
	Status                  Status           `gorm:"size:16;not null" json:"status"`
	Amount                  decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"amount"`
	Fee                     *decimal.Decimal `gorm:"type:decimal(18,2)" json:"fee,omitempty"`
	CollateralID            *string          `gorm:"size:32;index:idx_tx_collateral" json:"collateral_id,omitempty"`
	ReversesID              *string          `gorm:"size:32;uniqueIndex:ux_tx_reverses" json:"reverses_id,omitempty"`
	CounterOfID             *string          `gorm:"size:32;index:idx_tx_counter_of" json:"counter_of_id,omitempty"`
	ReferenceNumber         string           `gorm:"size:64;index:idx_tx_account_ref" json:"reference_number,omitempty"`
	Description             string           `gorm:"size:255" json:"description,omitempty"`
	LoanBalanceBefore       decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"loan_balance_before"`
	LoanBalanceAfter        decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"loan_balance_after"`
	InvestmentBalanceBefore decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"invested_balance_before"`
	InvestmentBalanceAfter  decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"invested_balance_after"`
	Metadata                Metadata         `gorm:"type:text;serializer:json" json:"metadata"`
	FailureReason           string           `gorm:"size:255" json:"failure_reason,omitempty"`
	CreatedAt               time.Time        `gorm:"autoCreateTime;index:idx_tx_created" json:"created_at"`
	ProcessedAt             *time.Time       `json:"processed_at,omitempty"`
	FailedAt                *time.Time       `json:"failed_at,omitempty"`
}

func (Transaction) TableName() string { return "transactions" }

// Ledger rows are written once.
func (t *Transaction) BeforeUpdate(*gorm.DB) error { return ErrImmutable }
func (t *Transaction) BeforeDelete(*gorm.DB) error { return ErrImmutable }

func (t Type) Valid() bool {
	_, ok := deltas[t]
	return ok
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusCancelled, StatusReversed:
		return true
	}
	return false
}
