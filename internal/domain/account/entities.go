package account

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusFrozen   Status = "frozen"
	StatusClosed   Status = "closed"
)

var (
	ErrNotFound           = errors.New("account not found")
	ErrAlreadyExists      = errors.New("user already has an account")
	ErrAccountClosed      = errors.New("account is closed")
	ErrAccountInactive    = errors.New("account is not active")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrOutstandingBalance = errors.New("account has outstanding balances")
	ErrInvalidStatus      = errors.New("invalid account status")
	ErrTreasuryNotFound   = errors.New("treasury account not provisioned")
	ErrOwnerMismatch      = errors.New("account belongs to another user")
)

// TreasuryPrefix marks the platform account that funds loans.
const TreasuryPrefix = "ORG"

type Account struct {
	ID                string          `gorm:"primaryKey;size:32" json:"id"`
	UserID            string          `gorm:"size:32;uniqueIndex:ux_accounts_user_id;not null" json:"user_id"`
	AccountNumber     string          `gorm:"size:32;uniqueIndex:ux_accounts_number;not null" json:"account_number"`
	Status            Status          `gorm:"size:16;not null;default:'active'" json:"status"`
	LoanBalance       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"loan_balance"`
	InvestmentBalance decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"investment_balance"`
	ClosedAt          *time.Time      `json:"closed_at,omitempty"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusFrozen, StatusClosed:
		return true
	}
	return false
}

// Balance is a point-in-time snapshot of both ledger fields.
type Balance struct {
	Loan       decimal.Decimal `json:"loan_balance"`
	Investment decimal.Decimal `json:"investment_balance"`
}

func (a *Account) Balance() Balance {
	return Balance{Loan: a.LoanBalance, Investment: a.InvestmentBalance}
}

func (a *Account) IsTreasury() bool { return strings.HasPrefix(a.AccountNumber, TreasuryPrefix) }

// CanTransact reports why the account may not take a balance mutation, if any.
func (a *Account) CanTransact() error {
	switch a.Status {
	case StatusActive:
		return nil
	case StatusClosed:
		return ErrAccountClosed
	default:
		return ErrAccountInactive
	}
}

// ApplyDelta is the only way balances change. Either both fields move or neither does.
func (a *Account) ApplyDelta(loanDelta, investmentDelta decimal.Decimal) error {
	if err := a.CanTransact(); err != nil {
		return err
	}
	loan := a.LoanBalance.Add(loanDelta)
	inv := a.InvestmentBalance.Add(investmentDelta)
	if loan.IsNegative() || inv.IsNegative() {
		return ErrInsufficientFunds
	}
	a.LoanBalance = loan
	a.InvestmentBalance = inv
	return nil
}

// SetStatus moves between the open states. Closing goes through Close.
func (a *Account) SetStatus(s Status) error {
	if a.Status == StatusClosed {
		return ErrAccountClosed
	}
	switch s {
	case StatusActive, StatusInactive, StatusFrozen:
		a.Status = s
		return nil
	}
	return ErrInvalidStatus
}

func (a *Account) Close(now time.Time) error {
	if a.Status == StatusClosed {
		return ErrAccountClosed
	}
	if !a.LoanBalance.IsZero() || !a.InvestmentBalance.IsZero() {
		return ErrOutstandingBalance
	}
	a.Status = StatusClosed
	a.ClosedAt = &now
	return nil
}
