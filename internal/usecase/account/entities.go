package account

import (
	"time"

	"lendledger/internal/domain/account"
	"lendledger/internal/usecase/paging"
	"lendledger/pkg/amount"
)

type ListInput struct {
	Status account.Status
	Page   paging.Request
}

type AccountDTO struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	AccountNumber     string     `json:"account_number"`
	Status            string     `json:"status"`
	LoanBalance       string     `json:"loan_balance"`
	InvestmentBalance string     `json:"investment_balance"`
	Treasury          bool       `json:"treasury,omitempty"`
	ClosedAt          *time.Time `json:"closed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type BalanceDTO struct {
	AccountID         string `json:"account_id"`
	AccountNumber     string `json:"account_number"`
	LoanBalance       string `json:"loan_balance"`
	InvestmentBalance string `json:"investment_balance"`
	LoanDisplay       string `json:"loan_balance_display"`
	InvestmentDisplay string `json:"investment_balance_display"`
}

func toDTO(a *account.Account) AccountDTO {
	return AccountDTO{
		ID:                a.ID,
		UserID:            a.UserID,
		AccountNumber:     a.AccountNumber,
		Status:            string(a.Status),
		LoanBalance:       a.LoanBalance.StringFixed(2),
		InvestmentBalance: a.InvestmentBalance.StringFixed(2),
		Treasury:          a.IsTreasury(),
		ClosedAt:          a.ClosedAt,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func toBalanceDTO(a *account.Account, currency string) BalanceDTO {
	return BalanceDTO{
		AccountID:         a.ID,
		AccountNumber:     a.AccountNumber,
		LoanBalance:       a.LoanBalance.StringFixed(2),
		InvestmentBalance: a.InvestmentBalance.StringFixed(2),
		LoanDisplay:       amount.Display(a.LoanBalance, currency),
		InvestmentDisplay: amount.Display(a.InvestmentBalance, currency),
	}
}
