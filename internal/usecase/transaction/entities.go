package transaction

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"lendledger/internal/domain/transaction"
	"lendledger/internal/usecase/paging"
	"lendledger/pkg/amount"
)

// CreateInput is the generic createTransaction request. The typed entry
// points (Deposit, Pay, CreateLoan, ...) fill Type themselves.
type CreateInput struct {
	AccountID       string
	UserID          string
	Type            transaction.Type
	Amount          decimal.Decimal
	Fee             *decimal.Decimal
	CollateralID    string
	Description     string
	ReferenceNumber string
	Annotations     map[string]string
}

type ExtendInput struct {
	AccountID       string
	UserID          string
	CollateralID    string
	ExtensionDays   int
	Fee             decimal.Decimal
	Description     string
	ReferenceNumber string
	Annotations     map[string]string
}

type ReverseInput struct {
	TransactionID string
	Reason        string
}

type ListInput struct {
	AccountID    string
	UserID       string
	CollateralID string
	Type         transaction.Type
	Status       transaction.Status
	From         *time.Time
	To           *time.Time
	Page         paging.Request
}

type TransactionDTO struct {
	ID                      string               `json:"id"`
	AccountID               string               `json:"account_id"`
	UserID                  string               `json:"user_id"`
	Type                    string               `json:"transaction_type"`
	Status                  string               `json:"status"`
	Amount                  string               `json:"amount"`
	AmountDisplay           string               `json:"amount_display"`
	Fee                     *string              `json:"fee,omitempty"`
	CollateralID            *string              `json:"collateral_id,omitempty"`
	ReversesID              *string              `json:"reverses_id,omitempty"`
	CounterOfID             *string              `json:"counter_of_id,omitempty"`
	ReferenceNumber         string               `json:"reference_number,omitempty"`
	Description             string               `json:"description,omitempty"`
	LoanBalanceBefore       string               `json:"loan_balance_before"`
	LoanBalanceAfter        string               `json:"loan_balance_after"`
	InvestmentBalanceBefore string               `json:"invested_balance_before"`
	InvestmentBalanceAfter  string               `json:"invested_balance_after"`
	Metadata                transaction.Metadata `json:"metadata"`
	FailureReason           string               `json:"failure_reason,omitempty"`
	CreatedAt               time.Time            `json:"created_at"`
	ProcessedAt             *time.Time           `json:"processed_at,omitempty"`
	FailedAt                *time.Time           `json:"failed_at,omitempty"`

	// Replayed is set when a completed entry with the same reference number
	// was returned instead of posting a new one.
	Replayed bool `json:"-"`
}

func toDTO(t *transaction.Transaction, currency string) TransactionDTO {
	dto := TransactionDTO{
		ID:                      t.ID,
		AccountID:               t.AccountID,
		UserID:                  t.UserID,
		Type:                    string(t.Type),
		Status:                  string(t.Status),
		Amount:                  t.Amount.StringFixed(2),
		AmountDisplay:           amount.Display(t.Amount, currency),
		CollateralID:            t.CollateralID,
		ReversesID:              t.ReversesID,
		CounterOfID:             t.CounterOfID,
		ReferenceNumber:         t.ReferenceNumber,
		Description:             t.Description,
		LoanBalanceBefore:       t.LoanBalanceBefore.StringFixed(2),
		LoanBalanceAfter:        t.LoanBalanceAfter.StringFixed(2),
		InvestmentBalanceBefore: t.InvestmentBalanceBefore.StringFixed(2),
		InvestmentBalanceAfter:  t.InvestmentBalanceAfter.StringFixed(2),
		Metadata:                t.Metadata,
		FailureReason:           t.FailureReason,
		CreatedAt:               t.CreatedAt,
		ProcessedAt:             t.ProcessedAt,
		FailedAt:                t.FailedAt,
	}
	if t.Fee != nil {
		f := t.Fee.StringFixed(2)
		dto.Fee = &f
	}
	return dto
}

type SummaryBucket struct {
	Type   string `json:"transaction_type"`
	Status string `json:"status"`
	Count  int64  `json:"count"`
	Total  string `json:"total"`
}

type SummaryDTO struct {
	UserID     string          `json:"user_id"`
	Buckets    []SummaryBucket `json:"buckets"`
	TotalCount int64           `json:"total_count"`
	// Net is completed minus reversed amount per type.
	Net        map[string]string `json:"net"`
	NetDisplay map[string]string `json:"net_display"`
}

// RejectedError carries the id of the failed audit entry written for a
// rejected transaction.
type RejectedError struct {
	TransactionID string
	Err           error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("transaction %s rejected: %v", e.TransactionID, e.Err)
}

func (e *RejectedError) Unwrap() error { return e.Err }

var verbs = map[transaction.Type]string{
	transaction.TypeDeposit:          "Deposit",
	transaction.TypeWithdrawal:       "Withdrawal",
	transaction.TypeInterest:         "Interest",
	transaction.TypeLoanDisbursement: "Loan disbursement",
	transaction.TypePayment:          "Loan payment",
	transaction.TypeFee:              "Fee",
}

func describe(t transaction.Type, v decimal.Decimal, currency string) string {
	return fmt.Sprintf("%s of %s", verbs[t], amount.Display(v, currency))
}
