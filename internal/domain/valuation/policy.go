package valuation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Policy turns a valuation result into loan terms. All thresholds are configuration.
type Policy struct {
	MinEstimatedValue    decimal.Decimal
	LoanToValue          decimal.Decimal // 0 disables the cap
	InterestRate         decimal.Decimal
	TermDays             int
	FallbackLoanLimit    decimal.Decimal // used when the gateway gives no estimate
	FallbackInterestRate decimal.Decimal
	FallbackTermDays     int
}

func DefaultPolicy() Policy {
	return Policy{
		MinEstimatedValue:    decimal.NewFromInt(1),
		LoanToValue:          decimal.RequireFromString("0.7"),
		InterestRate:         decimal.RequireFromString("0.12"),
		TermDays:             365,
		FallbackLoanLimit:    decimal.NewFromInt(1000),
		FallbackInterestRate: decimal.RequireFromString("0.15"),
		FallbackTermDays:     180,
	}
}

type Decision struct {
	Accept    bool
	Reason    string
	LoanLimit decimal.Decimal
	Interest  decimal.Decimal
	DueDate   time.Time
}

const (
	ReasonUnsuccessful = "valuation unsuccessful"
	ReasonNoLoan       = "item not eligible for a loan"
	ReasonBelowMinimum = "estimated value below minimum"
)

func (p Policy) Decide(r *Result, now time.Time) Decision {
	switch {
	case r == nil || !r.Success:
		return Decision{Reason: ReasonUnsuccessful}
	case !r.LoanAmount.IsPositive():
		return Decision{Reason: ReasonNoLoan}
	}

	if r.EstimatedValue.IsZero() {
		limit := r.LoanAmount
		if p.FallbackLoanLimit.IsPositive() && p.FallbackLoanLimit.LessThan(limit) {
			limit = p.FallbackLoanLimit
		}
		return Decision{
			Accept:    true,
			LoanLimit: limit.Round(2),
			Interest:  p.FallbackInterestRate,
			DueDate:   now.AddDate(0, 0, p.FallbackTermDays),
		}
	}
	if r.EstimatedValue.LessThan(p.MinEstimatedValue) {
		return Decision{Reason: ReasonBelowMinimum}
	}

	limit := r.LoanAmount
	if p.LoanToValue.IsPositive() {
		limit = decimal.Min(limit, r.EstimatedValue.Mul(p.LoanToValue))
	}
	return Decision{
		Accept:    true,
		LoanLimit: limit.Round(2),
		Interest:  p.InterestRate,
		DueDate:   now.AddDate(0, 0, p.TermDays),
	}
}
