package account

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestApplyDelta(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		loan     string
		inv      string
		dLoan    string
		dInv     string
		wantErr  error
		wantLoan string
		wantInv  string
	}{
		{"deposit", StatusActive, "0", "1250", "0", "500", nil, "0", "1750"},
		{"withdraw to zero", StatusActive, "0", "100", "0", "-100", nil, "0", "0"},
		{"overdraw", StatusActive, "0", "100", "0", "-100.01", ErrInsufficientFunds, "0", "100"},
		{"repay more than owed", StatusActive, "50", "0", "-60", "0", ErrInsufficientFunds, "50", "0"},
		{"closed", StatusClosed, "0", "100", "0", "1", ErrAccountClosed, "0", "100"},
		{"frozen", StatusFrozen, "0", "100", "0", "1", ErrAccountInactive, "0", "100"},
		{"inactive", StatusInactive, "0", "100", "0", "1", ErrAccountInactive, "0", "100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Account{Status: tt.status, LoanBalance: d(tt.loan), InvestmentBalance: d(tt.inv)}
			err := a.ApplyDelta(d(tt.dLoan), d(tt.dInv))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if !a.LoanBalance.Equal(d(tt.wantLoan)) || !a.InvestmentBalance.Equal(d(tt.wantInv)) {
				t.Fatalf("balances = %s/%s, want %s/%s", a.LoanBalance, a.InvestmentBalance, tt.wantLoan, tt.wantInv)
			}
		})
	}
}

func TestSetStatusAndClose(t *testing.T) {
	a := &Account{Status: StatusActive, LoanBalance: d("10"), InvestmentBalance: d("0")}
	if err := a.SetStatus(StatusFrozen); err != nil {
		t.Fatalf("freeze: %v", err)
	}
	if err := a.SetStatus(StatusClosed); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("closing through SetStatus should fail, got %v", err)
	}
	if err := a.Close(time.Now()); !errors.Is(err, ErrOutstandingBalance) {
		t.Fatalf("close with loan balance: %v", err)
	}
	a.LoanBalance = decimal.Zero
	if err := a.Close(time.Now()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if a.ClosedAt == nil || a.Status != StatusClosed {
		t.Fatalf("close did not stamp account: %+v", a)
	}
	if err := a.SetStatus(StatusActive); !errors.Is(err, ErrAccountClosed) {
		t.Fatalf("reopen should fail, got %v", err)
	}
}

func TestIsTreasury(t *testing.T) {
	if !(&Account{AccountNumber: "ORG1736123456ABCDEF12"}).IsTreasury() {
		t.Fatal("ORG account should be treasury")
	}
	if (&Account{AccountNumber: "ACC1736123456ABCDEF12"}).IsTreasury() {
		t.Fatal("ACC account is not treasury")
	}
}
