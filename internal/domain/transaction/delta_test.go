package transaction

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSignedDelta(t *testing.T) {
	amt := decimal.RequireFromString("500")
	tests := []struct {
		typ      Type
		wantLoan string
		wantInv  string
	}{
		{TypeDeposit, "0", "500"},
		{TypeWithdrawal, "0", "-500"},
		{TypeInterest, "0", "500"},
		{TypeLoanDisbursement, "500", "0"},
		{TypePayment, "-500", "0"},
		{TypeFee, "0", "-500"},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			loan, inv, err := SignedDelta(tt.typ, amt)
			if err != nil {
				t.Fatalf("err: %v", err)
			}
			if !loan.Equal(decimal.RequireFromString(tt.wantLoan)) || !inv.Equal(decimal.RequireFromString(tt.wantInv)) {
				t.Fatalf("got %s/%s want %s/%s", loan, inv, tt.wantLoan, tt.wantInv)
			}
			// exactly one field moves
			if !loan.IsZero() && !inv.IsZero() {
				t.Fatalf("both fields moved")
			}
		})
	}
	if _, _, err := SignedDelta("bonus", amt); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("unknown type: %v", err)
	}
}

func TestCounterType(t *testing.T) {
	want := map[Type]Type{
		TypeDeposit:          TypeDeposit,
		TypeWithdrawal:       TypeWithdrawal,
		TypeLoanDisbursement: TypeWithdrawal,
		TypePayment:          TypeDeposit,
		TypeFee:              TypeInterest,
		TypeInterest:         TypeFee,
	}
	for in, out := range want {
		got, ok := CounterType(in)
		if !ok || got != out {
			t.Errorf("CounterType(%s) = %s,%v want %s", in, got, ok, out)
		}
		// counter-entries only touch investment balance
		if got.Field() != FieldInvestment {
			t.Errorf("counter of %s moves %s", in, got.Field())
		}
	}
}

func TestBalanced(t *testing.T) {
	d := decimal.RequireFromString
	tx := &Transaction{
		Type: TypeDeposit, Status: StatusCompleted, Amount: d("500"),
		InvestmentBalanceBefore: d("1250"), InvestmentBalanceAfter: d("1750"),
	}
	if !tx.Balanced() {
		t.Fatal("completed deposit should balance")
	}
	rev := &Transaction{
		Type: TypeDeposit, Status: StatusReversed, Amount: d("500"),
		InvestmentBalanceBefore: d("1750"), InvestmentBalanceAfter: d("1250"),
	}
	if !rev.Balanced() {
		t.Fatal("reversal should balance with negated delta")
	}
	failed := &Transaction{
		Type: TypeWithdrawal, Status: StatusFailed, Amount: d("10"),
		InvestmentBalanceBefore: d("5"), InvestmentBalanceAfter: d("5"),
	}
	if !failed.Balanced() {
		t.Fatal("failed rows carry no delta")
	}
	tx.InvestmentBalanceAfter = d("1700")
	if tx.Balanced() {
		t.Fatal("wrong snapshot must not balance")
	}
}
