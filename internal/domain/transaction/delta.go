package transaction

import "github.com/shopspring/decimal"

type Field string

const (
	FieldLoan       Field = "loan_balance"
	FieldInvestment Field = "investment_balance"
)

type rule struct {
	field Field
	sign  int64
}

// Every type moves exactly one balance field in one direction.
var deltas = map[Type]rule{
	TypeDeposit:          {FieldInvestment, 1},
	TypeWithdrawal:       {FieldInvestment, -1},
	TypeInterest:         {FieldInvestment, 1},
	TypeLoanDisbursement: {FieldLoan, 1},
	TypePayment:          {FieldLoan, -1},
	TypeFee:              {FieldInvestment, -1},
}

// counterTypes is what the treasury posts when a user entry of the key type lands.
var counterTypes = map[Type]Type{
	TypeDeposit:          TypeDeposit,
	TypeWithdrawal:       TypeWithdrawal,
	TypeLoanDisbursement: TypeWithdrawal,
	TypePayment:          TypeDeposit,
	TypeFee:              TypeInterest,
	TypeInterest:         TypeFee,
}

func (t Type) Field() Field { return deltas[t].field }

// SignedDelta splits amount into (loanDelta, investmentDelta) for the type.
func SignedDelta(t Type, amount decimal.Decimal) (loan, investment decimal.Decimal, err error) {
	r, ok := deltas[t]
	if !ok {
		return decimal.Zero, decimal.Zero, ErrInvalidType
	}
	signed := amount.Mul(decimal.NewFromInt(r.sign))
	if r.field == FieldLoan {
		return signed, decimal.Zero, nil
	}
	return decimal.Zero, signed, nil
}

// CounterType returns the treasury-side type for a user entry.
func CounterType(t Type) (Type, bool) {
	c, ok := counterTypes[t]
	return c, ok
}

// Balanced checks the snapshot arithmetic of a ledger row. Completed rows
// carry the type's delta, reversal rows carry its negation.
func (t *Transaction) Balanced() bool {
	loan, inv, err := SignedDelta(t.Type, t.Amount)
	if err != nil {
		return false
	}
	switch t.Status {
	case StatusCompleted:
	case StatusReversed:
		loan, inv = loan.Neg(), inv.Neg()
	default:
		loan, inv = decimal.Zero, decimal.Zero
	}
	return t.LoanBalanceAfter.Equal(t.LoanBalanceBefore.Add(loan)) &&
		t.InvestmentBalanceAfter.Equal(t.InvestmentBalanceBefore.Add(inv))
}
