package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domain "lendledger/internal/domain/account"
	"lendledger/internal/domain/uow"
	"lendledger/internal/domain/user"
	"lendledger/internal/testutil/accountmock"
	"lendledger/internal/testutil/uowmock"
	"lendledger/internal/testutil/usermock"
)

func TestClose_OutstandingBalanceIsNotSaved(t *testing.T) {
	accounts := &accountmock.Repo{}
	locked := &domain.Account{ID: "A-1", Status: domain.StatusActive, LoanBalance: decimal.NewFromInt(10), InvestmentBalance: decimal.Zero}
	uc := NewUsecase(uowmock.Passthrough(uow.Repos{Accounts: accounts}, locked), &usermock.Repo{}, accounts,
		WithClock(func() time.Time { return fixedNow }))

	if _, err := uc.Close(context.Background(), "A-1"); !errors.Is(err, domain.ErrOutstandingBalance) {
		t.Fatalf("want ErrOutstandingBalance, got %v", err)
	}
	if len(accounts.Saved) != 0 {
		t.Fatalf("account saved despite rejection: %+v", accounts.Saved)
	}

	locked.LoanBalance = decimal.Zero
	dto, err := uc.Close(context.Background(), "A-1")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if dto.Status != string(domain.StatusClosed) || len(accounts.Saved) != 1 || accounts.Saved[0].ClosedAt == nil {
		t.Fatalf("dto=%+v saved=%+v", dto, accounts.Saved)
	}
}

func TestSetStatus_LockErrorPropagates(t *testing.T) {
	sentinel := errors.New("lock wait timeout")
	w := uowmock.New().WithWithinAccountTx(func(context.Context, string, func(uow.Repos, *domain.Account) error) error {
		return sentinel
	})
	uc := NewUsecase(w, &usermock.Repo{}, &accountmock.Repo{})
	if _, err := uc.SetStatus(context.Background(), "A-1", domain.StatusFrozen); !errors.Is(err, sentinel) {
		t.Fatalf("want %v, got %v", sentinel, err)
	}
}

func TestOpen_UnknownUser(t *testing.T) {
	users := &usermock.Repo{GetByIDFn: func(context.Context, string) (*user.User, error) { return nil, user.ErrNotFound }}
	accounts := &accountmock.Repo{}
	uc := NewUsecase(uowmock.Passthrough(uow.Repos{Users: users, Accounts: accounts}, nil), users, accounts)
	if _, err := uc.Open(context.Background(), "nobody"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("want user.ErrNotFound, got %v", err)
	}
}
