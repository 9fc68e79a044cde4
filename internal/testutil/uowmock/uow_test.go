package uowmock

import (
	"context"
	"errors"
	"testing"

	"lendledger/internal/domain/account"
	"lendledger/internal/domain/uow"
	"lendledger/internal/testutil/accountmock"
	"lendledger/internal/testutil/usermock"
)

func TestUoW_WithinTx_Happy(t *testing.T) {
	ctx := context.Background()

	users := &usermock.Repo{}
	accounts := &accountmock.Repo{}
	repos := uow.Repos{Users: users, Accounts: accounts}

	innerCalled := false
	m := &UoW{
		WithinTxFn: func(gotCtx context.Context, fn func(r uow.Repos) error) error {
			if gotCtx != ctx {
				t.Fatalf("WithinTx: ctx mismatch")
			}
			if fn == nil {
				t.Fatalf("WithinTx: fn is nil")
			}
			// simulate transaction body
			return fn(repos)
		},
	}

	err := m.WithinTx(ctx, func(r uow.Repos) error {
		innerCalled = true
		if r.Users != users || r.Accounts != accounts {
			t.Fatalf("WithinTx: repos not forwarded correctly")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithinTx: unexpected err: %v", err)
	}
	if !innerCalled {
		t.Fatalf("WithinTx: inner fn not called")
	}
}

func TestUoW_WithinTx_PropagatesError(t *testing.T) {
	sentinel := errors.New("boom")
	m := &UoW{
		WithinTxFn: func(context.Context, func(uow.Repos) error) error {
			return sentinel
		},
	}
	if err := m.WithinTx(context.Background(), func(uow.Repos) error { return nil }); !errors.Is(err, sentinel) {
		t.Fatalf("WithinTx: want %v, got %v", sentinel, err)
	}
}

func TestUoW_Default_Unimplemented(t *testing.T) {
	ctx := context.Background()
	m := &UoW{} // no funcs set
	if err := m.WithinTx(ctx, func(uow.Repos) error { return nil }); !errors.Is(err, errUnimplemented) {
		t.Fatalf("WithinTx default: want errUnimplemented, got %v", err)
	}
	if err := m.WithinAccountTx(ctx, "A-1", func(uow.Repos, *account.Account) error { return nil }); !errors.Is(err, errUnimplemented) {
		t.Fatalf("WithinAccountTx default: want errUnimplemented, got %v", err)
	}
}

func TestPassthrough(t *testing.T) {
	ctx := context.Background()
	accounts := &accountmock.Repo{}
	lock := &account.Account{ID: "A-7", Status: account.StatusActive}
	m := Passthrough(uow.Repos{Accounts: accounts}, lock)

	err := m.WithinAccountTx(ctx, "A-7", func(r uow.Repos, a *account.Account) error {
		if r.Accounts != accounts || a != lock {
			t.Fatalf("WithinAccountTx: repos or account not forwarded")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithinAccountTx: unexpected err: %v", err)
	}
	if err := m.WithinAccountTx(ctx, "A-8", func(uow.Repos, *account.Account) error { return nil }); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("unknown account: want ErrNotFound, got %v", err)
	}
}

func TestUoW_FluentSetters_And_Reset(t *testing.T) {
	m := New()
	if m.WithinTxFn != nil || m.WithinAccountTxFn != nil {
		t.Fatalf("New should start with nil funcs")
	}

	// set via fluent setters
	m.WithWithinTx(func(context.Context, func(uow.Repos) error) error { return nil }).
		WithWithinAccountTx(func(context.Context, string, func(uow.Repos, *account.Account) error) error { return nil })

	if m.WithinTxFn == nil || m.WithinAccountTxFn == nil {
		t.Fatalf("fluent setters didn't assign funcs")
	}

	// reset clears funcs
	m.Reset()
	if m.WithinTxFn != nil || m.WithinAccountTxFn != nil {
		t.Fatalf("Reset should clear function fields")
	}
}
