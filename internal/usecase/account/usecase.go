package account

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"lendledger/internal/domain/account"
	"lendledger/internal/domain/uow"
	"lendledger/internal/domain/user"
	"lendledger/internal/usecase/paging"
	"lendledger/pkg/amount"
	"lendledger/pkg/id"
)

type Usecase struct {
	uow      uow.UnitOfWork
	users    user.Repository
	accounts account.Repository
	logger   *slog.Logger
	now      func() time.Time
	currency string
}

type Option func(*Usecase)

func WithLogger(l *slog.Logger) Option      { return func(u *Usecase) { u.logger = l } }
func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }
func WithCurrency(c string) Option          { return func(u *Usecase) { u.currency = c } }

func NewUsecase(w uow.UnitOfWork, users user.Repository, accounts account.Repository, opts ...Option) *Usecase {
	u := &Usecase{
		uow:      w,
		users:    users,
		accounts: accounts,
		logger:   slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
		currency: amount.DefaultCurrency,
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// Open creates the single ledger account of a user. Organization users get a
// treasury account number.
func (u *Usecase) Open(ctx context.Context, userID string) (*AccountDTO, error) {
	var out *account.Account
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		usr, err := r.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if _, err := r.Accounts.GetByUserID(ctx, userID); err == nil {
			return account.ErrAlreadyExists
		} else if !errors.Is(err, account.ErrNotFound) {
			return err
		}
		prefix := id.PrefixAccount
		if usr.Role == user.RoleOrganization {
			prefix = id.PrefixTreasury
		}
		out = &account.Account{
			ID:                id.NewID32(),
			UserID:            usr.ID,
			AccountNumber:     id.NewAccountNumber(prefix, u.now()),
			Status:            account.StatusActive,
			LoanBalance:       decimal.Zero,
			InvestmentBalance: decimal.Zero,
		}
		return r.Accounts.Create(ctx, out)
	})
	if err != nil {
		return nil, err
	}
	u.logger.InfoContext(ctx, "account opened", "account_id", out.ID, "user_id", userID, "number", out.AccountNumber)
	dto := toDTO(out)
	return &dto, nil
}

func (u *Usecase) Get(ctx context.Context, accountID string) (*AccountDTO, error) {
	a, err := u.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(a)
	return &dto, nil
}

func (u *Usecase) GetByUser(ctx context.Context, userID string) (*AccountDTO, error) {
	a, err := u.accounts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(a)
	return &dto, nil
}

func (u *Usecase) GetByNumber(ctx context.Context, number string) (*AccountDTO, error) {
	a, err := u.accounts.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	dto := toDTO(a)
	return &dto, nil
}

func (u *Usecase) Balance(ctx context.Context, accountID string) (*BalanceDTO, error) {
	a, err := u.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	dto := toBalanceDTO(a, u.currency)
	return &dto, nil
}

func (u *Usecase) List(ctx context.Context, in ListInput) (*paging.Result[AccountDTO], error) {
	p, err := in.Page.Normalize()
	if err != nil {
		return nil, err
	}
	list, total, err := u.accounts.List(ctx, account.Filter{Status: in.Status, Offset: p.Offset(), Limit: p.PageSize})
	if err != nil {
		return nil, err
	}
	return paging.NewResult(paging.Map(list, toDTO), total, p), nil
}

func (u *Usecase) SetStatus(ctx context.Context, accountID string, status account.Status) (*AccountDTO, error) {
	return u.mutate(ctx, accountID, func(a *account.Account) error { return a.SetStatus(status) })
}

// Close requires both balances to be zero.
func (u *Usecase) Close(ctx context.Context, accountID string) (*AccountDTO, error) {
	return u.mutate(ctx, accountID, func(a *account.Account) error { return a.Close(u.now()) })
}

func (u *Usecase) mutate(ctx context.Context, accountID string, fn func(*account.Account) error) (*AccountDTO, error) {
	var out *account.Account
	err := u.uow.WithinAccountTx(ctx, accountID, func(r uow.Repos, a *account.Account) error {
		if err := fn(a); err != nil {
			return err
		}
		out = a
		return r.Accounts.Save(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	u.logger.InfoContext(ctx, "account updated", "account_id", out.ID, "status", out.Status)
	dto := toDTO(out)
	return &dto, nil
}

const (
	treasuryEmail    = "treasury@lendledger.local"
	treasuryUsername = "treasury"
)

// ProvisionTreasury makes sure the organization user and its ORG account
// exist. It is safe to call on every boot.
func (u *Usecase) ProvisionTreasury(ctx context.Context) (*AccountDTO, error) {
	var out *account.Account
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		org, err := r.Users.GetByRole(ctx, user.RoleOrganization)
		switch {
		case errors.Is(err, user.ErrNotFound):
			org = &user.User{
				ID:          id.NewID32(),
				Email:       treasuryEmail,
				Username:    treasuryUsername,
				FirstName:   "Platform",
				LastName:    "Treasury",
				Role:        user.RoleOrganization,
				Status:      user.StatusActive,
				KYCVerified: true,
			}
			if err := r.Users.Create(ctx, org); err != nil {
				return err
			}
		case err != nil:
			return err
		}

		a, err := r.Accounts.GetByUserID(ctx, org.ID)
		if err == nil {
			out = a
			return nil
		}
		if !errors.Is(err, account.ErrNotFound) {
			return err
		}
		out = &account.Account{
			ID:                id.NewID32(),
			UserID:            org.ID,
			AccountNumber:     id.NewAccountNumber(id.PrefixTreasury, u.now()),
			Status:            account.StatusActive,
			LoanBalance:       decimal.Zero,
			InvestmentBalance: decimal.Zero,
		}
		return r.Accounts.Create(ctx, out)
	})
	if err != nil {
		return nil, err
	}
	u.logger.InfoContext(ctx, "treasury ready", "account_id", out.ID, "number", out.AccountNumber)
	dto := toDTO(out)
	return &dto, nil
}
