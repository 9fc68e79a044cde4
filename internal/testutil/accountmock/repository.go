package accountmock

import (
	"context"
	"errors"

	domain "lendledger/internal/domain/account"
)

// Ensure compile-time compliance
var _ domain.Repository = (*Repo)(nil)

var errUnimplemented = errors.New("accountmock: method not implemented")

// Repo is a function-backed mock that satisfies account.Repository.
// Save records every saved snapshot so tests can assert on it.
type Repo struct {
	CreateFn               func(ctx context.Context, a *domain.Account) error
	SaveFn                 func(ctx context.Context, a *domain.Account) error
	GetByIDFn              func(ctx context.Context, id string) (*domain.Account, error)
	GetByUserIDFn          func(ctx context.Context, userID string) (*domain.Account, error)
	GetByNumberFn          func(ctx context.Context, number string) (*domain.Account, error)
	ListFn                 func(ctx context.Context, f domain.Filter) ([]domain.Account, int64, error)
	GetByIDForUpdateFn     func(ctx context.Context, id string) (*domain.Account, error)
	GetTreasuryForUpdateFn func(ctx context.Context) (*domain.Account, error)

	Saved []domain.Account
}

func (m *Repo) Create(ctx context.Context, a *domain.Account) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return errUnimplemented
}

func (m *Repo) Save(ctx context.Context, a *domain.Account) error {
	m.Saved = append(m.Saved, *a)
	if m.SaveFn != nil {
		return m.SaveFn(ctx, a)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, errUnimplemented
}

func (m *Repo) GetByUserID(ctx context.Context, userID string) (*domain.Account, error) {
	if m.GetByUserIDFn != nil {
		return m.GetByUserIDFn(ctx, userID)
	}
	return nil, errUnimplemented
}

func (m *Repo) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	if m.GetByNumberFn != nil {
		return m.GetByNumberFn(ctx, number)
	}
	return nil, errUnimplemented
}

func (m *Repo) List(ctx context.Context, f domain.Filter) ([]domain.Account, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, 0, errUnimplemented
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, errUnimplemented
}

func (m *Repo) GetTreasuryForUpdate(ctx context.Context) (*domain.Account, error) {
	if m.GetTreasuryForUpdateFn != nil {
		return m.GetTreasuryForUpdateFn(ctx)
	}
	return nil, errUnimplemented
}
