package collateralmock

import (
	"context"
	"errors"
	"time"

	domain "lendledger/internal/domain/collateral"
)

// Ensure compile-time compliance
var _ domain.Repository = (*Repo)(nil)

var errUnimplemented = errors.New("collateralmock: method not implemented")

// Repo is a function-backed mock; unfilled methods return errUnimplemented.
type Repo struct {
	CreateFn           func(ctx context.Context, c *domain.Collateral) error
	SaveFn             func(ctx context.Context, c *domain.Collateral) error
	GetByIDFn          func(ctx context.Context, id string) (*domain.Collateral, error)
	GetByIDForUpdateFn func(ctx context.Context, id string) (*domain.Collateral, error)
	ListFn             func(ctx context.Context, f domain.Filter) ([]domain.Collateral, int64, error)
	ListOverdueFn      func(ctx context.Context, now time.Time, limit int) ([]domain.Collateral, error)
}

func (m *Repo) Create(ctx context.Context, c *domain.Collateral) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, c)
	}
	return errUnimplemented
}

func (m *Repo) Save(ctx context.Context, c *domain.Collateral) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, c)
	}
	return errUnimplemented
}

func (m *Repo) GetByID(ctx context.Context, id string) (*domain.Collateral, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, errUnimplemented
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Collateral, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, errUnimplemented
}

func (m *Repo) List(ctx context.Context, f domain.Filter) ([]domain.Collateral, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, 0, errUnimplemented
}

func (m *Repo) ListOverdue(ctx context.Context, now time.Time, limit int) ([]domain.Collateral, error) {
	if m.ListOverdueFn != nil {
		return m.ListOverdueFn(ctx, now, limit)
	}
	return nil, errUnimplemented
}
