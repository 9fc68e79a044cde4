package usermock

import (
	"context"
	"errors"

	"lendledger/internal/domain/user"
)

// Ensure compile-time compliance
var _ user.Repository = (*Repo)(nil)

var errUnimplemented = errors.New("usermock: method not implemented")

// Repo is a function-backed mock; unfilled methods return errUnimplemented.
type Repo struct {
	CreateFn    func(ctx context.Context, u *user.User) error
	SaveFn      func(ctx context.Context, u *user.User) error
	GetByIDFn   func(ctx context.Context, id string) (*user.User, error)
	GetByRoleFn func(ctx context.Context, role user.Role) (*user.User, error)
	ListFn      func(ctx context.Context, f user.Filter) ([]user.User, int64, error)
}

func (m *Repo) Create(ctx context.Context, u *user.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, u)
	}
	return errUnimplemented
}

func (m *Repo) Save(ctx context.Context, u *user.User) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, u)
	}
	return errUnimplemented
}

func (m *Repo) GetByID(ctx context.Context, id string) (*user.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, errUnimplemented
}

func (m *Repo) GetByRole(ctx context.Context, role user.Role) (*user.User, error) {
	if m.GetByRoleFn != nil {
		return m.GetByRoleFn(ctx, role)
	}
	return nil, errUnimplemented
}

func (m *Repo) List(ctx context.Context, f user.Filter) ([]user.User, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, 0, errUnimplemented
}
