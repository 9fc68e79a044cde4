package user

import "context"

type Filter struct {
	Role   Role
	Status Status
	Offset int
	Limit  int
}

type Repository interface {
	Create(ctx context.Context, u *User) error
	Save(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByRole(ctx context.Context, role Role) (*User, error)
	List(ctx context.Context, f Filter) ([]User, int64, error)
}
