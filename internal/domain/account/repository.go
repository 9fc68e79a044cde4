package account

import "context"

type Filter struct {
	Status Status
	Offset int
	Limit  int
}

type Repository interface {
	Create(ctx context.Context, a *Account) error
	Save(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByUserID(ctx context.Context, userID string) (*Account, error)
	GetByNumber(ctx context.Context, number string) (*Account, error)
	List(ctx context.Context, f Filter) ([]Account, int64, error)

	// Row-locking reads; only meaningful inside a unit of work.
	GetByIDForUpdate(ctx context.Context, id string) (*Account, error)
	GetTreasuryForUpdate(ctx context.Context) (*Account, error)
}
