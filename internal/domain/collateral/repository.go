package collateral

import (
	"context"
	"time"
)

type Filter struct {
	UserID string
	Status Status
	Offset int
	Limit  int
}

type Repository interface {
	Create(ctx context.Context, c *Collateral) error
	Save(ctx context.Context, c *Collateral) error
	GetByID(ctx context.Context, id string) (*Collateral, error)
	GetByIDForUpdate(ctx context.Context, id string) (*Collateral, error)
	List(ctx context.Context, f Filter) ([]Collateral, int64, error)
	// ListOverdue returns approved items whose due date is before now.
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]Collateral, error)
}
