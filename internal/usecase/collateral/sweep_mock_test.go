package collateral

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "lendledger/internal/domain/collateral"
	"lendledger/internal/domain/uow"
	"lendledger/internal/testutil/collateralmock"
	"lendledger/internal/testutil/uowmock"
	"lendledger/internal/testutil/usermock"
	"lendledger/internal/testutil/valuationmock"
)

func TestSweepOverdue_ListErrorPropagates(t *testing.T) {
	sentinel := errors.New("db gone")
	repo := &collateralmock.Repo{ListOverdueFn: func(context.Context, time.Time, int) ([]domain.Collateral, error) {
		return nil, sentinel
	}}
	uc := NewUsecase(uowmock.New(), &usermock.Repo{}, repo, &valuationmock.Gateway{})
	if _, err := uc.SweepOverdue(context.Background(), 0); !errors.Is(err, sentinel) {
		t.Fatalf("want %v, got %v", sentinel, err)
	}
}

func TestSweepOverdue_CountsPerItemOutcomes(t *testing.T) {
	due := fixedNow.Add(-time.Hour)
	items := map[string]*domain.Collateral{
		"ok":     {ID: "ok", Status: domain.StatusApproved, DueDate: &due, LoanAmount: d("100")},
		"repaid": {ID: "repaid", Status: domain.StatusReleased, DueDate: &due},
	}
	var gotLimit int
	repo := &collateralmock.Repo{
		ListOverdueFn: func(_ context.Context, _ time.Time, limit int) ([]domain.Collateral, error) {
			gotLimit = limit
			return []domain.Collateral{{ID: "ok"}, {ID: "repaid"}, {ID: "locked"}}, nil
		},
		GetByIDForUpdateFn: func(_ context.Context, id string) (*domain.Collateral, error) {
			if c, ok := items[id]; ok {
				return c, nil
			}
			return nil, errors.New("lock wait timeout")
		},
		SaveFn: func(context.Context, *domain.Collateral) error { return nil },
	}
	uc := NewUsecase(uowmock.Passthrough(uow.Repos{Collaterals: repo}, nil), &usermock.Repo{}, repo, &valuationmock.Gateway{},
		WithClock(func() time.Time { return fixedNow }))

	res, err := uc.SweepOverdue(context.Background(), 0)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if gotLimit != defaultSweepBatch {
		t.Fatalf("batch = %d", gotLimit)
	}
	if res.Scanned != 3 || len(res.Defaulted) != 1 || res.Defaulted[0] != "ok" || res.Skipped != 1 || res.Errors != 1 {
		t.Fatalf("result = %+v", res)
	}
	if items["ok"].Status != domain.StatusDefaulted {
		t.Fatalf("status = %s", items["ok"].Status)
	}
}
