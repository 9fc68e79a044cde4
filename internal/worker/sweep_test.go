package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"lendledger/internal/infrastructure/logging"
	"lendledger/internal/usecase/collateral"
)

type sweeperFunc func(ctx context.Context, batch int) (*collateral.SweepResult, error)

func (f sweeperFunc) SweepOverdue(ctx context.Context, batch int) (*collateral.SweepResult, error) {
	return f(ctx, batch)
}

func TestSweepWorker_RunsUntilCancelled(t *testing.T) {
	var calls atomic.Int32
	s := sweeperFunc(func(ctx context.Context, batch int) (*collateral.SweepResult, error) {
		if batch != 25 {
			t.Errorf("batch = %d", batch)
		}
		if calls.Add(1) == 2 {
			return nil, errors.New("db down")
		}
		return &collateral.SweepResult{Defaulted: []string{"c1"}}, nil
	})
	w := NewSweepWorker(s, 5*time.Millisecond, 25, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d sweeps ran", calls.Load())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
