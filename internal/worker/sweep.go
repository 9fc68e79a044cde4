package worker

import (
	"context"
	"log/slog"
	"time"

	"lendledger/internal/usecase/collateral"
)

type Sweeper interface {
	SweepOverdue(ctx context.Context, batch int) (*collateral.SweepResult, error)
}

// SweepWorker runs the default sweep on a fixed interval until ctx ends.
type SweepWorker struct {
	sweeper  Sweeper
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

func NewSweepWorker(s Sweeper, interval time.Duration, batch int, logger *slog.Logger) *SweepWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SweepWorker{sweeper: s, interval: interval, batch: batch, logger: logger.With("worker", "sweep")}
}

// Run sweeps once immediately, then on every tick.
func (w *SweepWorker) Run(ctx context.Context) {
	w.logger.Info("worker started", "interval", w.interval.String())
	w.tick(ctx)

	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped")
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *SweepWorker) tick(ctx context.Context) {
	res, err := w.sweeper.SweepOverdue(ctx, w.batch)
	if err != nil {
		w.logger.Error("sweep failed", "err", err)
		return
	}
	if len(res.Defaulted) > 0 {
		w.logger.Info("loans defaulted", "count", len(res.Defaulted), "ids", res.Defaulted)
	}
}
