package collateral

import (
	"context"
	"errors"
	"time"

	"lendledger/internal/domain/collateral"
	"lendledger/internal/domain/uow"
)

const defaultSweepBatch = 500

// SweepOverdue defaults approved items whose due date has passed with
// principal still owed. Each item is handled in its own transaction.
func (u *Usecase) SweepOverdue(ctx context.Context, batch int) (*SweepResult, error) {
	start := time.Now()
	defer func() { u.metrics.ObserveOperation("collateral.sweep", time.Since(start)) }()
	if batch <= 0 {
		batch = defaultSweepBatch
	}

	now := u.now()
	due, err := u.collaterals.ListOverdue(ctx, now, batch)
	if err != nil {
		return nil, err
	}
	res := &SweepResult{Scanned: len(due), Defaulted: []string{}}
	for i := range due {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		cid := due[i].ID
		var out *collateral.Collateral
		err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
			c, err := r.Collaterals.GetByIDForUpdate(ctx, cid)
			if err != nil {
				return err
			}
			if err := c.MarkDefaulted(now); err != nil {
				return err
			}
			out = c
			return r.Collaterals.Save(ctx, c)
		})
		switch {
		case errors.Is(err, collateral.ErrInvalidTransition):
			// repaid in full or already moved on
			res.Skipped++
		case err != nil:
			res.Errors++
			u.logger.ErrorContext(ctx, "default collateral", "collateral_id", cid, "err", err)
		default:
			res.Defaulted = append(res.Defaulted, cid)
			u.statusChanged(ctx, out, collateral.StatusApproved, "due date elapsed")
		}
	}
	u.metrics.AddSweepDefaults(len(res.Defaulted))
	u.logger.InfoContext(ctx, "sweep finished", "scanned", res.Scanned, "defaulted", len(res.Defaulted), "skipped", res.Skipped, "errors", res.Errors)
	return res, nil
}
