package transaction

import (
	"context"

	"github.com/shopspring/decimal"

	"lendledger/internal/domain/transaction"
	"lendledger/internal/usecase/paging"
	"lendledger/pkg/amount"
)

func (u *Usecase) Get(ctx context.Context, txID string) (*TransactionDTO, error) {
	t, err := u.txns.GetByID(ctx, txID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(t, u.currency)
	return &dto, nil
}

func (u *Usecase) List(ctx context.Context, in ListInput) (*paging.Result[TransactionDTO], error) {
	if in.Type != "" && !in.Type.Valid() {
		return nil, transaction.ErrInvalidType
	}
	p, err := in.Page.Normalize()
	if err != nil {
		return nil, err
	}
	list, total, err := u.txns.List(ctx, transaction.Filter{
		AccountID:    in.AccountID,
		UserID:       in.UserID,
		CollateralID: in.CollateralID,
		Type:         in.Type,
		Status:       in.Status,
		From:         in.From,
		To:           in.To,
		Offset:       p.Offset(),
		Limit:        p.PageSize,
	})
	if err != nil {
		return nil, err
	}
	items := paging.Map(list, func(t *transaction.Transaction) TransactionDTO { return toDTO(t, u.currency) })
	return paging.NewResult(items, total, p), nil
}

func (u *Usecase) ListByAccount(ctx context.Context, accountID string, page paging.Request) (*paging.Result[TransactionDTO], error) {
	return u.List(ctx, ListInput{AccountID: accountID, Page: page})
}

func (u *Usecase) ListByUser(ctx context.Context, userID string, page paging.Request) (*paging.Result[TransactionDTO], error) {
	return u.List(ctx, ListInput{UserID: userID, Page: page})
}

// Summary aggregates a user's entries by type and status.
func (u *Usecase) Summary(ctx context.Context, userID string) (*SummaryDTO, error) {
	rows, err := u.txns.Summarize(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &SummaryDTO{
		UserID:     userID,
		Buckets:    make([]SummaryBucket, 0, len(rows)),
		Net:        map[string]string{},
		NetDisplay: map[string]string{},
	}
	net := map[transaction.Type]decimal.Decimal{}
	for _, r := range rows {
		out.Buckets = append(out.Buckets, SummaryBucket{
			Type: string(r.Type), Status: string(r.Status), Count: r.Count, Total: r.Total.StringFixed(2),
		})
		out.TotalCount += r.Count
		switch r.Status {
		case transaction.StatusCompleted:
			net[r.Type] = net[r.Type].Add(r.Total)
		case transaction.StatusReversed:
			net[r.Type] = net[r.Type].Sub(r.Total)
		}
	}
	for t, v := range net {
		out.Net[string(t)] = v.StringFixed(2)
		out.NetDisplay[string(t)] = amount.Display(v, u.currency)
	}
	return out, nil
}
