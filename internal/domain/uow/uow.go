package uow

import (
	"context"

	"lendledger/internal/domain/account"
	"lendledger/internal/domain/collateral"
	"lendledger/internal/domain/transaction"
	"lendledger/internal/domain/user"
)

// Repos are bound to the same database transaction.
type Repos struct {
	Users        user.Repository
	Accounts     account.Repository
	Collaterals  collateral.Repository
	Transactions transaction.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the account row first, then pass it in
	WithinAccountTx(ctx context.Context, accountID string, fn func(r Repos, a *account.Account) error) error
}
