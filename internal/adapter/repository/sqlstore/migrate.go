package sqlstore

import (
	"lendledger/internal/domain/account"
	"lendledger/internal/domain/collateral"
	"lendledger/internal/domain/transaction"
	"lendledger/internal/domain/user"

	"gorm.io/gorm"
)

// Models lists every persisted entity in dependency order.
func Models() []any {
	return []any{&user.User{}, &account.Account{}, &collateral.Collateral{}, &transaction.Transaction{}}
}

func Migrate(db *gorm.DB) error { return db.AutoMigrate(Models()...) }
