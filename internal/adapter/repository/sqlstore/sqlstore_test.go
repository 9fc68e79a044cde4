package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"lendledger/internal/domain/account"
	"lendledger/internal/domain/collateral"
	"lendledger/internal/domain/transaction"
	"lendledger/internal/domain/uow"
	"lendledger/internal/domain/user"
	"lendledger/internal/testutil/sqlitedb"
	"lendledger/pkg/id"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return sqlitedb.Open(t, Models()...)
}

func seedAccount(t *testing.T, db *gorm.DB, number string, inv string) (*user.User, *account.Account) {
	t.Helper()
	ctx := context.Background()
	u := &user.User{ID: id.NewID32(), Email: id.NewID32() + "@x.io", Username: id.NewID32(), Role: user.RoleUser, Status: user.StatusActive}
	if err := NewUserRepository(db).Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	a := &account.Account{
		ID: id.NewID32(), UserID: u.ID, AccountNumber: number, Status: account.StatusActive,
		LoanBalance: decimal.Zero, InvestmentBalance: decimal.RequireFromString(inv),
	}
	if err := NewAccountRepository(db).Create(ctx, a); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return u, a
}

func TestUserRepository_DuplicateAndNotFound(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &user.User{ID: id.NewID32(), Email: "a@x.io", Username: "alice", Role: user.RoleUser, Status: user.StatusPendingVerification}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := &user.User{ID: id.NewID32(), Email: "a@x.io", Username: "alice2"}
	if err := repo.Create(ctx, dup); !errors.Is(err, user.ErrAlreadyExists) {
		t.Fatalf("duplicate email: %v", err)
	}
	if _, err := repo.GetByID(ctx, id.NewID32()); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("missing: %v", err)
	}
	list, total, err := repo.List(ctx, user.Filter{Status: user.StatusPendingVerification, Limit: 10})
	if err != nil || total != 1 || len(list) != 1 || list[0].Username != "alice" {
		t.Fatalf("list = %v %d %v", list, total, err)
	}
}

func TestAccountRepository_OnePerUserAndDecimals(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u, a := seedAccount(t, db, "ACC1", "1250.55")
	repo := NewAccountRepository(db)

	second := &account.Account{ID: id.NewID32(), UserID: u.ID, AccountNumber: "ACC2", Status: account.StatusActive}
	if err := repo.Create(ctx, second); !errors.Is(err, account.ErrAlreadyExists) {
		t.Fatalf("second account: %v", err)
	}

	got, err := repo.GetByUserID(ctx, u.ID)
	if err != nil {
		t.Fatalf("by user: %v", err)
	}
	if !got.InvestmentBalance.Equal(decimal.RequireFromString("1250.55")) {
		t.Fatalf("balance round trip = %s", got.InvestmentBalance)
	}
	if _, err := repo.GetByNumber(ctx, "ACC1"); err != nil {
		t.Fatalf("by number: %v", err)
	}
	if _, err := repo.GetByIDForUpdate(ctx, a.ID); err != nil {
		t.Fatalf("for update: %v", err)
	}
	if _, err := repo.GetTreasuryForUpdate(ctx); !errors.Is(err, account.ErrTreasuryNotFound) {
		t.Fatalf("treasury missing: %v", err)
	}
	seedAccount(t, db, "ORG123", "0")
	org, err := repo.GetTreasuryForUpdate(ctx)
	if err != nil || !org.IsTreasury() {
		t.Fatalf("treasury: %v %v", org, err)
	}
}

func TestTransactionRepository_AppendOnly(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, a := seedAccount(t, db, "ACC1", "0")
	repo := NewTransactionRepository(db)

	now := time.Now().UTC()
	tx := &transaction.Transaction{
		ID: id.NewID32(), AccountID: a.ID, UserID: a.UserID, Type: transaction.TypeDeposit,
		Status: transaction.StatusCompleted, Amount: decimal.NewFromInt(500), ReferenceNumber: "REF-1",
		InvestmentBalanceBefore: decimal.Zero, InvestmentBalanceAfter: decimal.NewFromInt(500),
		LoanBalanceBefore: decimal.Zero, LoanBalanceAfter: decimal.Zero,
		Metadata:    transaction.Metadata{Annotations: map[string]string{"channel": "mobile"}},
		ProcessedAt: &now,
	}
	if err := repo.Create(ctx, tx); err != nil {
		t.Fatalf("create: %v", err)
	}

	tx.Amount = decimal.NewFromInt(1)
	if err := db.Save(tx).Error; !errors.Is(err, transaction.ErrImmutable) {
		t.Fatalf("update must be rejected: %v", err)
	}
	if err := db.Delete(tx).Error; !errors.Is(err, transaction.ErrImmutable) {
		t.Fatalf("delete must be rejected: %v", err)
	}

	got, err := repo.FindByReference(ctx, a.ID, "REF-1")
	if err != nil {
		t.Fatalf("by reference: %v", err)
	}
	if !got.Amount.Equal(decimal.NewFromInt(500)) || got.Metadata.Annotations["channel"] != "mobile" {
		t.Fatalf("round trip = %+v", got)
	}
	if _, err := repo.FindByReference(ctx, a.ID, "REF-2"); !errors.Is(err, transaction.ErrNotFound) {
		t.Fatalf("missing reference: %v", err)
	}
}

func TestTransactionRepository_OneReversalPerEntry(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, a := seedAccount(t, db, "ACC1", "0")
	repo := NewTransactionRepository(db)
	orig := id.NewID32()

	mk := func() *transaction.Transaction {
		return &transaction.Transaction{
			ID: id.NewID32(), AccountID: a.ID, UserID: a.UserID, Type: transaction.TypeDeposit,
			Status: transaction.StatusReversed, Amount: decimal.NewFromInt(5), ReversesID: &orig,
		}
	}
	if err := repo.Create(ctx, mk()); err != nil {
		t.Fatalf("first reversal: %v", err)
	}
	if err := repo.Create(ctx, mk()); !errors.Is(err, transaction.ErrAlreadyReversed) {
		t.Fatalf("second reversal: %v", err)
	}
	if _, err := repo.FindReversalOf(ctx, orig); err != nil {
		t.Fatalf("find reversal: %v", err)
	}
}

func TestTransactionRepository_ListAndSummarize(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, a := seedAccount(t, db, "ACC1", "0")
	repo := NewTransactionRepository(db)

	add := func(typ transaction.Type, status transaction.Status, amt int64) {
		err := repo.Create(ctx, &transaction.Transaction{
			ID: id.NewID32(), AccountID: a.ID, UserID: a.UserID, Type: typ, Status: status, Amount: decimal.NewFromInt(amt),
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	add(transaction.TypeDeposit, transaction.StatusCompleted, 100)
	add(transaction.TypeDeposit, transaction.StatusCompleted, 50)
	add(transaction.TypeWithdrawal, transaction.StatusFailed, 500)

	list, total, err := repo.List(ctx, transaction.Filter{AccountID: a.ID, Type: transaction.TypeDeposit, Limit: 1})
	if err != nil || total != 2 || len(list) != 1 {
		t.Fatalf("list = %d items, total %d, err %v", len(list), total, err)
	}

	rows, err := repo.Summarize(ctx, a.UserID)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	dep := rows[0]
	if dep.Type != transaction.TypeDeposit || dep.Count != 2 || !dep.Total.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("deposit bucket = %+v", dep)
	}
}

func TestCollateralRepository_Overdue(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u, _ := seedAccount(t, db, "ACC1", "0")
	repo := NewCollateralRepository(db)
	now := time.Now().UTC()

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	mk := func(status collateral.Status, due *time.Time, loan, repaid string) *collateral.Collateral {
		c := &collateral.Collateral{
			ID: id.NewID32(), UserID: u.ID, Name: "item", Status: status, DueDate: due,
			LoanLimit: decimal.RequireFromString("500"), LoanAmount: decimal.RequireFromString(loan),
			AmountRepaid: decimal.RequireFromString(repaid),
			ImagePaths:   []string{"local://a.jpg"},
			Metadata:     collateral.Metadata{Review: &collateral.Review{Note: "ok", ReviewedAt: now}},
		}
		if err := repo.Create(ctx, c); err != nil {
			t.Fatalf("create: %v", err)
		}
		return c
	}
	longAgo := now.AddDate(0, 0, -30)
	mk(collateral.StatusApproved, &longAgo, "0", "0")   // never drawn
	mk(collateral.StatusApproved, &longAgo, "80", "80") // repaid
	overdue := mk(collateral.StatusApproved, &past, "50", "10")
	mk(collateral.StatusApproved, &future, "50", "0")
	mk(collateral.StatusReleased, &past, "50", "50")

	got, err := repo.ListOverdue(ctx, now, 10)
	if err != nil {
		t.Fatalf("overdue: %v", err)
	}
	if len(got) != 1 || got[0].ID != overdue.ID {
		t.Fatalf("overdue = %+v", got)
	}
	if len(got[0].ImagePaths) != 1 || got[0].Metadata.Review == nil {
		t.Fatalf("json columns lost: %+v", got[0])
	}

	list, total, err := repo.List(ctx, collateral.Filter{UserID: u.ID, Status: collateral.StatusApproved, Limit: 20})
	if err != nil || total != 4 || len(list) != 4 {
		t.Fatalf("list = %d/%d %v", len(list), total, err)
	}
}

func TestGormUoW_RollbackAndLock(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, a := seedAccount(t, db, "ACC1", "100")
	u := NewGormUoW(db)

	boom := errors.New("boom")
	err := u.WithinAccountTx(ctx, a.ID, func(r uow.Repos, locked *account.Account) error {
		locked.InvestmentBalance = decimal.NewFromInt(1)
		if err := r.Accounts.Save(ctx, locked); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	got, _ := NewAccountRepository(db).GetByID(ctx, a.ID)
	if !got.InvestmentBalance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("rollback failed, balance = %s", got.InvestmentBalance)
	}

	err = u.WithinAccountTx(ctx, id.NewID32(), func(uow.Repos, *account.Account) error { return nil })
	if !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("missing account: %v", err)
	}

	err = u.WithinTx(ctx, func(r uow.Repos) error {
		acc, err := r.Accounts.GetByID(ctx, a.ID)
		if err != nil {
			return err
		}
		acc.Status = account.StatusFrozen
		return r.Accounts.Save(ctx, acc)
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	got, _ = Repos(db).Accounts.GetByID(ctx, a.ID)
	if got.Status != account.StatusFrozen {
		t.Fatalf("status = %s", got.Status)
	}
}
