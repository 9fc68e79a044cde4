package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lendledger/internal/domain/account"
	"lendledger/internal/domain/uow"
)

// openMySQLMock runs gorm's MySQL dialect over sqlmock so the generated
// locking SQL can be asserted.
func openMySQLMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	return gdb, mock
}

func accountRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "account_number", "status", "loan_balance", "investment_balance"}).
		AddRow("a1", "u1", "ACC-1", "active", "0.00", "100.00")
}

func TestWithinAccountTx_LocksRowForUpdate(t *testing.T) {
	gdb, mock := openMySQLMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `accounts` WHERE id = \\?.*FOR UPDATE").
		WillReturnRows(accountRows())
	mock.ExpectCommit()

	var got *account.Account
	err := NewGormUoW(gdb).WithinAccountTx(context.Background(), "a1", func(_ uow.Repos, a *account.Account) error {
		got = a
		return nil
	})
	if err != nil {
		t.Fatalf("WithinAccountTx: %v", err)
	}
	if got == nil || got.AccountNumber != "ACC-1" || got.InvestmentBalance.StringFixed(2) != "100.00" {
		t.Fatalf("unexpected locked account: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestWithinAccountTx_RollsBackOnError(t *testing.T) {
	gdb, mock := openMySQLMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(accountRows())
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := NewGormUoW(gdb).WithinAccountTx(context.Background(), "a1", func(uow.Repos, *account.Account) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestWithinAccountTx_MissingAccount(t *testing.T) {
	gdb, mock := openMySQLMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectRollback()

	called := false
	err := NewGormUoW(gdb).WithinAccountTx(context.Background(), "nope", func(uow.Repos, *account.Account) error {
		called = true
		return nil
	})
	if !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if called {
		t.Fatal("callback must not run without a locked account")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetTreasuryForUpdate_OldestOrgAccount(t *testing.T) {
	gdb, mock := openMySQLMock(t)

	mock.ExpectQuery("WHERE account_number LIKE \\? ORDER BY created_at ASC.*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_number"}).AddRow("t1", account.TreasuryPrefix+"-1"))

	got, err := NewAccountRepository(gdb).GetTreasuryForUpdate(context.Background())
	if err != nil {
		t.Fatalf("GetTreasuryForUpdate: %v", err)
	}
	if got.ID != "t1" {
		t.Fatalf("got %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
