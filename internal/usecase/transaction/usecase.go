package transaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"lendledger/internal/domain/account"
	"lendledger/internal/domain/collateral"
	"lendledger/internal/domain/events"
	"lendledger/internal/domain/transaction"
	"lendledger/internal/domain/uow"
	"lendledger/internal/infrastructure/metrics"
	"lendledger/pkg/amount"
	"lendledger/pkg/id"
)

type Usecase struct {
	uow            uow.UnitOfWork
	txns           transaction.Repository
	publisher      events.Publisher
	metrics        *metrics.Metrics
	logger         *slog.Logger
	now            func() time.Time
	currency       string
	recordFailures bool
	treasury       bool
}

type Option func(*Usecase)

func WithPublisher(p events.Publisher) Option { return func(u *Usecase) { u.publisher = p } }
func WithMetrics(m *metrics.Metrics) Option   { return func(u *Usecase) { u.metrics = m } }
func WithLogger(l *slog.Logger) Option        { return func(u *Usecase) { u.logger = l } }
func WithClock(now func() time.Time) Option   { return func(u *Usecase) { u.now = now } }
func WithCurrency(c string) Option            { return func(u *Usecase) { u.currency = c } }
func WithFailureRecording(enabled bool) Option {
	return func(u *Usecase) { u.recordFailures = enabled }
}

// WithTreasury mirrors every user entry on the platform treasury account.
func WithTreasury(enabled bool) Option { return func(u *Usecase) { u.treasury = enabled } }

func NewUsecase(w uow.UnitOfWork, txns transaction.Repository, opts ...Option) *Usecase {
	u := &Usecase{
		uow:            w,
		txns:           txns,
		publisher:      events.Nop{},
		logger:         slog.Default(),
		now:            func() time.Time { return time.Now().UTC() },
		currency:       amount.DefaultCurrency,
		recordFailures: true,
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// entry is one row to post against a locked account.
type entry struct {
	typ          transaction.Type
	status       transaction.Status
	amount       decimal.Decimal
	fee          *decimal.Decimal
	collateralID *string
	reversesID   *string
	counterOfID  *string
	reference    string
	description  string
	meta         transaction.Metadata
}

// request is a validated createTransaction call. hook runs with the
// collateral row locked, before the balance moves.
type request struct {
	op          string
	accountID   string
	userID      string
	entry       entry
	requireColl bool
	hook        func(c *collateral.Collateral, e *entry) error
}

func (u *Usecase) Deposit(ctx context.Context, in CreateInput) (*TransactionDTO, error) {
	in.Type = transaction.TypeDeposit
	return u.Create(ctx, in)
}

func (u *Usecase) Withdraw(ctx context.Context, in CreateInput) (*TransactionDTO, error) {
	in.Type = transaction.TypeWithdrawal
	return u.Create(ctx, in)
}

func (u *Usecase) Interest(ctx context.Context, in CreateInput) (*TransactionDTO, error) {
	in.Type = transaction.TypeInterest
	return u.Create(ctx, in)
}

func (u *Usecase) Fee(ctx context.Context, in CreateInput) (*TransactionDTO, error) {
	in.Type = transaction.TypeFee
	return u.Create(ctx, in)
}

func (u *Usecase) Pay(ctx context.Context, in CreateInput) (*TransactionDTO, error) {
	in.Type = transaction.TypePayment
	return u.Create(ctx, in)
}

func (u *Usecase) CreateLoan(ctx context.Context, in CreateInput) (*TransactionDTO, error) {
	in.Type = transaction.TypeLoanDisbursement
	return u.Create(ctx, in)
}

// Create validates and posts one ledger entry. Balance, collateral and
// treasury changes commit together or not at all.
func (u *Usecase) Create(ctx context.Context, in CreateInput) (*TransactionDTO, error) {
	if !in.Type.Valid() {
		return nil, transaction.ErrInvalidType
	}
	if err := validAmount(in.Amount); err != nil {
		return nil, err
	}
	if in.Fee != nil && (in.Fee.IsNegative() || !amount.HasAtMostTwoPlaces(*in.Fee)) {
		return nil, transaction.ErrInvalidAmount
	}
	if in.Type == transaction.TypeLoanDisbursement && in.CollateralID == "" {
		return nil, transaction.ErrCollateralMissing
	}

	req := request{
		op:          "transaction." + string(in.Type),
		accountID:   in.AccountID,
		userID:      in.UserID,
		requireColl: in.CollateralID != "",
		entry: entry{
			typ:         in.Type,
			status:      transaction.StatusCompleted,
			amount:      in.Amount,
			fee:         in.Fee,
			reference:   in.ReferenceNumber,
			description: in.Description,
			meta:        transaction.Metadata{Annotations: in.Annotations},
		},
	}
	if in.CollateralID != "" {
		cid := in.CollateralID
		req.entry.collateralID = &cid
	}
	if req.entry.description == "" {
		req.entry.description = describe(in.Type, in.Amount, u.currency)
	}

	switch in.Type {
	case transaction.TypeLoanDisbursement:
		req.hook = func(c *collateral.Collateral, e *entry) error {
			if err := c.RecordDisbursement(e.amount, u.now()); err != nil {
				return err
			}
			e.meta.Loan = &transaction.LoanTerms{
				LoanLimit: c.LoanLimit,
				Interest:  c.Interest,
				DueDate:   c.DueDate,
				Drawn:     c.LoanAmount,
			}
			return nil
		}
	case transaction.TypePayment:
		req.hook = func(c *collateral.Collateral, e *entry) error {
			_, err := c.RecordPayment(e.amount, u.now())
			return err
		}
	}
	return u.execute(ctx, req)
}

// ExtendLoan charges the extension fee and pushes the collateral due date in
// the same database transaction.
func (u *Usecase) ExtendLoan(ctx context.Context, in ExtendInput) (*TransactionDTO, error) {
	if in.CollateralID == "" {
		return nil, transaction.ErrCollateralMissing
	}
	if in.ExtensionDays <= 0 {
		return nil, fmt.Errorf("extension_days must be positive: %w", transaction.ErrInvalidAmount)
	}
	if err := validAmount(in.Fee); err != nil {
		return nil, err
	}
	cid := in.CollateralID
	desc := in.Description
	if desc == "" {
		desc = fmt.Sprintf("Loan extension fee of %s (%d days)", amount.Display(in.Fee, u.currency), in.ExtensionDays)
	}
	req := request{
		op:          "transaction.extend_loan",
		accountID:   in.AccountID,
		userID:      in.UserID,
		requireColl: true,
		entry: entry{
			typ:          transaction.TypeFee,
			status:       transaction.StatusCompleted,
			amount:       in.Fee,
			collateralID: &cid,
			reference:    in.ReferenceNumber,
			description:  desc,
			meta:         transaction.Metadata{Annotations: in.Annotations},
		},
		hook: func(c *collateral.Collateral, e *entry) error {
			prev, next, err := c.Extend(in.ExtensionDays)
			if err != nil {
				return err
			}
			e.meta.Extension = &transaction.Extension{Days: in.ExtensionDays, PreviousDueDate: prev, NewDueDate: next}
			return nil
		},
	}
	return u.execute(ctx, req)
}

func (u *Usecase) execute(ctx context.Context, req request) (*TransactionDTO, error) {
	start := time.Now()
	defer func() { u.metrics.ObserveOperation(req.op, time.Since(start)) }()

	var (
		posted   *transaction.Transaction
		replayed bool
		snapshot *account.Balance
		before   collateral.Status
		coll     *collateral.Collateral
	)
	err := u.uow.WithinAccountTx(ctx, req.accountID, func(r uow.Repos, acct *account.Account) error {
		if acct.UserID != req.userID {
			return account.ErrOwnerMismatch
		}
		bal := acct.Balance()
		snapshot = &bal

		if ref := req.entry.reference; ref != "" {
			prev, err := r.Transactions.FindByReference(ctx, acct.ID, ref)
			switch {
			case err == nil:
				if prev.Type != req.entry.typ || !prev.Amount.Equal(req.entry.amount) {
					return transaction.ErrReferenceConflict
				}
				posted, replayed = prev, true
				return nil
			case !errors.Is(err, transaction.ErrNotFound):
				return err
			}
		}
		if err := acct.CanTransact(); err != nil {
			return err
		}

		if req.requireColl {
			c, err := r.Collaterals.GetByIDForUpdate(ctx, *req.entry.collateralID)
			if err != nil {
				return err
			}
			if c.UserID != acct.UserID {
				return collateral.ErrOwnerMismatch
			}
			before = c.Status
			if req.hook != nil {
				if err := req.hook(c, &req.entry); err != nil {
					return err
				}
				if err := r.Collaterals.Save(ctx, c); err != nil {
					return err
				}
			}
			coll = c
		}

		tx, err := u.post(ctx, r, acct, req.entry)
		if err != nil {
			return err
		}
		if u.treasury && !acct.IsTreasury() {
			if err := u.mirror(ctx, r, acct, tx); err != nil {
				return err
			}
		}
		posted = tx
		return nil
	})
	if err != nil {
		return nil, u.reject(ctx, req, snapshot, err)
	}

	dto := toDTO(posted, u.currency)
	if replayed {
		dto.Replayed = true
		u.logger.InfoContext(ctx, "transaction replayed", "transaction_id", posted.ID, "reference", posted.ReferenceNumber)
		return &dto, nil
	}

	u.metrics.IncTransaction(string(posted.Type), string(posted.Status))
	u.logger.InfoContext(ctx, "transaction posted",
		"transaction_id", posted.ID, "account_id", posted.AccountID, "type", posted.Type, "amount", posted.Amount.StringFixed(2))
	u.publish(ctx, events.TypeTransactionPosted, posted.AccountID, dto)
	if coll != nil && coll.Status != before {
		u.metrics.IncTransition(string(before), string(coll.Status))
		u.publish(ctx, events.TypeCollateralStatusChanged, coll.ID, events.CollateralStatusChanged{
			CollateralID: coll.ID, UserID: coll.UserID, From: string(before), To: string(coll.Status),
			Reason: "loan repaid",
		})
	}
	return &dto, nil
}

// post snapshots the balances, applies the signed delta and appends the row.
func (u *Usecase) post(ctx context.Context, r uow.Repos, acct *account.Account, e entry) (*transaction.Transaction, error) {
	loan, inv, err := transaction.SignedDelta(e.typ, e.amount)
	if err != nil {
		return nil, err
	}
	if e.status == transaction.StatusReversed {
		loan, inv = loan.Neg(), inv.Neg()
	}
	prev := acct.Balance()
	if err := acct.ApplyDelta(loan, inv); err != nil {
		return nil, err
	}
	if err := r.Accounts.Save(ctx, acct); err != nil {
		return nil, err
	}

	now := u.now()
	tx := &transaction.Transaction{
		ID:                      id.NewID32(),
		AccountID:               acct.ID,
		UserID:                  acct.UserID,
		Type:                    e.typ,
		Status:                  e.status,
		Amount:                  e.amount,
		Fee:                     e.fee,
		CollateralID:            e.collateralID,
		ReversesID:              e.reversesID,
		CounterOfID:             e.counterOfID,
		ReferenceNumber:         e.reference,
		Description:             e.description,
		LoanBalanceBefore:       prev.Loan,
		LoanBalanceAfter:        acct.LoanBalance,
		InvestmentBalanceBefore: prev.Investment,
		InvestmentBalanceAfter:  acct.InvestmentBalance,
		Metadata:                e.meta,
		CreatedAt:               now,
		ProcessedAt:             &now,
	}
	if err := r.Transactions.Create(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// mirror posts the treasury counter-entry for a user entry.
func (u *Usecase) mirror(ctx context.Context, r uow.Repos, acct *account.Account, userTx *transaction.Transaction) error {
	ct, ok := transaction.CounterType(userTx.Type)
	if !ok {
		return transaction.ErrInvalidType
	}
	treasury, err := r.Accounts.GetTreasuryForUpdate(ctx)
	if err != nil {
		return fmt.Errorf("treasury: %w", err)
	}
	_, err = u.post(ctx, r, treasury, entry{
		typ:          ct,
		status:       userTx.Status,
		amount:       userTx.Amount,
		collateralID: userTx.CollateralID,
		counterOfID:  &userTx.ID,
		description:  fmt.Sprintf("Counter-entry for %s on %s", userTx.Type, acct.AccountNumber),
		meta: transaction.Metadata{Counterparty: &transaction.Counterparty{
			AccountID: acct.ID, UserID: acct.UserID, Type: userTx.Type,
		}},
	})
	if err != nil {
		return fmt.Errorf("treasury: %w", err)
	}
	return nil
}

// recordable lists the business rejections that leave a failed audit row.
var recordable = []error{
	account.ErrAccountClosed,
	account.ErrAccountInactive,
	account.ErrInsufficientFunds,
	collateral.ErrLoanLimitExceeded,
	collateral.ErrNotApproved,
	collateral.ErrInvalidTransition,
	collateral.ErrOverpayment,
}

func isRecordable(err error) bool {
	for _, target := range recordable {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// reject writes the failed audit row outside the rolled-back transaction.
func (u *Usecase) reject(ctx context.Context, req request, snapshot *account.Balance, cause error) error {
	if !u.recordFailures || snapshot == nil || !isRecordable(cause) {
		u.logger.InfoContext(ctx, "transaction refused", "account_id", req.accountID, "type", req.entry.typ, "err", cause)
		return cause
	}
	now := u.now()
	e := req.entry
	failed := &transaction.Transaction{
		ID:                      id.NewID32(),
		AccountID:               req.accountID,
		UserID:                  req.userID,
		Type:                    e.typ,
		Status:                  transaction.StatusFailed,
		Amount:                  e.amount,
		Fee:                     e.fee,
		CollateralID:            e.collateralID,
		ReferenceNumber:         e.reference,
		Description:             e.description,
		LoanBalanceBefore:       snapshot.Loan,
		LoanBalanceAfter:        snapshot.Loan,
		InvestmentBalanceBefore: snapshot.Investment,
		InvestmentBalanceAfter:  snapshot.Investment,
		Metadata:                e.meta,
		FailureReason:           cause.Error(),
		CreatedAt:               now,
		FailedAt:                &now,
	}
	if err := u.txns.Create(ctx, failed); err != nil {
		u.logger.ErrorContext(ctx, "record failed transaction", "account_id", req.accountID, "err", err)
		return cause
	}
	u.metrics.IncTransaction(string(e.typ), string(transaction.StatusFailed))
	u.logger.InfoContext(ctx, "transaction rejected",
		"transaction_id", failed.ID, "account_id", req.accountID, "type", e.typ, "reason", failed.FailureReason)
	u.publish(ctx, events.TypeTransactionFailed, req.accountID, toDTO(failed, u.currency))
	return &RejectedError{TransactionID: failed.ID, Err: cause}
}

// Reverse posts a compensating entry with the negated delta. The treasury
// counter-entry and the collateral totals are corrected in the same unit.
func (u *Usecase) Reverse(ctx context.Context, in ReverseInput) (*TransactionDTO, error) {
	start := time.Now()
	defer func() { u.metrics.ObserveOperation("transaction.reverse", time.Since(start)) }()

	orig, err := u.txns.GetByID(ctx, in.TransactionID)
	if err != nil {
		return nil, err
	}
	if orig.Status != transaction.StatusCompleted || orig.CounterOfID != nil {
		return nil, transaction.ErrNotReversible
	}

	var rev *transaction.Transaction
	err = u.uow.WithinAccountTx(ctx, orig.AccountID, func(r uow.Repos, acct *account.Account) error {
		if _, err := r.Transactions.FindReversalOf(ctx, orig.ID); err == nil {
			return transaction.ErrAlreadyReversed
		} else if !errors.Is(err, transaction.ErrNotFound) {
			return err
		}

		if orig.CollateralID != nil && (orig.Type == transaction.TypeLoanDisbursement || orig.Type == transaction.TypePayment) {
			c, err := r.Collaterals.GetByIDForUpdate(ctx, *orig.CollateralID)
			if err != nil {
				return err
			}
			if orig.Type == transaction.TypeLoanDisbursement {
				err = c.ReverseDisbursement(orig.Amount)
			} else {
				err = c.ReversePayment(orig.Amount)
			}
			if err != nil {
				return err
			}
			if err := r.Collaterals.Save(ctx, c); err != nil {
				return err
			}
		}

		tx, err := u.post(ctx, r, acct, entry{
			typ:          orig.Type,
			status:       transaction.StatusReversed,
			amount:       orig.Amount,
			collateralID: orig.CollateralID,
			reversesID:   &orig.ID,
			description:  "Reversal of " + orig.ID,
			meta:         transaction.Metadata{Reversal: &transaction.Reversal{Reason: in.Reason}},
		})
		if err != nil {
			return err
		}

		counter, err := r.Transactions.FindCounterOf(ctx, orig.ID)
		switch {
		case err == nil:
			if err := u.reverseCounter(ctx, r, counter, tx, in.Reason); err != nil {
				return err
			}
		case !errors.Is(err, transaction.ErrNotFound):
			return err
		}
		rev = tx
		return nil
	})
	if err != nil {
		u.logger.InfoContext(ctx, "reversal refused", "transaction_id", orig.ID, "err", err)
		return nil, err
	}

	dto := toDTO(rev, u.currency)
	u.metrics.IncTransaction(string(rev.Type), string(rev.Status))
	u.logger.InfoContext(ctx, "transaction reversed", "transaction_id", rev.ID, "reverses_id", orig.ID)
	u.publish(ctx, events.TypeTransactionPosted, rev.AccountID, dto)
	return &dto, nil
}

func (u *Usecase) reverseCounter(ctx context.Context, r uow.Repos, counter, userRev *transaction.Transaction, reason string) error {
	treasury, err := r.Accounts.GetTreasuryForUpdate(ctx)
	if err != nil {
		return fmt.Errorf("treasury: %w", err)
	}
	if treasury.ID != counter.AccountID {
		return fmt.Errorf("treasury: counter-entry %s is on another account: %w", counter.ID, transaction.ErrNotReversible)
	}
	_, err = u.post(ctx, r, treasury, entry{
		typ:          counter.Type,
		status:       transaction.StatusReversed,
		amount:       counter.Amount,
		collateralID: counter.CollateralID,
		reversesID:   &counter.ID,
		counterOfID:  &userRev.ID,
		description:  "Reversal of " + counter.ID,
		meta: transaction.Metadata{
			Reversal:     &transaction.Reversal{Reason: reason},
			Counterparty: counter.Metadata.Counterparty,
		},
	})
	if err != nil {
		return fmt.Errorf("treasury: %w", err)
	}
	return nil
}

func (u *Usecase) publish(ctx context.Context, typ, key string, payload any) {
	if err := u.publisher.Publish(ctx, events.Event{Type: typ, Key: key, Payload: payload}); err != nil {
		u.metrics.IncPublishFailure(typ)
		u.logger.ErrorContext(ctx, "publish event", "type", typ, "key", key, "err", err)
	}
}

func validAmount(v decimal.Decimal) error {
	if !v.IsPositive() || !amount.HasAtMostTwoPlaces(v) {
		return transaction.ErrInvalidAmount
	}
	return nil
}
