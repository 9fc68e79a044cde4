package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"lendledger/internal/domain/transaction"
	ucTransaction "lendledger/internal/usecase/transaction"
)

type TransactionHandler struct{ uc *ucTransaction.Usecase }

func NewTransactionHandler(uc *ucTransaction.Usecase) *TransactionHandler {
	return &TransactionHandler{uc: uc}
}

// Fields shared by every posting request.
type postingReq struct {
	AccountID       string            `json:"account_id"       validate:"required,hex32"`
	UserID          string            `json:"user_id"          validate:"omitempty,hex32"`
	Description     string            `json:"description"      validate:"max=255"`
	ReferenceNumber string            `json:"reference_number" validate:"max=100"`
	Metadata        map[string]string `json:"metadata"`
}

type createTxReq struct {
	postingReq
	Type         string           `json:"transaction_type" validate:"required,oneof=deposit withdrawal interest loan_disbursement payment fee"`
	Amount       decimal.Decimal  `json:"amount"           validate:"required,gt=0,dec2"`
	Fee          *decimal.Decimal `json:"fee"              validate:"omitempty,gte=0,dec2"`
	CollateralID string           `json:"collateral_id"    validate:"omitempty,hex32"`
}

type amountReq struct {
	postingReq
	Amount       decimal.Decimal  `json:"amount"        validate:"required,gt=0,dec2"`
	Fee          *decimal.Decimal `json:"fee"           validate:"omitempty,gte=0,dec2"`
	CollateralID string           `json:"collateral_id" validate:"omitempty,hex32"`
}

type createLoanReq struct {
	postingReq
	CollateralID string          `json:"collateral_id" validate:"required,hex32"`
	LoanAmount   decimal.Decimal `json:"loan_amount"   validate:"required,gt=0,dec2"`
}

type extendLoanReq struct {
	postingReq
	CollateralID  string          `json:"collateral_id"  validate:"required,hex32"`
	ExtensionDays int             `json:"extension_days" validate:"required,gte=1,lte=3650"`
	Fee           decimal.Decimal `json:"fee"            validate:"required,gt=0,dec2"`
}

type reverseReq struct {
	Reason string `json:"reason" validate:"required,max=255"`
}

// staffOnly are entries the platform books on a user's account.
var staffOnly = map[transaction.Type]bool{
	transaction.TypeInterest: true,
	transaction.TypeFee:      true,
}

func (p postingReq) input(c echo.Context, typ transaction.Type, amt decimal.Decimal) ucTransaction.CreateInput {
	return ucTransaction.CreateInput{
		AccountID:       p.AccountID,
		UserID:          ownerOr(c, p.UserID),
		Type:            typ,
		Amount:          amt,
		Description:     p.Description,
		ReferenceNumber: p.ReferenceNumber,
		Annotations:     p.Metadata,
	}
}

// post authorizes the caller for in and writes the result; replays of a
// known reference answer 200 instead of 201.
func (h *TransactionHandler) post(c echo.Context, in ucTransaction.CreateInput, fn func(context.Context, ucTransaction.CreateInput) (*ucTransaction.TransactionDTO, error)) error {
	if in.UserID == "" {
		return missingField(c, "user_id")
	}
	if err := h.authorize(c, in.Type, in.UserID); err != nil {
		return respondError(c, err)
	}
	dto, err := fn(c.Request().Context(), in)
	return h.written(c, dto, err)
}

func (h *TransactionHandler) authorize(c echo.Context, typ transaction.Type, userID string) error {
	if staffOnly[typ] {
		return requireStaff(c)
	}
	return requireSelf(c, userID)
}

func (h *TransactionHandler) written(c echo.Context, dto *ucTransaction.TransactionDTO, err error) error {
	if err != nil {
		return respondError(c, err)
	}
	if dto.Replayed {
		return c.JSON(http.StatusOK, dto)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *TransactionHandler) Create(c echo.Context) error {
	var req createTxReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	in := req.input(c, transaction.Type(req.Type), req.Amount)
	in.Fee = req.Fee
	in.CollateralID = req.CollateralID
	return h.post(c, in, h.uc.Create)
}

// typed builds the handler for a single-type endpoint.
func (h *TransactionHandler) typed(typ transaction.Type, fn func(context.Context, ucTransaction.CreateInput) (*ucTransaction.TransactionDTO, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req amountReq
		if ok, err := bindValid(c, &req); !ok {
			return err
		}
		in := req.input(c, typ, req.Amount)
		in.Fee = req.Fee
		in.CollateralID = req.CollateralID
		return h.post(c, in, fn)
	}
}

func (h *TransactionHandler) Deposit(c echo.Context) error {
	return h.typed(transaction.TypeDeposit, h.uc.Deposit)(c)
}

func (h *TransactionHandler) Withdraw(c echo.Context) error {
	return h.typed(transaction.TypeWithdrawal, h.uc.Withdraw)(c)
}

func (h *TransactionHandler) Pay(c echo.Context) error {
	return h.typed(transaction.TypePayment, h.uc.Pay)(c)
}

func (h *TransactionHandler) Interest(c echo.Context) error {
	return h.typed(transaction.TypeInterest, h.uc.Interest)(c)
}

func (h *TransactionHandler) Fee(c echo.Context) error {
	return h.typed(transaction.TypeFee, h.uc.Fee)(c)
}

func (h *TransactionHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	in := req.input(c, transaction.TypeLoanDisbursement, req.LoanAmount)
	in.CollateralID = req.CollateralID
	return h.post(c, in, h.uc.CreateLoan)
}

func (h *TransactionHandler) ExtendLoan(c echo.Context) error {
	var req extendLoanReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	userID := ownerOr(c, req.UserID)
	if userID == "" {
		return missingField(c, "user_id")
	}
	if err := requireSelf(c, userID); err != nil {
		return respondError(c, err)
	}
	dto, err := h.uc.ExtendLoan(c.Request().Context(), ucTransaction.ExtendInput{
		AccountID:       req.AccountID,
		UserID:          userID,
		CollateralID:    req.CollateralID,
		ExtensionDays:   req.ExtensionDays,
		Fee:             req.Fee,
		Description:     req.Description,
		ReferenceNumber: req.ReferenceNumber,
		Annotations:     req.Metadata,
	})
	return h.written(c, dto, err)
}

func (h *TransactionHandler) Reverse(c echo.Context) error {
	if err := requireStaff(c); err != nil {
		return respondError(c, err)
	}
	var req reverseReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Reverse(c.Request().Context(), ucTransaction.ReverseInput{TransactionID: c.Param("id"), Reason: req.Reason})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *TransactionHandler) Get(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if err := requireSelf(c, dto.UserID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type listTxQuery struct {
	pageQuery
	AccountID    string `query:"account_id"`
	UserID       string `query:"user_id"`
	CollateralID string `query:"collateral_id"`
	Type         string `query:"type"`
	Status       string `query:"status"`
	From         string `query:"from"`
	To           string `query:"to"`
}

func (h *TransactionHandler) List(c echo.Context) error {
	var q listTxQuery
	if err := bindQuery(c, &q); err != nil {
		return respondError(c, err)
	}
	return h.list(c, q)
}

func (h *TransactionHandler) ListByAccount(c echo.Context) error {
	var q listTxQuery
	if err := bindQuery(c, &q); err != nil {
		return respondError(c, err)
	}
	q.AccountID = c.Param("account_id")
	return h.list(c, q)
}

func (h *TransactionHandler) ListByUser(c echo.Context) error {
	var q listTxQuery
	if err := bindQuery(c, &q); err != nil {
		return respondError(c, err)
	}
	q.UserID = c.Param("user_id")
	if err := requireSelf(c, q.UserID); err != nil {
		return respondError(c, err)
	}
	return h.list(c, q)
}

// list scopes non-staff callers to their own entries.
func (h *TransactionHandler) list(c echo.Context, q listTxQuery) error {
	if requireStaff(c) != nil {
		p, err := caller(c)
		if err != nil {
			return respondError(c, err)
		}
		if q.UserID != "" && q.UserID != p.UserID {
			return respondError(c, ErrForbidden)
		}
		q.UserID = p.UserID
	}
	in := ucTransaction.ListInput{
		AccountID:    q.AccountID,
		UserID:       q.UserID,
		CollateralID: q.CollateralID,
		Type:         transaction.Type(q.Type),
		Status:       transaction.Status(q.Status),
		Page:         q.request(),
	}
	if q.Status != "" && !in.Status.Valid() {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: []FieldError{{Field: "status", Message: "unknown status"}}})
	}
	for field, raw := range map[string]string{"from": q.From, "to": q.To} {
		if raw == "" {
			continue
		}
		t, err := parseDate(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: []FieldError{{Field: field, Message: "must be YYYY-MM-DD or RFC3339"}}})
		}
		if field == "from" {
			in.From = &t
		} else {
			in.To = &t
		}
	}
	res, err := h.uc.List(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *TransactionHandler) Summary(c echo.Context) error {
	userID := c.Param("user_id")
	if err := requireSelf(c, userID); err != nil {
		return respondError(c, err)
	}
	dto, err := h.uc.Summary(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
