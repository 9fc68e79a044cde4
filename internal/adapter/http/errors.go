package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"lendledger/internal/domain/account"
	"lendledger/internal/domain/collateral"
	"lendledger/internal/domain/transaction"
	"lendledger/internal/domain/user"
	"lendledger/internal/domain/valuation"
	ucCollateral "lendledger/internal/usecase/collateral"
	"lendledger/internal/usecase/paging"
	ucTransaction "lendledger/internal/usecase/transaction"
)

var (
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("not allowed for this caller")
	ErrInvalidQuery = errors.New("invalid query parameters")
)

var statusByErr = []struct {
	err  error
	code int
}{
	// validation
	{paging.ErrInvalidPage, http.StatusBadRequest},
	{ErrInvalidQuery, http.StatusBadRequest},
	{transaction.ErrInvalidType, http.StatusBadRequest},
	{transaction.ErrInvalidAmount, http.StatusBadRequest},
	{transaction.ErrCollateralMissing, http.StatusBadRequest},
	{account.ErrOwnerMismatch, http.StatusBadRequest},
	{account.ErrInvalidStatus, http.StatusBadRequest},
	{collateral.ErrOwnerMismatch, http.StatusBadRequest},
	{collateral.ErrInvalidStatus, http.StatusBadRequest},
	{collateral.ErrInvalidDetails, http.StatusBadRequest},
	{collateral.ErrInvalidTerms, http.StatusBadRequest},
	{collateral.ErrInvalidImage, http.StatusBadRequest},
	{user.ErrInvalidRole, http.StatusBadRequest},
	{user.ErrInvalidStatus, http.StatusBadRequest},

	// not found
	{user.ErrNotFound, http.StatusNotFound},
	{account.ErrNotFound, http.StatusNotFound},
	{collateral.ErrNotFound, http.StatusNotFound},
	{collateral.ErrImageNotFound, http.StatusNotFound},
	{transaction.ErrNotFound, http.StatusNotFound},

	// state conflicts
	{user.ErrAlreadyExists, http.StatusConflict},
	{account.ErrAlreadyExists, http.StatusConflict},
	{account.ErrAccountClosed, http.StatusConflict},
	{account.ErrAccountInactive, http.StatusConflict},
	{account.ErrInsufficientFunds, http.StatusConflict},
	{account.ErrOutstandingBalance, http.StatusConflict},
	{collateral.ErrInvalidTransition, http.StatusConflict},
	{collateral.ErrNotApproved, http.StatusConflict},
	{collateral.ErrLoanLimitExceeded, http.StatusConflict},
	{collateral.ErrOverpayment, http.StatusConflict},
	{transaction.ErrReferenceConflict, http.StatusConflict},
	{transaction.ErrAlreadyReversed, http.StatusConflict},
	{transaction.ErrNotReversible, http.StatusConflict},
	{transaction.ErrImmutable, http.StatusConflict},

	// infrastructure
	{account.ErrTreasuryNotFound, http.StatusServiceUnavailable},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
}

// StatusFor maps a usecase error onto the REST taxonomy.
func StatusFor(err error) int {
	if errors.Is(err, valuation.ErrUpstream) {
		return http.StatusBadGateway
	}
	for _, m := range statusByErr {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return http.StatusInternalServerError
}

// respondError writes the error payload. Unknown errors are logged and
// reported without their message.
func respondError(c echo.Context, err error) error {
	code := StatusFor(err)
	resp := ErrorResponse{Error: err.Error()}

	var rejected *ucTransaction.RejectedError
	if errors.As(err, &rejected) {
		resp.Error = rejected.Err.Error()
		resp.Details = []FieldError{{Field: "transaction_id", Message: rejected.TransactionID}}
	}

	switch code {
	case http.StatusBadGateway:
		resp.Error = valuation.ErrUpstream.Error()
		var pending *ucCollateral.PendingError
		if errors.As(err, &pending) {
			resp.Details = []FieldError{{Field: "collateral_id", Message: pending.CollateralID}}
		}
	case http.StatusInternalServerError:
		slog.Default().ErrorContext(c.Request().Context(), "unhandled error", "path", c.Path(), "err", err)
		resp.Error = "internal error"
	}
	return c.JSON(code, resp)
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
}

func validationFailed(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
}

func missingField(c echo.Context, field string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation failed",
		Details: []FieldError{{Field: field, Message: "is required"}},
	})
}

// bindValid binds the body into req and validates it, writing the 400 response
// itself. ok is false when the handler should return.
func bindValid(c echo.Context, req any) (ok bool, err error) {
	if err := c.Bind(req); err != nil {
		return false, badBody(c)
	}
	if err := c.Validate(req); err != nil {
		return false, validationFailed(c, err)
	}
	return true, nil
}
