package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"lendledger/internal/domain/account"
	ucAccount "lendledger/internal/usecase/account"
)

type AccountHandler struct{ uc *ucAccount.Usecase }

func NewAccountHandler(uc *ucAccount.Usecase) *AccountHandler { return &AccountHandler{uc: uc} }

type openAccountReq struct {
	UserID string `json:"user_id" validate:"omitempty,hex32"`
}

func (h *AccountHandler) Open(c echo.Context) error {
	var req openAccountReq
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
	dto, err := h.uc.Open(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

// owned loads the account and checks the caller may see it.
func (h *AccountHandler) owned(c echo.Context, accountID string) (*ucAccount.AccountDTO, error) {
	dto, err := h.uc.Get(c.Request().Context(), accountID)
	if err != nil {
		return nil, err
	}
	if err := requireSelf(c, dto.UserID); err != nil {
		return nil, err
	}
	return dto, nil
}

func (h *AccountHandler) Get(c echo.Context) error {
	dto, err := h.owned(c, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AccountHandler) GetByUser(c echo.Context) error {
	userID := c.Param("user_id")
	if err := requireSelf(c, userID); err != nil {
		return respondError(c, err)
	}
	dto, err := h.uc.GetByUser(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AccountHandler) GetByNumber(c echo.Context) error {
	dto, err := h.uc.GetByNumber(c.Request().Context(), c.Param("account_number"))
	if err != nil {
		return respondError(c, err)
	}
	if err := requireSelf(c, dto.UserID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AccountHandler) Balance(c echo.Context) error {
	accountID := c.Param("id")
	if _, err := h.owned(c, accountID); err != nil {
		return respondError(c, err)
	}
	dto, err := h.uc.Balance(c.Request().Context(), accountID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type listAccountsQuery struct {
	pageQuery
	Status string `query:"status"`
}

func (h *AccountHandler) List(c echo.Context) error {
	if err := requireStaff(c); err != nil {
		return respondError(c, err)
	}
	var q listAccountsQuery
	if err := bindQuery(c, &q); err != nil {
		return respondError(c, err)
	}
	if q.Status != "" && !account.Status(q.Status).Valid() {
		return respondError(c, account.ErrInvalidStatus)
	}
	res, err := h.uc.List(c.Request().Context(), ucAccount.ListInput{Status: account.Status(q.Status), Page: q.request()})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type accountStatusReq struct {
	Status string `json:"status" validate:"required,oneof=active inactive frozen"`
}

func (h *AccountHandler) SetStatus(c echo.Context) error {
	if err := requireStaff(c); err != nil {
		return respondError(c, err)
	}
	var req accountStatusReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.SetStatus(c.Request().Context(), c.Param("id"), account.Status(req.Status))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AccountHandler) Close(c echo.Context) error {
	accountID := c.Param("id")
	if _, err := h.owned(c, accountID); err != nil {
		return respondError(c, err)
	}
	dto, err := h.uc.Close(c.Request().Context(), accountID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
