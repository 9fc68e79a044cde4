package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"lendledger/internal/domain/user"
	ucUser "lendledger/internal/usecase/user"
)

type UserHandler struct{ uc *ucUser.Usecase }

func NewUserHandler(uc *ucUser.Usecase) *UserHandler { return &UserHandler{uc: uc} }

type registerUserReq struct {
	Email     string `json:"email"      validate:"required,email,max=255"`
	Username  string `json:"username"   validate:"required,max=64"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name"  validate:"max=100"`
	Phone     string `json:"phone"      validate:"max=32"`
	Role      string `json:"role"       validate:"omitempty,oneof=user admin verifier organization"`
}

func (h *UserHandler) Register(c echo.Context) error {
	var req registerUserReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	// only staff may create privileged users
	if req.Role != "" && user.Role(req.Role) != user.RoleUser {
		if err := requireStaff(c); err != nil {
			return respondError(c, err)
		}
	}
	dto, err := h.uc.Register(c.Request().Context(), ucUser.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      user.Role(req.Role),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *UserHandler) Get(c echo.Context) error {
	userID := c.Param("id")
	if err := requireSelf(c, userID); err != nil {
		return respondError(c, err)
	}
	dto, err := h.uc.Get(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type listUsersQuery struct {
	pageQuery
	Role   string `query:"role"`
	Status string `query:"status"`
}

func (h *UserHandler) List(c echo.Context) error {
	if err := requireStaff(c); err != nil {
		return respondError(c, err)
	}
	var q listUsersQuery
	if err := bindQuery(c, &q); err != nil {
		return respondError(c, err)
	}
	if q.Role != "" && !user.Role(q.Role).Valid() {
		return respondError(c, user.ErrInvalidRole)
	}
	if q.Status != "" && !user.Status(q.Status).Valid() {
		return respondError(c, user.ErrInvalidStatus)
	}
	res, err := h.uc.List(c.Request().Context(), ucUser.ListInput{
		Role:   user.Role(q.Role),
		Status: user.Status(q.Status),
		Page:   q.request(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type userStatusReq struct {
	Status string `json:"status" validate:"required,oneof=active inactive pending_verification"`
}

func (h *UserHandler) SetStatus(c echo.Context) error {
	if err := requireStaff(c); err != nil {
		return respondError(c, err)
	}
	var req userStatusReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.SetStatus(c.Request().Context(), c.Param("id"), user.Status(req.Status))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type kycReq struct {
	KYCVerified *bool `json:"kyc_verified" validate:"required"`
}

func (h *UserHandler) SetKYC(c echo.Context) error {
	if err := requireStaff(c); err != nil {
		return respondError(c, err)
	}
	var req kycReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.SetKYC(c.Request().Context(), c.Param("id"), *req.KYCVerified)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
