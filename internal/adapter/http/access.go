package http

import (
	"github.com/labstack/echo/v4"

	"lendledger/internal/adapter/middleware"
	"lendledger/internal/usecase/paging"
)

// With auth disabled every call is allowed.

func caller(c echo.Context) (middleware.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return p, ErrUnauthorized
	}
	return p, nil
}

func requireStaff(c echo.Context) error {
	if !middleware.AuthEnabled(c) {
		return nil
	}
	p, err := caller(c)
	if err != nil {
		return err
	}
	if !p.Staff() {
		return ErrForbidden
	}
	return nil
}

// requireSelf allows the owner of userID and staff.
func requireSelf(c echo.Context, userID string) error {
	if !middleware.AuthEnabled(c) {
		return nil
	}
	p, err := caller(c)
	if err != nil {
		return err
	}
	if p.Staff() || p.UserID == userID {
		return nil
	}
	return ErrForbidden
}

// ownerOr fills an omitted user_id from the token.
func ownerOr(c echo.Context, userID string) string {
	if userID != "" {
		return userID
	}
	if p, ok := middleware.PrincipalFrom(c); ok {
		return p.UserID
	}
	return ""
}

type pageQuery struct {
	Page     int `query:"page"`
	PageSize int `query:"page_size"`
}

func (q pageQuery) request() paging.Request {
	return paging.Request{Page: q.Page, PageSize: q.PageSize}
}

func bindQuery(c echo.Context, q any) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, q); err != nil {
		return ErrInvalidQuery
	}
	return nil
}
