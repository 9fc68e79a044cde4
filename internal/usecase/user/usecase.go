package user

import (
	"context"
	"strings"

	"lendledger/internal/domain/user"
	"lendledger/internal/usecase/paging"
	"lendledger/pkg/id"
)

type Usecase struct{ repo user.Repository }

func NewUsecase(r user.Repository) *Usecase { return &Usecase{repo: r} }

func (u *Usecase) Register(ctx context.Context, in RegisterInput) (*UserDTO, error) {
	role := in.Role
	if role == "" {
		role = user.RoleUser
	}
	if !role.Valid() {
		return nil, user.ErrInvalidRole
	}
	usr := &user.User{
		ID:        id.NewID32(),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Username:  strings.TrimSpace(in.Username),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Role:      role,
		Status:    user.StatusPendingVerification,
	}
	if err := u.repo.Create(ctx, usr); err != nil {
		return nil, err
	}
	dto := toDTO(usr)
	return &dto, nil
}

func (u *Usecase) Get(ctx context.Context, userID string) (*UserDTO, error) {
	usr, err := u.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(usr)
	return &dto, nil
}

func (u *Usecase) List(ctx context.Context, in ListInput) (*paging.Result[UserDTO], error) {
	p, err := in.Page.Normalize()
	if err != nil {
		return nil, err
	}
	list, total, err := u.repo.List(ctx, user.Filter{Role: in.Role, Status: in.Status, Offset: p.Offset(), Limit: p.PageSize})
	if err != nil {
		return nil, err
	}
	return paging.NewResult(paging.Map(list, toDTO), total, p), nil
}

func (u *Usecase) SetStatus(ctx context.Context, userID string, status user.Status) (*UserDTO, error) {
	if !status.Valid() {
		return nil, user.ErrInvalidStatus
	}
	return u.update(ctx, userID, func(usr *user.User) { usr.Status = status })
}

// SetKYC records the verification outcome; a verified pending user becomes active.
func (u *Usecase) SetKYC(ctx context.Context, userID string, verified bool) (*UserDTO, error) {
	return u.update(ctx, userID, func(usr *user.User) {
		usr.KYCVerified = verified
		if verified && usr.Status == user.StatusPendingVerification {
			usr.Status = user.StatusActive
		}
	})
}

func (u *Usecase) update(ctx context.Context, userID string, fn func(*user.User)) (*UserDTO, error) {
	usr, err := u.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	fn(usr)
	if err := u.repo.Save(ctx, usr); err != nil {
		return nil, err
	}
	dto := toDTO(usr)
	return &dto, nil
}
