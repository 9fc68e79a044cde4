package user

import (
	"time"

	"lendledger/internal/domain/user"
	"lendledger/internal/usecase/paging"
)

type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Phone     string
	Role      user.Role
}

type ListInput struct {
	Role   user.Role
	Status user.Status
	Page   paging.Request
}

type UserDTO struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	KYCVerified bool      `json:"kyc_verified"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toDTO(u *user.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		Role:        string(u.Role),
		Status:      string(u.Status),
		KYCVerified: u.KYCVerified,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
