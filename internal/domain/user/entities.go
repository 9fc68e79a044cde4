package user

import (
	"errors"
	"time"
)

type Role string

const (
	RoleUser         Role = "user"
	RoleAdmin        Role = "admin"
	RoleVerifier     Role = "verifier"
	RoleOrganization Role = "organization"
)

type Status string

const (
	StatusActive              Status = "active"
	StatusInactive            Status = "inactive"
	StatusPendingVerification Status = "pending_verification"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
	ErrInvalidStatus = errors.New("invalid user status")
	ErrInvalidRole   = errors.New("invalid user role")
)

type User struct {
	ID          string    `gorm:"primaryKey;size:32" json:"id"`
	Email       string    `gorm:"size:255;uniqueIndex:ux_users_email;not null" json:"email"`
	Username    string    `gorm:"size:64;uniqueIndex:ux_users_username;not null" json:"username"`
	FirstName   string    `gorm:"size:100" json:"first_name,omitempty"`
	LastName    string    `gorm:"size:100" json:"last_name,omitempty"`
	Phone       string    `gorm:"size:32" json:"phone,omitempty"`
	Role        Role      `gorm:"size:16;not null;default:'user'" json:"role"`
	Status      Status    `gorm:"size:32;not null;default:'pending_verification'" json:"status"`
	KYCVerified bool      `gorm:"column:kyc_verified;not null;default:false" json:"kyc_verified"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleVerifier, RoleOrganization:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusPendingVerification:
		return true
	}
	return false
}

// Staff reports whether the role may perform administrative actions.
func (r Role) Staff() bool { return r == RoleAdmin || r == RoleVerifier }
