package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Role determines which side of an invoice a user acts on.
type Role string

const (
	RoleProvider  Role = "provider"
	RolePurchaser Role = "purchaser"
	RoleAdmin     Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleProvider, RolePurchaser, RoleAdmin:
		return true
	}

	return false
}

// Status controls whether a user may sign in.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password does not meet the strength requirements")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidStatus      = errors.New("invalid status")
)

// User is a platform account. Invoices and payments reference it by ID only.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Role         Role
	Status       Status
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive && u.DeletedAt == nil
}
