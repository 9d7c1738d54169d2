package model

import (
	"time"
)

// User status constants
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User represents a back-office account. Suppliers and clients may or may
// not have one; delivery to them must not assume it exists.
type User struct {
	Base
	Email              string     `json:"email" db:"email"`
	Name               string     `json:"name" db:"name"`
	Password           string     `json:"password,omitempty" db:"-"`
	PasswordHash       string     `json:"-" db:"password_hash"`
	Phone              string     `json:"phone" db:"phone"`
	IsAdmin            bool       `json:"is_admin" db:"is_admin"`
	Status             string     `json:"status" db:"status"`
	PushSubscriptionID *string    `json:"push_subscription_id,omitempty" db:"push_subscription_id"`
	QuietStartHour     *int       `json:"quiet_start_hour,omitempty" db:"quiet_start_hour"`
	QuietEndHour       *int       `json:"quiet_end_hour,omitempty" db:"quiet_end_hour"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
}

// UserFilter represents user search parameters
type UserFilter struct {
	BaseFilter
	IsAdmin *bool `json:"is_admin" form:"is_admin"`
}

// CreateUserRequest is the payload for creating a user
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone"`
	IsAdmin  bool   `json:"is_admin"`
}

// UpdateUserRequest is the payload for updating a user
type UpdateUserRequest struct {
	Name               *string `json:"name"`
	Phone              *string `json:"phone"`
	IsAdmin            *bool   `json:"is_admin"`
	Status             *string `json:"status"`
	PushSubscriptionID *string `json:"push_subscription_id"`
	QuietStartHour     *int    `json:"quiet_start_hour"`
	QuietEndHour       *int    `json:"quiet_end_hour"`
}

// LoginRequest is the payload for admin login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued token
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}
