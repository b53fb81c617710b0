package models

import (
	"time"
)

// UserRole represents the role of a staff account
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleStaff UserRole = "staff"
)

// User represents a staff account that can issue coupons
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Name         string    `json:"name" gorm:"not null"`
	Role         UserRole  `json:"role" gorm:"not null;default:'staff'"`
	Active       bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the account holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// CreateStaffRequest represents a request to create a staff account
type CreateStaffRequest struct {
	Username string   `json:"username" binding:"required"`
	Password string   `json:"password" binding:"required,min=6"`
	Name     string   `json:"name" binding:"required"`
	Role     UserRole `json:"role,omitempty"`
}

// ChangePasswordRequest represents an admin password reset for a staff account
type ChangePasswordRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}
