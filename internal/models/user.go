package models

import (
	"time"
)

// Role enumerates the roles a user can hold. A freshly registered user is
// pending until an administrator assigns a working role.
type Role string

const (
	RolePending   Role = "pending"
	RoleSecretary Role = "secretary"
	RoleMayor     Role = "mayor"
	RoleAdmin     Role = "admin"
)

// ValidRole reports whether r is a recognized role.
func ValidRole(r Role) bool {
	switch r {
	case RolePending, RoleSecretary, RoleMayor, RoleAdmin:
		return true
	}
	return false
}

// Status enumerates account states. Role is only meaningful while the
// account is active.
type Status string

const (
	StatusPendingApproval Status = "pending_approval"
	StatusActive          Status = "active"
	StatusSuspended       Status = "suspended"
)

// ValidStatus reports whether s is a recognized account status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPendingApproval, StatusActive, StatusSuspended:
		return true
	}
	return false
}

// User is an account record. The ID matches the external authentication
// identity, so registration never assigns one.
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Role      Role      `json:"role" db:"role"`
	Status    Status    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RegisterRequest is the payload for creating the caller's account record.
type RegisterRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// UpdateUserRequest is the admin payload for changing a user's role or
// status. Empty fields are left untouched.
type UpdateUserRequest struct {
	Role   Role   `json:"role"`
	Status Status `json:"status"`
}

// RegisterTokenRequest is the payload for registering a push token.
type RegisterTokenRequest struct {
	Token string `json:"token" binding:"required"`
}
