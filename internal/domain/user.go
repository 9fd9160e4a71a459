package domain

import "time"

// UserRole separates helpdesk staff from end-users.
type UserRole string

const (
	RoleUser          UserRole = "USER"
	RoleTechnician    UserRole = "TECHNICIAN"
	RoleAdminHelpdesk UserRole = "ADMIN_HELPDESK"
)

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the domain model for authenticated principals.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
