package models

import "time"

type UserRole string

const (
	RoleStaff UserRole = "staff"
	RoleAdmin UserRole = "admin"
)

var roleTier = map[UserRole]int{
	RoleStaff: 1,
	RoleAdmin: 2,
}

func IsValidRole(role UserRole) bool {
	_, ok := roleTier[role]
	return ok
}

// HasAtLeast reports whether role meets the required tier.
func HasAtLeast(role, required UserRole) bool {
	return roleTier[role] >= roleTier[required]
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
