package user

import "time"

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // HR / manager - attendance, lates and payroll
	RoleEmployee Role = "employee" // Regular employee
)

type User struct {
	ID        string
	Email     string
	Role      Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsManager checks if user is manager or owner
func (r Role) IsManager() bool {
	return r == RoleManager || r == RoleOwner
}
