package domain

import "time"

// UserRole distinguishes marketplace account types.
type UserRole string

const (
	RoleFarmer UserRole = "farmer"
	RoleBuyer  UserRole = "buyer"
	RoleAdmin  UserRole = "admin"
)

// User is the slice of an account the sync subsystem reads: enough to fan
// price alerts out to active farmers.
type User struct {
	ID        int64
	Name      string
	Role      UserRole
	Active    bool
	CreatedAt time.Time
}
