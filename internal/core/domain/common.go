package domain

import "time"

// AuditFields holds standard audit information for ledger rows.
// Version is bumped on every status transition and used as an optimistic-concurrency precondition.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	Version       int       `json:"version"`
}

// UserRole is the role a caller acts in when reading the ledger.
type UserRole string

const (
	RoleBuyer  UserRole = "buyer"
	RoleSeller UserRole = "seller"
	RoleAdmin  UserRole = "admin"
)

// IsValid reports whether r is one of the known roles.
func (r UserRole) IsValid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}
