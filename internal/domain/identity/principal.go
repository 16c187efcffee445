package identity

import "github.com/google/uuid"

// Principal is the authenticated caller of an operation
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin reports whether the caller acts as an administrator
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// IsVendor reports whether the caller acts as a vendor
func (p Principal) IsVendor() bool {
	return p.Role == RoleVendor
}
