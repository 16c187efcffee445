package identity

// Role is the single role a principal acts under
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

// IsValid returns true if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// CanFulfill reports whether the role may drive fulfillment transitions
func (r Role) CanFulfill() bool {
	return r == RoleAdmin || r == RoleVendor
}
