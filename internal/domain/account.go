package domain

import "time"

// AccountKind tags which collection backs a principal.
type AccountKind string

const (
	AccountKindStaff    AccountKind = "STAFF"
	AccountKindCustomer AccountKind = "CUSTOMER"
)

// Valid reports whether k is a known account kind.
func (k AccountKind) Valid() bool {
	return k == AccountKindStaff || k == AccountKindCustomer
}

// StaffRole enumerates back-office roles.
type StaffRole string

const (
	StaffRoleAdmin StaffRole = "admin"
	StaffRoleTeam  StaffRole = "team"
)

// Valid reports whether r is a known staff role.
func (r StaffRole) Valid() bool {
	return r == StaffRoleAdmin || r == StaffRoleTeam
}

// StaffAccount models a back-office operator. Admins hold every capability
// regardless of Permissions.
type StaffAccount struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         StaffRole
	Permissions  []Capability
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CustomerStatus represents lifecycle states for a storefront customer.
type CustomerStatus string

const (
	CustomerStatusActive    CustomerStatus = "ACTIVE"
	CustomerStatusSuspended CustomerStatus = "SUSPENDED"
)

// CustomerAccount is a storefront shopper. It has no permission set and may
// only act on resources it owns.
type CustomerAccount struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Status       CustomerStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
