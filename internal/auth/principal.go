package auth

import "github.com/spec-kit/storefront/internal/domain"

// Principal is the resolved identity of one request. It is never persisted.
type Principal struct {
	ID          string
	Email       string
	Kind        domain.AccountKind
	Role        domain.StaffRole
	Permissions map[domain.Capability]struct{}

	// Exactly one of Staff or Customer is set, with PasswordHash cleared.
	Staff    *domain.StaffAccount
	Customer *domain.CustomerAccount
}

// IsAdmin reports whether the principal bypasses capability checks.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Kind == domain.AccountKindStaff && p.Role == domain.StaffRoleAdmin
}

// IsStaff reports whether the principal is a back-office account.
func (p *Principal) IsStaff() bool {
	return p != nil && p.Kind == domain.AccountKindStaff
}

func newStaffPrincipal(staff *domain.StaffAccount) *Principal {
	account := *staff
	account.PasswordHash = ""
	account.Permissions = append([]domain.Capability(nil), staff.Permissions...)

	perms := make(map[domain.Capability]struct{}, len(account.Permissions))
	for _, c := range account.Permissions {
		perms[c] = struct{}{}
	}
	return &Principal{
		ID:          account.ID,
		Email:       account.Email,
		Kind:        domain.AccountKindStaff,
		Role:        account.Role,
		Permissions: perms,
		Staff:       &account,
	}
}

func newCustomerPrincipal(customer *domain.CustomerAccount) *Principal {
	account := *customer
	account.PasswordHash = ""
	return &Principal{
		ID:          account.ID,
		Email:       account.Email,
		Kind:        domain.AccountKindCustomer,
		Permissions: map[domain.Capability]struct{}{domain.CapabilityCustomerSelf: {}},
		Customer:    &account,
	}
}
