package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/spec-kit/storefront/internal/domain"
	apperrors "github.com/spec-kit/storefront/pkg/util/errorutil"
)

func TestResolveStaffUsesStoredRole(t *testing.T) {
	f := newFixture(t)
	staff := f.addStaff(t, "ops@shop.test", domain.StaffRoleTeam, domain.CapabilityMessagesView)

	forged, _, _ := f.tokens.Issue(Identity{SubjectID: staff.ID, Email: staff.Email, Role: domain.StaffRoleAdmin, Kind: domain.AccountKindStaff})
	p, err := f.resolver.Resolve(context.Background(), "Bearer "+forged)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.IsAdmin() || p.Role != domain.StaffRoleTeam {
		t.Fatalf("role claim trusted over stored account: %+v", p)
	}
	if _, ok := p.Permissions[domain.CapabilityMessagesView]; !ok {
		t.Fatalf("stored permissions missing from principal")
	}
	if p.Staff == nil || p.Staff.PasswordHash != "" {
		t.Fatalf("password hash must be stripped")
	}
}

func TestResolveDeactivatedStaffIsUnauthenticated(t *testing.T) {
	f := newFixture(t)
	staff := f.addStaff(t, "gone@shop.test", domain.StaffRoleAdmin)
	token := f.staffToken(t, staff)

	staff.IsActive = false
	if err := f.staff.Update(context.Background(), staff); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err := f.resolver.Resolve(context.Background(), "Bearer "+token)
	if !apperrors.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected 401, got %v", err)
	}
	if !errors.Is(err, errAccountInactive) {
		t.Fatalf("expected inactive reason, got %v", err)
	}
}

func TestResolveCustomer(t *testing.T) {
	f := newFixture(t)
	customer := f.addCustomer(t, "a@x.com")

	p, err := f.resolver.Resolve(context.Background(), "bearer "+f.customerToken(t, customer))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.Kind != domain.AccountKindCustomer || p.ID != customer.ID || p.IsStaff() {
		t.Fatalf("unexpected principal %+v", p)
	}
	if _, ok := p.Permissions[domain.CapabilityCustomerSelf]; !ok || len(p.Permissions) != 1 {
		t.Fatalf("customers hold exactly the self-access capability, got %v", p.Permissions)
	}
	if p.Customer.PasswordHash != "" {
		t.Fatalf("password hash must be stripped")
	}
}

func TestResolveKindSelectsStore(t *testing.T) {
	f := newFixture(t)
	customer := f.addCustomer(t, "a@x.com")

	token, _, _ := f.tokens.Issue(Identity{SubjectID: customer.ID, Kind: domain.AccountKindStaff})
	_, err := f.resolver.Resolve(context.Background(), "Bearer "+token)
	if !errors.Is(err, errAccountMissing) {
		t.Fatalf("customer id resolved against staff store: %v", err)
	}
}

func TestResolveFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	customer := f.addCustomer(t, "a@x.com")
	valid := f.customerToken(t, customer)

	cases := map[string]string{
		"missing":   "",
		"scheme":    "Basic " + valid,
		"empty":     "Bearer   ",
		"malformed": "Bearer abc",
		"tampered":  "Bearer " + valid[:len(valid)-2] + "xx",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.resolver.Resolve(context.Background(), header)
			de := apperrors.ToDomainError(err)
			if de == nil || de.HTTPStatus != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %v", err)
			}
			if de.Code != "UNAUTHENTICATED" || de.Message != "authentication required" {
				t.Fatalf("failure leaks detail: %+v", de)
			}
		})
	}
}
