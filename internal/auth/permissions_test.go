package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spec-kit/storefront/internal/domain"
	apperrors "github.com/spec-kit/storefront/pkg/util/errorutil"
)

func teamPrincipal(perms ...domain.Capability) *Principal {
	set := make(map[domain.Capability]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return &Principal{ID: "team-1", Kind: domain.AccountKindStaff, Role: domain.StaffRoleTeam, Permissions: set}
}

func adminPrincipal() *Principal {
	return &Principal{ID: "admin-1", Kind: domain.AccountKindStaff, Role: domain.StaffRoleAdmin, Permissions: map[domain.Capability]struct{}{}}
}

func TestAdminBypassesEveryCheck(t *testing.T) {
	engine := NewPermissionEngine(nil, nil)
	admin := adminPrincipal()

	for _, c := range []domain.Capability{"orders.view", "never.granted", "x", ""} {
		if !engine.Can(admin, c) {
			t.Fatalf("admin denied %q", c)
		}
	}
	if !engine.CanAll(admin, nil) || !engine.CanAny(admin, []domain.Capability{"a.b"}) {
		t.Fatalf("admin denied a set check")
	}
}

func TestTeamPermissionMembership(t *testing.T) {
	engine := NewPermissionEngine(nil, nil)
	p := teamPrincipal(domain.CapabilityOrdersView)
	both := []domain.Capability{domain.CapabilityOrdersEdit, domain.CapabilityOrdersView}

	if !engine.Can(p, domain.CapabilityOrdersView) {
		t.Fatalf("can(orders.view) should be true")
	}
	if engine.Can(p, domain.CapabilityOrdersEdit) {
		t.Fatalf("can(orders.edit) should be false")
	}
	if !engine.CanAny(p, both) {
		t.Fatalf("canAny should be true")
	}
	if engine.CanAll(p, both) {
		t.Fatalf("canAll should be false")
	}
	if engine.Can(p, "orders") || engine.Can(p, "orders.view.all") {
		t.Fatalf("membership must be exact, not hierarchical")
	}
}

func TestFailClosed(t *testing.T) {
	engine := NewPermissionEngine(nil, nil)
	empty := teamPrincipal()

	for _, c := range domain.DefaultCapabilities() {
		if engine.Can(empty, c) {
			t.Fatalf("team account without grants allowed %q", c)
		}
	}
	if engine.CanAny(empty, nil) || engine.CanAll(teamPrincipal(domain.CapabilityOrdersView), nil) {
		t.Fatalf("empty requirement lists must deny non-admins")
	}
	if engine.Can(nil, domain.CapabilityOrdersView) {
		t.Fatalf("nil principal must be denied")
	}

	customer := &Principal{ID: "c-1", Kind: domain.AccountKindCustomer, Role: domain.StaffRoleAdmin,
		Permissions: map[domain.Capability]struct{}{domain.CapabilityCustomerSelf: {}}}
	if engine.Can(customer, domain.CapabilityOrdersView) {
		t.Fatalf("customer with a stray admin role must not bypass")
	}
}

func TestAuthorizeOwner(t *testing.T) {
	if err := AuthorizeOwner(adminPrincipal(), "someone"); err != nil {
		t.Fatalf("admin denied: %v", err)
	}
	customer := &Principal{ID: "c-1", Kind: domain.AccountKindCustomer}
	if err := AuthorizeOwner(customer, "c-1"); err != nil {
		t.Fatalf("owner denied: %v", err)
	}
	if err := AuthorizeOwner(customer, "c-2"); !apperrors.IsStatus(err, http.StatusForbidden) {
		t.Fatalf("expected 403 for another owner, got %v", err)
	}
	if err := AuthorizeOwner(teamPrincipal(domain.CapabilityCustomersView), "c-1"); !apperrors.IsStatus(err, http.StatusForbidden) {
		t.Fatalf("capability does not grant ownership, got %v", err)
	}
	if err := AuthorizeOwner(nil, "c-1"); !apperrors.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected 401 without principal, got %v", err)
	}
}

func TestGuardUnknownCapabilityPanics(t *testing.T) {
	engine := NewPermissionEngine(nil, nil)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for a misspelled capability")
		}
	}()
	engine.RequireCapability("mesages.view")
}

func TestCapabilityGuardsOverHTTP(t *testing.T) {
	f := newFixture(t)
	team := f.addStaff(t, "team@shop.test", domain.StaffRoleTeam, domain.CapabilityMessagesView)
	admin := f.addStaff(t, "boss@shop.test", domain.StaffRoleAdmin)

	app := newTestApp()
	staffOnly := app.Group("/admin", f.mw.RequireAdminOrTeam())
	staffOnly.Get("/messages", f.engine.RequireCapability("messages.view"), ok)
	staffOnly.Post("/messages/reply", f.engine.RequireCapability("messages.reply"), ok)
	staffOnly.Get("/either", f.engine.RequireAnyCapability("messages.reply", "messages.view"), ok)
	staffOnly.Get("/both", f.engine.RequireAllCapabilities("messages.reply", "messages.view"), ok)

	cases := []struct {
		method string
		path   string
		token  string
		want   int
	}{
		{http.MethodGet, "/admin/messages", f.staffToken(t, team), http.StatusOK},
		{http.MethodPost, "/admin/messages/reply", f.staffToken(t, team), http.StatusForbidden},
		{http.MethodGet, "/admin/either", f.staffToken(t, team), http.StatusOK},
		{http.MethodGet, "/admin/both", f.staffToken(t, team), http.StatusForbidden},
		{http.MethodPost, "/admin/messages/reply", f.staffToken(t, admin), http.StatusOK},
		{http.MethodGet, "/admin/messages", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("%s %s: %v", tc.method, tc.path, err)
		}
		if resp.StatusCode != tc.want {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, tc.want, resp.StatusCode)
		}
	}
}
