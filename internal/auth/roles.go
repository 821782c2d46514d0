package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront/internal/domain"
	apperrors "github.com/spec-kit/storefront/pkg/util/errorutil"
)

// RequireAuth admits any active principal.
func (m *AuthMiddleware) RequireAuth() fiber.Handler {
	return m.Handle
}

// RequireAdmin admits staff principals with the admin role.
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return m.requireStaffRole(domain.StaffRoleAdmin)
}

// RequireAdminOrTeam admits any staff principal.
func (m *AuthMiddleware) RequireAdminOrTeam() fiber.Handler {
	return m.requireStaffRole(domain.StaffRoleAdmin, domain.StaffRoleTeam)
}

// RequireCustomer admits customer principals only.
func (m *AuthMiddleware) RequireCustomer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := m.Authenticate(c)
		if err != nil {
			return err
		}
		if principal.Kind != domain.AccountKindCustomer {
			return apperrors.NewForbidden("customer account required")
		}
		return c.Next()
	}
}

func (m *AuthMiddleware) requireStaffRole(allowed ...domain.StaffRole) fiber.Handler {
	allowedSet := make(map[domain.StaffRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, err := m.Authenticate(c)
		if err != nil {
			return err
		}
		if !principal.IsStaff() {
			return apperrors.NewForbidden("staff role required")
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
