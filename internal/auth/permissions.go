package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront/internal/domain"
	apperrors "github.com/spec-kit/storefront/pkg/util/errorutil"
)

// PermissionEngine answers capability questions for a Principal. Admins pass
// every check; everyone else needs exact membership. An empty requirement
// list is never satisfied by a non-admin.
type PermissionEngine struct {
	registry *CapabilityRegistry
	logger   *zap.Logger
}

// NewPermissionEngine builds an engine whose guards are checked against registry.
func NewPermissionEngine(registry *CapabilityRegistry, logger *zap.Logger) *PermissionEngine {
	if registry == nil {
		registry = DefaultCapabilityRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionEngine{registry: registry, logger: logger}
}

// Registry exposes the capability registry backing the engine.
func (e *PermissionEngine) Registry() *CapabilityRegistry {
	return e.registry
}

// Can reports whether p holds capability.
func (e *PermissionEngine) Can(p *Principal, capability domain.Capability) bool {
	if p == nil {
		return false
	}
	if p.IsAdmin() {
		return true
	}
	_, ok := p.Permissions[capability]
	return ok
}

// CanAny reports whether p holds at least one of capabilities.
func (e *PermissionEngine) CanAny(p *Principal, capabilities []domain.Capability) bool {
	if p == nil {
		return false
	}
	if p.IsAdmin() {
		return true
	}
	for _, c := range capabilities {
		if _, ok := p.Permissions[c]; ok {
			return true
		}
	}
	return false
}

// CanAll reports whether p holds every one of capabilities.
func (e *PermissionEngine) CanAll(p *Principal, capabilities []domain.Capability) bool {
	if p == nil {
		return false
	}
	if p.IsAdmin() {
		return true
	}
	if len(capabilities) == 0 {
		return false
	}
	for _, c := range capabilities {
		if _, ok := p.Permissions[c]; !ok {
			return false
		}
	}
	return true
}

// RequireCapability rejects principals lacking name. It must run after an
// authentication guard. Unknown names panic at wiring time.
func (e *PermissionEngine) RequireCapability(name string) fiber.Handler {
	capability := e.registry.MustLookup(name)
	return e.guard([]domain.Capability{capability}, func(p *Principal, caps []domain.Capability) bool {
		return e.Can(p, caps[0])
	})
}

// RequireAnyCapability rejects principals holding none of names.
func (e *PermissionEngine) RequireAnyCapability(names ...string) fiber.Handler {
	return e.guard(e.mustAll(names), e.CanAny)
}

// RequireAllCapabilities rejects principals missing any of names.
func (e *PermissionEngine) RequireAllCapabilities(names ...string) fiber.Handler {
	return e.guard(e.mustAll(names), e.CanAll)
}

func (e *PermissionEngine) mustAll(names []string) []domain.Capability {
	if len(names) == 0 {
		panic("capability guard needs at least one capability")
	}
	caps := make([]domain.Capability, 0, len(names))
	for _, name := range names {
		caps = append(caps, e.registry.MustLookup(name))
	}
	return caps
}

func (e *PermissionEngine) guard(caps []domain.Capability, check func(*Principal, []domain.Capability) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized(errNoPrincipal)
		}
		if !check(principal, caps) {
			e.logger.Debug("capability denied",
				zap.String("principal_id", principal.ID),
				zap.String("role", string(principal.Role)),
				zap.Any("required", caps))
			return apperrors.NewForbidden("insufficient permissions")
		}
		return c.Next()
	}
}

// AuthorizeOwner enforces self access: non-admins may only act on resources
// whose owner id equals their own id.
func AuthorizeOwner(p *Principal, ownerID string) error {
	if p == nil {
		return apperrors.NewUnauthorized(errNoPrincipal)
	}
	if p.IsAdmin() {
		return nil
	}
	if ownerID == "" || p.ID != ownerID {
		return apperrors.NewForbidden("access to this resource is not allowed")
	}
	return nil
}
