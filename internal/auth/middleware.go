package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront/internal/observability"
	apperrors "github.com/spec-kit/storefront/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// AuthMiddleware resolves bearer tokens into principals for fiber routes.
type AuthMiddleware struct {
	resolver *AuthResolver
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewAuthMiddleware constructs middleware. metrics may be nil.
func NewAuthMiddleware(resolver *AuthResolver, logger *zap.Logger, metrics *observability.Metrics) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{resolver: resolver, logger: logger, metrics: metrics}
}

// Authenticate returns the request principal, resolving it at most once per request.
func (m *AuthMiddleware) Authenticate(c *fiber.Ctx) (*Principal, error) {
	if principal, ok := PrincipalFromContext(c); ok {
		return principal, nil
	}
	principal, err := m.resolver.Resolve(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	if err != nil {
		m.recordFailure(c, err)
		return nil, err
	}
	c.Locals(principalKey, principal)
	return principal, nil
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	if _, err := m.Authenticate(c); err != nil {
		return err
	}
	return c.Next()
}

func (m *AuthMiddleware) recordFailure(c *fiber.Ctx, err error) {
	domainErr := apperrors.ToDomainError(err)
	if domainErr.HTTPStatus != fiber.StatusUnauthorized {
		return
	}
	reason := "unknown"
	if cause := errors.Unwrap(domainErr); cause != nil {
		reason = cause.Error()
	}
	m.logger.Debug("authentication failed",
		zap.String("path", c.Path()),
		zap.String("reason", reason))
	m.metrics.RecordAuthFailure(failureClass(domainErr.Err))
}

func failureClass(err error) string {
	switch {
	case errors.Is(err, errNoToken), errors.Is(err, errMalformedHeader):
		return "no_token"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, errAccountMissing):
		return "account_not_found"
	case errors.Is(err, errAccountInactive):
		return "account_inactive"
	default:
		return "other"
	}
}

// PrincipalFromContext retrieves the authenticated principal.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal != nil
}
