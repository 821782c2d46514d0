package auth

import (
	"context"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/storefront/internal/domain"
	"github.com/spec-kit/storefront/internal/repository"
	apperrors "github.com/spec-kit/storefront/pkg/util/errorutil"
)

type fixture struct {
	tokens    *TokenService
	staff     *repository.MemoryStaffRepository
	customers *repository.MemoryCustomerRepository
	resolver  *AuthResolver
	mw        *AuthMiddleware
	engine    *PermissionEngine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := NewTokenService("fixture-secret", time.Hour)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	f := &fixture{
		tokens:    tokens,
		staff:     repository.NewMemoryStaffRepository(),
		customers: repository.NewMemoryCustomerRepository(),
	}
	f.resolver = NewAuthResolver(tokens, f.staff, f.customers)
	f.mw = NewAuthMiddleware(f.resolver, nil, nil)
	f.engine = NewPermissionEngine(DefaultCapabilityRegistry(), nil)
	return f
}

func (f *fixture) addStaff(t *testing.T, email string, role domain.StaffRole, perms ...domain.Capability) *domain.StaffAccount {
	t.Helper()
	hash, _ := HashPassword("secret123", bcrypt.MinCost)
	staff := &domain.StaffAccount{Name: email, Email: email, PasswordHash: hash, Role: role, Permissions: perms, IsActive: true}
	if err := f.staff.Create(context.Background(), staff); err != nil {
		t.Fatalf("create staff: %v", err)
	}
	return staff
}

func (f *fixture) addCustomer(t *testing.T, email string) *domain.CustomerAccount {
	t.Helper()
	hash, _ := HashPassword("secret123", bcrypt.MinCost)
	customer := &domain.CustomerAccount{Name: email, Email: email, PasswordHash: hash, Status: domain.CustomerStatusActive}
	if err := f.customers.Create(context.Background(), customer); err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return customer
}

func (f *fixture) staffToken(t *testing.T, staff *domain.StaffAccount) string {
	t.Helper()
	token, _, err := f.tokens.Issue(Identity{SubjectID: staff.ID, Email: staff.Email, Role: staff.Role, Kind: domain.AccountKindStaff})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return token
}

func (f *fixture) customerToken(t *testing.T, customer *domain.CustomerAccount) string {
	t.Helper()
	token, _, err := f.tokens.Issue(Identity{SubjectID: customer.ID, Email: customer.Email, Kind: domain.AccountKindCustomer})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return token
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code, "message": de.Message})
		},
	})
}

func ok(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}
