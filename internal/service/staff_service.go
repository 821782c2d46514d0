package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront/internal/auth"
	"github.com/spec-kit/storefront/internal/config"
	"github.com/spec-kit/storefront/internal/domain"
	"github.com/spec-kit/storefront/internal/events"
	"github.com/spec-kit/storefront/internal/repository"
	apperrors "github.com/spec-kit/storefront/pkg/util/errorutil"
)

// StaffService provisions back-office accounts and edits their grants.
type StaffService struct {
	staff       repository.StaffRepository
	registry    *auth.CapabilityRegistry
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	bcryptCost  int
	minPassword int
}

// StaffDependencies encapsulates collaborators for staff management.
type StaffDependencies struct {
	StaffRepo  repository.StaffRepository
	Registry   *auth.CapabilityRegistry
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// StaffListFilters define listing parameters.
type StaffListFilters struct {
	Role   *domain.StaffRole
	Active *bool
	Limit  int
	Offset int
}

// CreateStaffInput carries a new staff account.
type CreateStaffInput struct {
	Name        string
	Email       string
	Password    string
	Role        domain.StaffRole
	Permissions []string
}

// NewStaffService constructs the service.
func NewStaffService(cfg config.Config, deps StaffDependencies) *StaffService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := deps.Registry
	if registry == nil {
		registry = auth.DefaultCapabilityRegistry()
	}
	return &StaffService{
		staff:       deps.StaffRepo,
		registry:    registry,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		bcryptCost:  cfg.Auth.BcryptCost,
		minPassword: cfg.Auth.PasswordMinLength,
	}
}

func requireAdmin(actor *auth.Principal) error {
	if actor == nil {
		return apperrors.NewUnauthorized(nil)
	}
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// EnsureBootstrapAdmin creates the first admin account when email is not yet
// registered. It is a no-op when email is empty.
func (s *StaffService) EnsureBootstrapAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}
	if _, err := s.staff.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	admin := &domain.StaffAccount{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		Role:         domain.StaffRoleAdmin,
		IsActive:     true,
	}
	if err := s.staff.Create(ctx, admin); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return err
	}
	s.logger.Info("bootstrap admin created", zap.String("staff_id", admin.ID))
	return nil
}

// CreateStaff adds a new staff account. Permission names must be registered.
func (s *StaffService) CreateStaff(ctx context.Context, actor *auth.Principal, in CreateStaffInput) (*domain.StaffAccount, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	email := normalizeEmail(in.Email)
	if strings.TrimSpace(in.Name) == "" || !validEmail(email) {
		return nil, apperrors.NewValidationError("name and a valid email are required", nil)
	}
	if !in.Role.Valid() {
		return nil, apperrors.NewValidationError("role must be admin or team", map[string]any{"role": in.Role})
	}
	if err := auth.CheckPasswordLength(in.Password, s.minPassword); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{
			"min_length": s.minPassword,
			"max_bytes":  auth.MaxPasswordBytes,
		})
	}
	perms, err := s.validatePermissions(in.Permissions)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	staff := &domain.StaffAccount{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		Permissions:  perms,
		IsActive:     true,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("staff email already exists", map[string]any{"email": email})
		}
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// ListStaff lists staff with filters.
func (s *StaffService) ListStaff(ctx context.Context, actor *auth.Principal, filters StaffListFilters) ([]domain.StaffAccount, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	list, err := s.staff.List(ctx, repository.StaffFilter{
		Role:   filters.Role,
		Active: filters.Active,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// GetStaff fetches one staff account.
func (s *StaffService) GetStaff(ctx context.Context, actor *auth.Principal, id string) (*domain.StaffAccount, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "staff account")
	}
	return staff, nil
}

// UpdatePermissions replaces the permission set of a staff account. It takes
// effect on the account's next request.
func (s *StaffService) UpdatePermissions(ctx context.Context, actor *auth.Principal, id string, names []string) (*domain.StaffAccount, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	perms, err := s.validatePermissions(names)
	if err != nil {
		return nil, err
	}
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "staff account")
	}
	staff.Permissions = perms
	if err := s.staff.Update(ctx, staff); err != nil {
		return nil, mapRepoError(err, "staff account")
	}
	return staff, nil
}

// SetActive deactivates or reactivates a staff account. Deactivation is seen
// by the next request carrying any of the account's tokens. Admins cannot
// deactivate themselves.
func (s *StaffService) SetActive(ctx context.Context, actor *auth.Principal, id string, active bool) (*domain.StaffAccount, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !active && actor.ID == id {
		return nil, apperrors.NewConflict("admins cannot deactivate their own account", nil)
	}
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "staff account")
	}
	if staff.IsActive == active {
		return staff, nil
	}
	staff.IsActive = active
	if err := s.staff.Update(ctx, staff); err != nil {
		return nil, mapRepoError(err, "staff account")
	}

	if !active && s.dispatcher != nil {
		event := events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventStaffDeactivated,
			Subject:   events.Subject{Kind: domain.AccountKindStaff, ID: staff.ID},
			Timestamp: time.Now().UTC(),
			Payload:   events.StaffDeactivatedPayload{StaffID: staff.ID, ByID: actor.ID},
		}
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		}
	}
	return staff, nil
}

// Capabilities lists the grantable capability names.
func (s *StaffService) Capabilities() []domain.Capability {
	return s.registry.All()
}

func (s *StaffService) validatePermissions(names []string) ([]domain.Capability, error) {
	perms, err := s.registry.Validate(names)
	if err != nil {
		if errors.Is(err, auth.ErrUnknownCapability) {
			return nil, apperrors.NewValidationError(err.Error(), map[string]any{"allowed": s.registry.All()})
		}
		return nil, apperrors.MapError(err)
	}
	return perms, nil
}
