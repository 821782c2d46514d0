package service

import (
	"context"
	"errors"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront/internal/auth"
	"github.com/spec-kit/storefront/internal/config"
	"github.com/spec-kit/storefront/internal/domain"
	"github.com/spec-kit/storefront/internal/events"
	"github.com/spec-kit/storefront/internal/observability"
	"github.com/spec-kit/storefront/internal/repository"
	apperrors "github.com/spec-kit/storefront/pkg/util/errorutil"
)

var errInvalidCredentials = errors.New("invalid credentials")

// Session is a freshly issued bearer token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// RegisterCustomerInput carries the sign-up form.
type RegisterCustomerInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// AuthService coordinates registration, login and password flows.
type AuthService struct {
	staff      repository.StaffRepository
	customers  repository.CustomerRepository
	tokens     *auth.TokenService
	resets     *auth.ResetTokenStore
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger

	bcryptCost  int
	minPassword int
	publicURL   string
	dummyHash   string
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	StaffRepo    repository.StaffRepository
	CustomerRepo repository.CustomerRepository
	Tokens       *auth.TokenService
	Resets       *auth.ResetTokenStore
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	Logger       *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) (*AuthService, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	// Compared against when the email is unknown so both paths cost one bcrypt check.
	dummy, err := auth.HashPassword(uuid.NewString(), cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	return &AuthService{
		staff:       deps.StaffRepo,
		customers:   deps.CustomerRepo,
		tokens:      deps.Tokens,
		resets:      deps.Resets,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      logger,
		bcryptCost:  cfg.Auth.BcryptCost,
		minPassword: cfg.Auth.PasswordMinLength,
		publicURL:   cfg.App.PublicURL,
		dummyHash:   dummy,
	}, nil
}

// RegisterCustomer creates a storefront account and signs the customer in.
func (s *AuthService) RegisterCustomer(ctx context.Context, in RegisterCustomerInput) (*domain.CustomerAccount, Session, error) {
	email := normalizeEmail(in.Email)
	if strings.TrimSpace(in.Name) == "" || !validEmail(email) {
		return nil, Session{}, apperrors.NewValidationError("name and a valid email are required", nil)
	}
	if err := s.checkPassword(in.Password); err != nil {
		return nil, Session{}, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, Session{}, apperrors.NewInternalError(err)
	}
	customer := &domain.CustomerAccount{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		Status:       domain.CustomerStatusActive,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, Session{}, apperrors.NewConflict("email already registered", nil)
		}
		return nil, Session{}, apperrors.MapError(err)
	}

	session, err := s.issue(auth.Identity{SubjectID: customer.ID, Email: customer.Email, Kind: domain.AccountKindCustomer})
	if err != nil {
		return nil, Session{}, err
	}
	return customer, session, nil
}

// LoginCustomer authenticates a customer. Unknown email, wrong password and
// suspended status all yield the same 401.
func (s *AuthService) LoginCustomer(ctx context.Context, email, password string) (*domain.CustomerAccount, Session, error) {
	customer, err := s.customers.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, Session{}, apperrors.MapError(err)
		}
		_ = auth.ComparePassword(s.dummyHash, password)
		return nil, Session{}, apperrors.NewUnauthorized(errInvalidCredentials)
	}
	if err := auth.ComparePassword(customer.PasswordHash, password); err != nil {
		return nil, Session{}, apperrors.NewUnauthorized(errInvalidCredentials)
	}
	if customer.Status == domain.CustomerStatusSuspended {
		return nil, Session{}, apperrors.NewUnauthorized(errInvalidCredentials)
	}

	session, err := s.issue(auth.Identity{SubjectID: customer.ID, Email: customer.Email, Kind: domain.AccountKindCustomer})
	if err != nil {
		return nil, Session{}, err
	}
	return customer, session, nil
}

// LoginStaff authenticates a back-office account and returns a role-bearing token.
func (s *AuthService) LoginStaff(ctx context.Context, email, password string) (*domain.StaffAccount, Session, error) {
	staff, err := s.staff.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, Session{}, apperrors.MapError(err)
		}
		_ = auth.ComparePassword(s.dummyHash, password)
		return nil, Session{}, apperrors.NewUnauthorized(errInvalidCredentials)
	}
	if err := auth.ComparePassword(staff.PasswordHash, password); err != nil {
		return nil, Session{}, apperrors.NewUnauthorized(errInvalidCredentials)
	}
	if !staff.IsActive {
		return nil, Session{}, apperrors.NewUnauthorized(errInvalidCredentials)
	}

	session, err := s.issue(auth.Identity{SubjectID: staff.ID, Email: staff.Email, Role: staff.Role, Kind: domain.AccountKindStaff})
	if err != nil {
		return nil, Session{}, err
	}
	return staff, session, nil
}

// RequestPasswordReset issues a reset token when email belongs to an account
// and hands the link to the notification pipeline. The outcome is the same
// whether the address is malformed, unknown or registered, and the unknown
// path spends a token round trip against the store as well.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !validEmail(email) {
		s.logger.Debug("password reset requested for malformed email")
		s.resets.Decoy(ctx)
		return nil
	}

	kind, subjectID, err := s.findAccountByEmail(ctx, email)
	if err != nil {
		return err
	}
	if kind == "" {
		s.logger.Debug("password reset requested for unknown email")
		s.resets.Decoy(ctx)
		return nil
	}

	token, expiresAt, err := s.resets.Create(ctx, kind, email)
	if err != nil {
		return apperrors.MapError(err)
	}
	s.metrics.RecordResetToken("issued", 1)

	s.publish(ctx, events.EventPasswordResetRequested, events.Subject{Kind: kind, ID: subjectID}, events.PasswordResetRequestedPayload{
		Email:     email,
		ResetLink: s.resetLink(kind, token),
		ExpiresAt: expiresAt,
	})
	return nil
}

// ValidateResetToken reports whether token can still be used, without consuming it.
func (s *AuthService) ValidateResetToken(ctx context.Context, token string) error {
	if _, err := s.resets.Lookup(ctx, token); err != nil {
		return s.resetTokenError(err)
	}
	return nil
}

// ConfirmPasswordReset spends token and sets a new password on the account it
// was issued for. The token is burned before the password is written, so a
// failure in between leaves the account unchanged and the token unusable.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if strings.TrimSpace(token) == "" {
		return apperrors.NewValidationError("token is required", nil)
	}
	if err := s.checkPassword(newPassword); err != nil {
		return err
	}
	if _, err := s.resets.Lookup(ctx, token); err != nil {
		return s.resetTokenError(err)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	record, err := s.resets.Consume(ctx, token)
	if err != nil {
		return s.resetTokenError(err)
	}
	s.metrics.RecordResetToken("consumed", 1)

	subjectID, err := s.setPasswordByEmail(ctx, record.AccountKind, record.Email, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewInvalidResetToken()
		}
		return apperrors.MapError(err)
	}

	s.publish(ctx, events.EventPasswordResetCompleted, events.Subject{Kind: record.AccountKind, ID: subjectID},
		events.PasswordResetCompletedPayload{Email: record.Email})
	return nil
}

// ChangePassword replaces the caller's password after re-checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, principal *auth.Principal, currentPassword, newPassword string) error {
	if principal == nil {
		return apperrors.NewUnauthorized(nil)
	}
	if err := s.checkPassword(newPassword); err != nil {
		return err
	}

	var currentHash string
	switch principal.Kind {
	case domain.AccountKindStaff:
		staff, err := s.staff.GetByID(ctx, principal.ID)
		if err != nil {
			return mapRepoError(err, "staff account")
		}
		currentHash = staff.PasswordHash
	case domain.AccountKindCustomer:
		customer, err := s.customers.GetByID(ctx, principal.ID)
		if err != nil {
			return mapRepoError(err, "customer")
		}
		currentHash = customer.PasswordHash
	default:
		return apperrors.NewUnauthorized(nil)
	}
	if err := auth.ComparePassword(currentHash, currentPassword); err != nil {
		return apperrors.NewValidationError("current password is incorrect", nil)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if _, err := s.setPasswordByEmail(ctx, principal.Kind, principal.Email, hash); err != nil {
		return mapRepoError(err, "account")
	}

	s.publish(ctx, events.EventPasswordChanged, events.Subject{Kind: principal.Kind, ID: principal.ID},
		events.PasswordChangedPayload{Email: principal.Email})
	return nil
}

func (s *AuthService) issue(id auth.Identity) (Session, error) {
	token, expiresAt, err := s.tokens.Issue(id)
	if err != nil {
		return Session{}, apperrors.NewInternalError(err)
	}
	return Session{Token: token, ExpiresAt: expiresAt}, nil
}

// findAccountByEmail returns an empty kind when no account owns email. Staff
// accounts take precedence over customers.
func (s *AuthService) findAccountByEmail(ctx context.Context, email string) (domain.AccountKind, string, error) {
	staff, err := s.staff.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return domain.AccountKindStaff, staff.ID, nil
	case !errors.Is(err, repository.ErrNotFound):
		return "", "", apperrors.MapError(err)
	}

	customer, err := s.customers.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return domain.AccountKindCustomer, customer.ID, nil
	case !errors.Is(err, repository.ErrNotFound):
		return "", "", apperrors.MapError(err)
	}
	return "", "", nil
}

func (s *AuthService) setPasswordByEmail(ctx context.Context, kind domain.AccountKind, email, hash string) (string, error) {
	switch kind {
	case domain.AccountKindStaff:
		staff, err := s.staff.GetByEmail(ctx, email)
		if err != nil {
			return "", err
		}
		staff.PasswordHash = hash
		return staff.ID, s.staff.Update(ctx, staff)
	case domain.AccountKindCustomer:
		customer, err := s.customers.GetByEmail(ctx, email)
		if err != nil {
			return "", err
		}
		customer.PasswordHash = hash
		return customer.ID, s.customers.Update(ctx, customer)
	default:
		return "", repository.ErrNotFound
	}
}

func (s *AuthService) resetTokenError(err error) error {
	if errors.Is(err, auth.ErrResetTokenNotFound) {
		s.metrics.RecordResetToken("rejected", 1)
		return apperrors.NewInvalidResetToken()
	}
	return apperrors.MapError(err)
}

func (s *AuthService) resetLink(kind domain.AccountKind, token string) string {
	path := "/reset-password"
	if kind == domain.AccountKindStaff {
		path = "/admin/reset-password"
	}
	return s.publicURL + path + "?token=" + url.QueryEscape(token)
}

func (s *AuthService) checkPassword(password string) error {
	if err := auth.CheckPasswordLength(password, s.minPassword); err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{
			"min_length": s.minPassword,
			"max_bytes":  auth.MaxPasswordBytes,
		})
	}
	return nil
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, subject events.Subject, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail accepts a bare addr-spec; display names are rejected.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
