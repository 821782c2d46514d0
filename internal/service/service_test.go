package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/storefront/internal/auth"
	"github.com/spec-kit/storefront/internal/config"
	"github.com/spec-kit/storefront/internal/domain"
	"github.com/spec-kit/storefront/internal/events"
	"github.com/spec-kit/storefront/internal/repository"
	apperrors "github.com/spec-kit/storefront/pkg/util/errorutil"
)

func testConfig() config.Config {
	return config.Config{
		App: config.AppConfig{PublicURL: "https://shop.test"},
		Auth: config.AuthConfig{
			JWTSecret:               "service-test-secret",
			AccessTokenTTLMinutes:   60,
			PasswordResetTTLMinutes: 15,
			BcryptCost:              bcrypt.MinCost,
			PasswordMinLength:       6,
		},
	}
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) subscribe(d events.Dispatcher, types ...events.EventType) {
	for _, t := range types {
		d.Subscribe(t, func(_ context.Context, e events.Event) error {
			r.mu.Lock()
			r.events = append(r.events, e)
			r.mu.Unlock()
			return nil
		})
	}
}

func (r *recorder) last() (events.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return events.Event{}, false
	}
	return r.events[len(r.events)-1], true
}

func adminPrincipal(id string) *auth.Principal {
	return &auth.Principal{ID: id, Kind: domain.AccountKindStaff, Role: domain.StaffRoleAdmin}
}

func teamPrincipal(id string) *auth.Principal {
	return &auth.Principal{ID: id, Kind: domain.AccountKindStaff, Role: domain.StaffRoleTeam}
}

func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	if !apperrors.IsStatus(err, status) {
		t.Fatalf("expected status %d, got %v", status, err)
	}
}

func TestStaffServiceAdminOnly(t *testing.T) {
	svc := NewStaffService(testConfig(), StaffDependencies{StaffRepo: repository.NewMemoryStaffRepository()})
	_, err := svc.CreateStaff(context.Background(), teamPrincipal("t1"), CreateStaffInput{
		Name: "x", Email: "x@shop.test", Password: "secret1", Role: domain.StaffRoleTeam,
	})
	wantStatus(t, err, http.StatusForbidden)

	_, err = svc.ListStaff(context.Background(), nil, StaffListFilters{})
	wantStatus(t, err, http.StatusUnauthorized)
}

func TestStaffServiceBootstrapIsIdempotent(t *testing.T) {
	repo := repository.NewMemoryStaffRepository()
	svc := NewStaffService(testConfig(), StaffDependencies{StaffRepo: repo})
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := svc.EnsureBootstrapAdmin(ctx, "Root@Shop.test", "root-pass"); err != nil {
			t.Fatalf("bootstrap %d: %v", i, err)
		}
	}
	list, _ := repo.List(ctx, repository.StaffFilter{})
	if len(list) != 1 || list[0].Role != domain.StaffRoleAdmin {
		t.Fatalf("expected one admin, got %+v", list)
	}
	if err := svc.EnsureBootstrapAdmin(ctx, "", ""); err != nil {
		t.Fatalf("empty bootstrap should be a no-op: %v", err)
	}
}

func TestStaffServiceSetActive(t *testing.T) {
	repo := repository.NewMemoryStaffRepository()
	dispatcher := events.NewInMemoryDispatcher()
	rec := &recorder{}
	rec.subscribe(dispatcher, events.EventStaffDeactivated)
	svc := NewStaffService(testConfig(), StaffDependencies{StaffRepo: repo, Dispatcher: dispatcher})
	ctx := context.Background()

	admin := adminPrincipal("admin-1")
	member, err := svc.CreateStaff(ctx, admin, CreateStaffInput{
		Name: "Sam", Email: "sam@shop.test", Password: "secret1", Role: domain.StaffRoleTeam,
		Permissions: []string{"orders.view"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.SetActive(ctx, adminPrincipal(member.ID), member.ID, false)
	wantStatus(t, err, http.StatusConflict)

	updated, err := svc.SetActive(ctx, admin, member.ID, false)
	if err != nil || updated.IsActive {
		t.Fatalf("deactivate: %v %+v", err, updated)
	}
	event, ok := rec.last()
	if !ok || event.Subject.ID != member.ID {
		t.Fatalf("expected deactivation event, got %+v", event)
	}
	payload := event.Payload.(events.StaffDeactivatedPayload)
	if payload.ByID != admin.ID {
		t.Fatalf("unexpected actor %q", payload.ByID)
	}

	_, err = svc.SetActive(ctx, admin, "missing", true)
	wantStatus(t, err, http.StatusNotFound)
}

func TestStaffServiceRejectsUnknownCapability(t *testing.T) {
	svc := NewStaffService(testConfig(), StaffDependencies{StaffRepo: repository.NewMemoryStaffRepository()})
	_, err := svc.CreateStaff(context.Background(), adminPrincipal("a"), CreateStaffInput{
		Name: "x", Email: "x@shop.test", Password: "secret1", Role: domain.StaffRoleTeam,
		Permissions: []string{"orders.view", "orders.delete"},
	})
	wantStatus(t, err, http.StatusBadRequest)
	de := apperrors.ToDomainError(err)
	if _, ok := de.Details["allowed"]; !ok {
		t.Fatalf("expected allowed list in details, got %+v", de.Details)
	}
}

func newAuthService(t *testing.T) (*AuthService, *repository.MemoryCustomerRepository, *recorder) {
	t.Helper()
	cfg := testConfig()
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	customers := repository.NewMemoryCustomerRepository()
	dispatcher := events.NewInMemoryDispatcher()
	rec := &recorder{}
	rec.subscribe(dispatcher, events.EventPasswordResetRequested, events.EventPasswordChanged)
	svc, err := NewAuthService(cfg, AuthDependencies{
		StaffRepo:    repository.NewMemoryStaffRepository(),
		CustomerRepo: customers,
		Tokens:       tokens,
		Resets:       auth.NewResetTokenStore(repository.NewMemoryPasswordResetRepository(), cfg.Auth.PasswordResetTTL()),
		Dispatcher:   dispatcher,
	})
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	return svc, customers, rec
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()
	if _, _, err := svc.RegisterCustomer(ctx, RegisterCustomerInput{Name: "Ada", Email: "ada@shop.test", Password: "hunter22"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, unknown := svc.LoginCustomer(ctx, "nobody@shop.test", "hunter22")
	_, _, wrong := svc.LoginCustomer(ctx, "ada@shop.test", "nope-nope")
	a, b := apperrors.ToDomainError(unknown), apperrors.ToDomainError(wrong)
	if a.HTTPStatus != http.StatusUnauthorized || a.Code != b.Code || a.Message != b.Message {
		t.Fatalf("login failures differ: %+v vs %+v", a, b)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc, _, _ := newAuthService(t)
	_, _, err := svc.RegisterCustomer(context.Background(), RegisterCustomerInput{Name: "Ada", Email: "ada@shop.test", Password: "abc"})
	wantStatus(t, err, http.StatusBadRequest)
}

type countingResetRepo struct {
	repository.PasswordResetRepository
	mu      sync.Mutex
	lookups int
	creates int
}

func (r *countingResetRepo) Create(ctx context.Context, token *domain.ResetToken) error {
	r.mu.Lock()
	r.creates++
	r.mu.Unlock()
	return r.PasswordResetRepository.Create(ctx, token)
}

func (r *countingResetRepo) GetByHash(ctx context.Context, hash string) (*domain.ResetToken, error) {
	r.mu.Lock()
	r.lookups++
	r.mu.Unlock()
	return r.PasswordResetRepository.GetByHash(ctx, hash)
}

func TestResetRequestForUnknownEmailTouchesStore(t *testing.T) {
	cfg := testConfig()
	tokens, _ := auth.NewTokenService(cfg.Auth.JWTSecret, time.Hour)
	repo := &countingResetRepo{PasswordResetRepository: repository.NewMemoryPasswordResetRepository()}
	svc, err := NewAuthService(cfg, AuthDependencies{
		StaffRepo:    repository.NewMemoryStaffRepository(),
		CustomerRepo: repository.NewMemoryCustomerRepository(),
		Tokens:       tokens,
		Resets:       auth.NewResetTokenStore(repo, cfg.Auth.PasswordResetTTL()),
	})
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}

	for _, email := range []string{"ghost@shop.test", "not-an-email"} {
		if err := svc.RequestPasswordReset(context.Background(), email); err != nil {
			t.Fatalf("%q: expected nil, got %v", email, err)
		}
	}
	if repo.creates != 0 || repo.lookups != 2 {
		t.Fatalf("expected two store reads and no writes, got creates=%d lookups=%d", repo.creates, repo.lookups)
	}
}

func TestResetWithUnknownTokenIsRejected(t *testing.T) {
	svc, _, rec := newAuthService(t)
	ctx := context.Background()
	if err := svc.RequestPasswordReset(ctx, "ghost@shop.test"); err != nil {
		t.Fatalf("unknown email must not error: %v", err)
	}
	if _, ok := rec.last(); ok {
		t.Fatalf("no event expected for unknown email")
	}

	err := svc.ConfirmPasswordReset(ctx, "not-a-real-token", "long-enough")
	wantStatus(t, err, http.StatusBadRequest)
	if apperrors.ToDomainError(err).Code != "INVALID_RESET_TOKEN" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestChangePasswordPublishesEvent(t *testing.T) {
	svc, customers, rec := newAuthService(t)
	ctx := context.Background()
	customer, _, err := svc.RegisterCustomer(ctx, RegisterCustomerInput{Name: "Ada", Email: "ada@shop.test", Password: "hunter22"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	principal := &auth.Principal{ID: customer.ID, Email: customer.Email, Kind: domain.AccountKindCustomer}

	if err := svc.ChangePassword(ctx, principal, "hunter22", "better-pass"); err != nil {
		t.Fatalf("change: %v", err)
	}
	stored, _ := customers.GetByID(ctx, customer.ID)
	if auth.ComparePassword(stored.PasswordHash, "better-pass") != nil {
		t.Fatalf("new password not stored")
	}
	event, ok := rec.last()
	if !ok || event.Type != events.EventPasswordChanged {
		t.Fatalf("expected password changed event, got %+v", event)
	}
}

func TestMessageService(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	rec := &recorder{}
	rec.subscribe(dispatcher, events.EventMessageReplied)
	svc := NewMessageService(repository.NewMemoryMessageRepository(), dispatcher, nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitMessageInput{Email: "not-an-email", Subject: "", Body: ""})
	wantStatus(t, err, http.StatusBadRequest)

	msg, err := svc.Submit(ctx, SubmitMessageInput{Name: "Bob", Email: "Bob@Shop.test", Subject: "Hi", Body: "question"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if msg.Status != domain.MessageStatusNew || msg.Email != "bob@shop.test" {
		t.Fatalf("unexpected message %+v", msg)
	}

	customer := &auth.Principal{ID: "c1", Kind: domain.AccountKindCustomer}
	_, err = svc.Reply(ctx, customer, msg.ID, "hello")
	wantStatus(t, err, http.StatusForbidden)

	replied, err := svc.Reply(ctx, teamPrincipal("t1"), msg.ID, "answer")
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if replied.Status != domain.MessageStatusReplied || len(replied.Replies) != 1 {
		t.Fatalf("unexpected reply state %+v", replied)
	}
	event, ok := rec.last()
	if !ok || event.Payload.(events.MessageRepliedPayload).Recipient != "bob@shop.test" {
		t.Fatalf("unexpected event %+v", event)
	}

	_, err = svc.Get(ctx, "missing")
	wantStatus(t, err, http.StatusNotFound)
}
