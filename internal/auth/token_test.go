package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/storefront/internal/domain"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	if _, err := NewTokenService("", time.Hour); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}

func TestIssueVerifyRoundTripUntilExpiry(t *testing.T) {
	clock := newTestClock()
	ts, err := NewTokenService("test-secret", time.Hour, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}

	id := Identity{SubjectID: "staff-1", Email: "ops@shop.test", Role: domain.StaffRoleTeam, Kind: domain.AccountKindStaff}
	token, expiresAt, err := ts.Issue(id)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expiresAt.Equal(clock.Now().Add(time.Hour)) {
		t.Fatalf("unexpected expiry %s", expiresAt)
	}

	claims, err := ts.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.SubjectID() != id.SubjectID || claims.Email != id.Email || claims.Role != id.Role || claims.Kind != id.Kind {
		t.Fatalf("claims changed in transit: %+v", claims)
	}
	if !claims.IssuedAt.Time.Equal(clock.Now()) {
		t.Fatalf("unexpected iat %s", claims.IssuedAt.Time)
	}

	clock.Advance(time.Hour - time.Second)
	if _, err := ts.Verify(token); err != nil {
		t.Fatalf("token rejected before expiry: %v", err)
	}

	clock.Advance(time.Second)
	if _, err := ts.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken at expiry, got %v", err)
	}
}

func TestVerifyRejectsTamperedTokens(t *testing.T) {
	ts, _ := NewTokenService("test-secret", time.Hour)
	token, _, err := ts.Issue(Identity{SubjectID: "c-1", Email: "a@x.com", Kind: domain.AccountKindCustomer})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape %q", token)
	}
	payload := []byte(parts[1])
	for i := range payload {
		tampered := append([]byte(nil), payload...)
		if tampered[i] == 'A' {
			tampered[i] = 'B'
		} else {
			tampered[i] = 'A'
		}
		forged := parts[0] + "." + string(tampered) + "." + parts[2]
		if _, err := ts.Verify(forged); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("byte %d flipped: expected ErrInvalidToken, got %v", i, err)
		}
	}
}

func TestVerifyRejectsForeignSecretAndAlgorithms(t *testing.T) {
	ts, _ := NewTokenService("test-secret", time.Hour)
	other, _ := NewTokenService("other-secret", time.Hour)

	token, _, _ := other.Issue(Identity{SubjectID: "c-1", Kind: domain.AccountKindCustomer})
	if _, err := ts.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign signature accepted: %v", err)
	}

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		Kind: domain.AccountKindCustomer,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "c-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	none, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := ts.Verify(none); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("alg=none accepted: %v", err)
	}

	for _, junk := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := ts.Verify(junk); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%q: expected ErrInvalidToken, got %v", junk, err)
		}
	}
}

func TestVerifyRequiresSubjectAndKind(t *testing.T) {
	ts, _ := NewTokenService("test-secret", time.Hour)
	for _, id := range []Identity{
		{Email: "a@x.com", Kind: domain.AccountKindCustomer},
		{SubjectID: "c-1", Kind: "ROBOT"},
	} {
		token, _, err := ts.Issue(id)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if _, err := ts.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%+v: expected ErrInvalidToken, got %v", id, err)
		}
	}
}

func TestVerifyEnforcesIssuer(t *testing.T) {
	a, _ := NewTokenService("test-secret", time.Hour, WithIssuer("storefront"))
	b, _ := NewTokenService("test-secret", time.Hour, WithIssuer("elsewhere"))
	token, _, _ := b.Issue(Identity{SubjectID: "c-1", Kind: domain.AccountKindCustomer})
	if _, err := a.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token from another issuer accepted: %v", err)
	}
}
