package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/spec-kit/storefront/internal/domain"
	"github.com/spec-kit/storefront/internal/repository"
)

// ErrResetTokenNotFound covers unknown, expired and already consumed reset tokens.
var ErrResetTokenNotFound = errors.New("reset token not found")

// DefaultResetTTL is the reset token lifetime when none is configured.
const DefaultResetTTL = 15 * time.Minute

const resetTokenBytes = 32

// ResetTokenStore issues single-use password reset tokens. The opaque token
// is returned once; only its BLAKE3 digest is persisted.
type ResetTokenStore struct {
	repo repository.PasswordResetRepository
	ttl  time.Duration
	now  func() time.Time
}

// NewResetTokenStore builds a store with the given token lifetime.
func NewResetTokenStore(repo repository.PasswordResetRepository, ttl time.Duration) *ResetTokenStore {
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}
	return &ResetTokenStore{repo: repo, ttl: ttl, now: time.Now}
}

// SetClock overrides the time source.
func (s *ResetTokenStore) SetClock(now func() time.Time) {
	s.now = now
}

// TTL returns the configured lifetime.
func (s *ResetTokenStore) TTL() time.Duration {
	return s.ttl
}

// Create issues a new token for the account identified by kind and email.
// Earlier tokens for the same email stay valid until used or expired.
func (s *ResetTokenStore) Create(ctx context.Context, kind domain.AccountKind, email string) (string, time.Time, error) {
	token, err := newResetToken()
	if err != nil {
		return "", time.Time{}, err
	}

	record := &domain.ResetToken{
		TokenHash:   hashResetToken(token),
		Email:       strings.ToLower(email),
		AccountKind: kind,
		ExpiresAt:   s.now().Add(s.ttl),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return "", time.Time{}, fmt.Errorf("store reset token: %w", err)
	}
	return token, record.ExpiresAt, nil
}

// Decoy does the work of Create without persisting anything: it draws and
// hashes a token and reads the store for it. It keeps requests for unknown
// emails from answering measurably faster than real ones.
func (s *ResetTokenStore) Decoy(ctx context.Context) {
	token, err := newResetToken()
	if err != nil {
		return
	}
	_, _ = s.repo.GetByHash(ctx, hashResetToken(token))
}

// Lookup returns the live record for token. Expired records are reported as
// ErrResetTokenNotFound whether or not the reaper has removed them.
func (s *ResetTokenStore) Lookup(ctx context.Context, token string) (*domain.ResetToken, error) {
	if token == "" {
		return nil, ErrResetTokenNotFound
	}
	record, err := s.repo.GetByHash(ctx, hashResetToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResetTokenNotFound
		}
		return nil, err
	}
	if record.Expired(s.now()) {
		return nil, ErrResetTokenNotFound
	}
	return record, nil
}

// Consume burns token. Only the caller whose delete removed the row gets the
// record back; every concurrent or later attempt sees ErrResetTokenNotFound.
// Callers apply the password change after Consume returns so a crash in
// between leaves the token spent.
func (s *ResetTokenStore) Consume(ctx context.Context, token string) (*domain.ResetToken, error) {
	record, err := s.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	deleted, err := s.repo.Delete(ctx, record.TokenHash)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, ErrResetTokenNotFound
	}
	return record, nil
}

// Sweep deletes records that expired before now.
func (s *ResetTokenStore) Sweep(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

func newResetToken() (string, error) {
	raw := make([]byte, resetTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func hashResetToken(token string) string {
	sum := blake3.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
