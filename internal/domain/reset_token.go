package domain

import "time"

// ResetToken is a persisted single-use password reset grant. Only the digest
// of the opaque token is stored.
type ResetToken struct {
	ID          string
	TokenHash   string
	Email       string
	AccountKind AccountKind
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// Expired reports whether the token is unusable at now.
func (t *ResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
