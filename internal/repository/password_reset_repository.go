package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/storefront/internal/domain"
)

// PasswordResetRepository manages password reset token persistence. Rows are
// keyed by the token digest; Delete is the only way a token is consumed.
type PasswordResetRepository interface {
	Create(ctx context.Context, token *domain.ResetToken) error
	GetByHash(ctx context.Context, tokenHash string) (*domain.ResetToken, error)
	// Delete removes the row and reports whether this call removed it.
	Delete(ctx context.Context, tokenHash string) (bool, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type passwordResetRepository struct {
	pool *pgxpool.Pool
}

// NewPasswordResetRepository constructs repository.
func NewPasswordResetRepository(pool *pgxpool.Pool) PasswordResetRepository {
	return &passwordResetRepository{pool: pool}
}

func (r *passwordResetRepository) Create(ctx context.Context, token *domain.ResetToken) error {
	const query = `
        INSERT INTO password_reset_tokens (token_hash, email, account_kind, expires_at)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		token.TokenHash,
		token.Email,
		token.AccountKind,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
	return mapPgError(err)
}

func (r *passwordResetRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.ResetToken, error) {
	const query = `
        SELECT id, token_hash, email, account_kind, expires_at, created_at
        FROM password_reset_tokens WHERE token_hash=$1`
	var token domain.ResetToken
	if err := r.pool.QueryRow(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.TokenHash,
		&token.Email,
		&token.AccountKind,
		&token.ExpiresAt,
		&token.CreatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	return &token, nil
}

func (r *passwordResetRepository) Delete(ctx context.Context, tokenHash string) (bool, error) {
	const query = `DELETE FROM password_reset_tokens WHERE token_hash=$1`
	cmd, err := r.pool.Exec(ctx, query, tokenHash)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *passwordResetRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM password_reset_tokens WHERE expires_at <= $1`
	cmd, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
