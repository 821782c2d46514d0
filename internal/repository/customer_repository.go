package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/storefront/internal/domain"
)

// CustomerRepository defines persistence access for storefront customers.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.CustomerAccount) error
	Update(ctx context.Context, customer *domain.CustomerAccount) error
	GetByID(ctx context.Context, id string) (*domain.CustomerAccount, error)
	GetByEmail(ctx context.Context, email string) (*domain.CustomerAccount, error)
}

type customerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a Postgres-backed implementation.
func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &customerRepository{pool: pool}
}

const customerColumns = `id, name, email, phone, password_hash, status, created_at, updated_at`

func (r *customerRepository) Create(ctx context.Context, customer *domain.CustomerAccount) error {
	const query = `
        INSERT INTO customer_accounts (name, email, phone, password_hash, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		customer.Name,
		strings.ToLower(customer.Email),
		customer.Phone,
		customer.PasswordHash,
		customer.Status,
	).Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
	return mapPgError(err)
}

func (r *customerRepository) Update(ctx context.Context, customer *domain.CustomerAccount) error {
	const query = `
        UPDATE customer_accounts SET name=$1, email=$2, phone=$3, password_hash=$4, status=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		customer.Name,
		strings.ToLower(customer.Email),
		customer.Phone,
		customer.PasswordHash,
		customer.Status,
		customer.ID,
	).Scan(&customer.UpdatedAt)
	return mapPgError(err)
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.CustomerAccount, error) {
	query := `SELECT ` + customerColumns + ` FROM customer_accounts WHERE id=$1`
	return scanCustomer(r.pool.QueryRow(ctx, query, id))
}

func (r *customerRepository) GetByEmail(ctx context.Context, email string) (*domain.CustomerAccount, error) {
	query := `SELECT ` + customerColumns + ` FROM customer_accounts WHERE email=$1`
	return scanCustomer(r.pool.QueryRow(ctx, query, strings.ToLower(email)))
}

func scanCustomer(row pgx.Row) (*domain.CustomerAccount, error) {
	var customer domain.CustomerAccount
	if err := row.Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
		&customer.PasswordHash,
		&customer.Status,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	return &customer, nil
}
