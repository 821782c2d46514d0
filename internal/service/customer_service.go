package service

import (
	"context"
	"strings"

	"github.com/spec-kit/storefront/internal/auth"
	"github.com/spec-kit/storefront/internal/domain"
	"github.com/spec-kit/storefront/internal/repository"
	apperrors "github.com/spec-kit/storefront/pkg/util/errorutil"
)

// UpdateCustomerInput holds editable profile fields. Nil means unchanged.
type UpdateCustomerInput struct {
	Name  *string
	Phone *string
}

// CustomerService serves customer profiles under the self-access rule.
type CustomerService struct {
	customers repository.CustomerRepository
}

// NewCustomerService constructs the service.
func NewCustomerService(customers repository.CustomerRepository) *CustomerService {
	return &CustomerService{customers: customers}
}

// GetCustomer returns the customer with id if actor owns it or is an admin.
func (s *CustomerService) GetCustomer(ctx context.Context, actor *auth.Principal, id string) (*domain.CustomerAccount, error) {
	if err := auth.AuthorizeOwner(actor, id); err != nil {
		return nil, err
	}
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "customer")
	}
	return customer, nil
}

// UpdateCustomer edits a profile under the same ownership rule as GetCustomer.
func (s *CustomerService) UpdateCustomer(ctx context.Context, actor *auth.Principal, id string, in UpdateCustomerInput) (*domain.CustomerAccount, error) {
	if err := auth.AuthorizeOwner(actor, id); err != nil {
		return nil, err
	}
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "customer")
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name cannot be empty", nil)
		}
		customer.Name = name
	}
	if in.Phone != nil {
		customer.Phone = strings.TrimSpace(*in.Phone)
	}
	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, mapRepoError(err, "customer")
	}
	return customer, nil
}
