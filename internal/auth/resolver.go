package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/storefront/internal/domain"
	"github.com/spec-kit/storefront/internal/repository"
	apperrors "github.com/spec-kit/storefront/pkg/util/errorutil"
)

var (
	errNoToken         = errors.New("missing bearer token")
	errMalformedHeader = errors.New("malformed authorization header")
	errNoPrincipal     = errors.New("no principal on request")
	errAccountMissing  = errors.New("account not found")
	errAccountInactive = errors.New("account inactive")
)

// AuthResolver turns an Authorization header into a Principal. Verification,
// account load and the active check run in that order on every call; the
// token's role claim is never trusted over the stored account.
type AuthResolver struct {
	tokens    *TokenService
	staff     repository.StaffRepository
	customers repository.CustomerRepository
}

// NewAuthResolver constructs a resolver.
func NewAuthResolver(tokens *TokenService, staff repository.StaffRepository, customers repository.CustomerRepository) *AuthResolver {
	return &AuthResolver{tokens: tokens, staff: staff, customers: customers}
}

// Resolve returns the Principal for header. Expected failures are a 401
// DomainError whose reason is only visible to logs; store faults surface as
// internal errors.
func (r *AuthResolver) Resolve(ctx context.Context, header string) (*Principal, error) {
	token, err := bearerToken(header)
	if err != nil {
		return nil, apperrors.NewUnauthorized(err)
	}

	claims, err := r.tokens.Verify(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized(err)
	}

	switch claims.Kind {
	case domain.AccountKindStaff:
		staff, err := r.staff.GetByID(ctx, claims.SubjectID())
		if err != nil {
			return nil, accountLoadError(err)
		}
		if !staff.IsActive {
			return nil, apperrors.NewUnauthorized(errAccountInactive)
		}
		return newStaffPrincipal(staff), nil
	case domain.AccountKindCustomer:
		customer, err := r.customers.GetByID(ctx, claims.SubjectID())
		if err != nil {
			return nil, accountLoadError(err)
		}
		if customer.Status == domain.CustomerStatusSuspended {
			return nil, apperrors.NewUnauthorized(errAccountInactive)
		}
		return newCustomerPrincipal(customer), nil
	default:
		return nil, apperrors.NewUnauthorized(ErrInvalidToken)
	}
}

func accountLoadError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewUnauthorized(errAccountMissing)
	}
	return apperrors.MapError(err)
}

func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errNoToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errMalformedHeader
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errNoToken
	}
	return token, nil
}
