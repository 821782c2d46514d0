package dto

import (
	"time"

	"github.com/spec-kit/storefront/internal/domain"
)

// StaffCreateRequest payload for provisioning staff.
type StaffCreateRequest struct {
	Name        string           `json:"name"`
	Email       string           `json:"email"`
	Password    string           `json:"password"`
	Role        domain.StaffRole `json:"role"`
	Permissions []string         `json:"permissions"`
}

// StaffPermissionsRequest replaces a staff account's grants.
type StaffPermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// StaffResponse exposes a staff account without its password hash.
type StaffResponse struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Email       string              `json:"email"`
	Role        domain.StaffRole    `json:"role"`
	Permissions []domain.Capability `json:"permissions"`
	IsActive    bool                `json:"is_active"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// NewStaffResponse maps a staff account.
func NewStaffResponse(s *domain.StaffAccount) StaffResponse {
	perms := s.Permissions
	if perms == nil {
		perms = []domain.Capability{}
	}
	return StaffResponse{
		ID:          s.ID,
		Name:        s.Name,
		Email:       s.Email,
		Role:        s.Role,
		Permissions: perms,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// CustomerUpdateRequest edits a customer profile.
type CustomerUpdateRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// CustomerResponse exposes a customer account without its password hash.
type CustomerResponse struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Email     string                `json:"email"`
	Phone     string                `json:"phone,omitempty"`
	Status    domain.CustomerStatus `json:"status"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// NewCustomerResponse maps a customer account.
func NewCustomerResponse(c *domain.CustomerAccount) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Status:    c.Status,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
