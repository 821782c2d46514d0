package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront/internal/api/dto"
	"github.com/spec-kit/storefront/internal/auth"
	"github.com/spec-kit/storefront/internal/domain"
	"github.com/spec-kit/storefront/internal/service"
	apperrors "github.com/spec-kit/storefront/pkg/util/errorutil"
)

// StaffHandler exposes back-office staff administration.
type StaffHandler struct {
	staff *service.StaffService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(staffService *service.StaffService) *StaffHandler {
	return &StaffHandler{staff: staffService}
}

// CreateStaff handles POST /admin/staff.
func (h *StaffHandler) CreateStaff(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(nil)
	}
	var req dto.StaffCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return errInvalidPayload
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("name, email, password required", nil)
	}
	if req.Role == "" {
		req.Role = domain.StaffRoleTeam
	}

	staff, err := h.staff.CreateStaff(c.UserContext(), principal, service.CreateStaffInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		Permissions: req.Permissions,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewStaffResponse(staff)})
}

// ListStaff handles GET /admin/staff.
func (h *StaffHandler) ListStaff(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(nil)
	}
	filters := service.StaffListFilters{Active: parseBoolQuery(c, "active")}
	if roleStr := c.Query("role"); roleStr != "" {
		role := domain.StaffRole(roleStr)
		filters.Role = &role
	}
	filters.Limit, filters.Offset = parsePage(c)

	list, err := h.staff.ListStaff(c.UserContext(), principal, filters)
	if err != nil {
		return err
	}
	resp := make([]dto.StaffResponse, 0, len(list))
	for i := range list {
		resp = append(resp, dto.NewStaffResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetStaff handles GET /admin/staff/:id.
func (h *StaffHandler) GetStaff(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(nil)
	}
	staff, err := h.staff.GetStaff(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffResponse(staff)})
}

// UpdatePermissions handles PUT /admin/staff/:id/permissions.
func (h *StaffHandler) UpdatePermissions(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(nil)
	}
	var req dto.StaffPermissionsRequest
	if err := c.BodyParser(&req); err != nil {
		return errInvalidPayload
	}
	staff, err := h.staff.UpdatePermissions(c.UserContext(), principal, c.Params("id"), req.Permissions)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffResponse(staff)})
}

// Deactivate handles POST /admin/staff/:id/deactivate.
func (h *StaffHandler) Deactivate(c *fiber.Ctx) error {
	return h.setActive(c, false)
}

// Activate handles POST /admin/staff/:id/activate.
func (h *StaffHandler) Activate(c *fiber.Ctx) error {
	return h.setActive(c, true)
}

func (h *StaffHandler) setActive(c *fiber.Ctx, active bool) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(nil)
	}
	staff, err := h.staff.SetActive(c.UserContext(), principal, c.Params("id"), active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffResponse(staff)})
}

// Capabilities handles GET /admin/capabilities.
func (h *StaffHandler) Capabilities(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.staff.Capabilities()})
}
