package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/spec-kit/storefront/internal/api/dto"
	"github.com/spec-kit/storefront/internal/auth"
	"github.com/spec-kit/storefront/internal/domain"
	"github.com/spec-kit/storefront/internal/service"
	apperrors "github.com/spec-kit/storefront/pkg/util/errorutil"
)

// MessagesHandler exposes the contact form and its back-office inbox.
type MessagesHandler struct {
	messages *service.MessageService
}

// NewMessagesHandler constructs handler.
func NewMessagesHandler(messages *service.MessageService) *MessagesHandler {
	return &MessagesHandler{messages: messages}
}

// Submit handles POST /messages.
func (h *MessagesHandler) Submit(c *fiber.Ctx) error {
	var req dto.MessageSubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return errInvalidPayload
	}
	msg, err := h.messages.Submit(c.UserContext(), service.SubmitMessageInput{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Body:    req.Body,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"id": msg.ID}})
}

// List handles GET /admin/messages.
func (h *MessagesHandler) List(c *fiber.Ctx) error {
	filters := service.MessageListFilters{}
	if status := c.Query("status"); status != "" {
		s := domain.MessageStatus(status)
		filters.Status = &s
	}
	filters.Limit, filters.Offset = parsePage(c)

	list, err := h.messages.List(c.UserContext(), filters)
	if err != nil {
		return err
	}
	resp := make([]dto.MessageResponse, 0, len(list))
	for i := range list {
		resp = append(resp, dto.NewMessageResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get handles GET /admin/messages/:id.
func (h *MessagesHandler) Get(c *fiber.Ctx) error {
	msg, err := h.messages.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMessageResponse(msg)})
}

// Reply handles POST /admin/messages/:id/reply.
func (h *MessagesHandler) Reply(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(nil)
	}
	var req dto.MessageReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return errInvalidPayload
	}
	msg, err := h.messages.Reply(c.UserContext(), principal, utils.CopyString(c.Params("id")), req.Body)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMessageResponse(msg)})
}

// Status handles GET /messages/:id/status, the public tracking lookup for a
// submitted message. Only the status is disclosed.
func (h *MessagesHandler) Status(c *fiber.Ctx) error {
	msg, err := h.messages.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": msg.ID, "status": msg.Status}})
}
