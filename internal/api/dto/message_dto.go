package dto

import (
	"time"

	"github.com/spec-kit/storefront/internal/domain"
)

// MessageSubmitRequest is the public contact form.
type MessageSubmitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// MessageReplyRequest payload.
type MessageReplyRequest struct {
	Body string `json:"body"`
}

// MessageReplyResponse payload.
type MessageReplyResponse struct {
	ID        string    `json:"id"`
	StaffID   string    `json:"staff_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageResponse payload.
type MessageResponse struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name,omitempty"`
	Email     string                 `json:"email"`
	Subject   string                 `json:"subject"`
	Body      string                 `json:"body"`
	Status    domain.MessageStatus   `json:"status"`
	Replies   []MessageReplyResponse `json:"replies,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// NewMessageResponse maps a message and its replies.
func NewMessageResponse(m *domain.Message) MessageResponse {
	resp := MessageResponse{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Subject:   m.Subject,
		Body:      m.Body,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	for _, r := range m.Replies {
		resp.Replies = append(resp.Replies, MessageReplyResponse{
			ID:        r.ID,
			StaffID:   r.StaffID,
			Body:      r.Body,
			CreatedAt: r.CreatedAt,
		})
	}
	return resp
}
