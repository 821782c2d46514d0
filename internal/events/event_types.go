package events

import (
	"time"

	"github.com/spec-kit/storefront/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventPasswordResetCompleted EventType = "password_reset_completed"
	EventPasswordChanged        EventType = "password_changed"
	EventStaffDeactivated       EventType = "staff_deactivated"
	EventMessageReplied         EventType = "message_replied"
)

// Subject identifies the account an event is about.
type Subject struct {
	Kind domain.AccountKind `json:"kind"`
	ID   string             `json:"id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   Subject     `json:"subject"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// PasswordResetRequestedPayload carries the link to deliver. The link embeds
// the plaintext token, so it must never be persisted or logged above debug.
type PasswordResetRequestedPayload struct {
	Email     string    `json:"email"`
	ResetLink string    `json:"reset_link"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PasswordResetCompletedPayload payload.
type PasswordResetCompletedPayload struct {
	Email string `json:"email"`
}

// PasswordChangedPayload payload.
type PasswordChangedPayload struct {
	Email string `json:"email"`
}

// StaffDeactivatedPayload payload.
type StaffDeactivatedPayload struct {
	StaffID string `json:"staff_id"`
	ByID    string `json:"by_id"`
}

// MessageRepliedPayload payload.
type MessageRepliedPayload struct {
	MessageID   string `json:"message_id"`
	Recipient   string `json:"recipient"`
	BodyPreview string `json:"body_preview"`
}
