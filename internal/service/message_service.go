package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront/internal/auth"
	"github.com/spec-kit/storefront/internal/domain"
	"github.com/spec-kit/storefront/internal/events"
	"github.com/spec-kit/storefront/internal/repository"
	apperrors "github.com/spec-kit/storefront/pkg/util/errorutil"
)

const (
	maxSubjectLength = 200
	maxBodyLength    = 5000
	previewLength    = 120
)

// SubmitMessageInput is a contact form submission.
type SubmitMessageInput struct {
	Name    string
	Email   string
	Subject string
	Body    string
}

// MessageListFilters define listing parameters.
type MessageListFilters struct {
	Status *domain.MessageStatus
	Limit  int
	Offset int
}

// MessageService handles contact messages and staff replies.
type MessageService struct {
	messages   repository.MessageRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewMessageService constructs the service.
func NewMessageService(messages repository.MessageRepository, dispatcher events.Dispatcher, logger *zap.Logger) *MessageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{messages: messages, dispatcher: dispatcher, logger: logger}
}

// Submit stores a public contact message.
func (s *MessageService) Submit(ctx context.Context, in SubmitMessageInput) (*domain.Message, error) {
	email := normalizeEmail(in.Email)
	subject := strings.TrimSpace(in.Subject)
	body := strings.TrimSpace(in.Body)

	details := map[string]any{}
	if !validEmail(email) {
		details["email"] = "a valid email is required"
	}
	if subject == "" || utf8.RuneCountInString(subject) > maxSubjectLength {
		details["subject"] = "subject is required and limited to 200 characters"
	}
	if body == "" || utf8.RuneCountInString(body) > maxBodyLength {
		details["body"] = "body is required and limited to 5000 characters"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid message", details)
	}

	msg := &domain.Message{
		Name:    strings.TrimSpace(in.Name),
		Email:   email,
		Subject: subject,
		Body:    body,
		Status:  domain.MessageStatusNew,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.MapError(err)
	}
	return msg, nil
}

// List returns messages for the back office. Capability checks happen at the route.
func (s *MessageService) List(ctx context.Context, filters MessageListFilters) ([]domain.Message, error) {
	list, err := s.messages.List(ctx, repository.MessageFilter{
		Status: filters.Status,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// Get returns one message with its replies.
func (s *MessageService) Get(ctx context.Context, id string) (*domain.Message, error) {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "message")
	}
	return msg, nil
}

// Reply records a staff answer and marks the message replied.
func (s *MessageService) Reply(ctx context.Context, actor *auth.Principal, id, body string) (*domain.Message, error) {
	if actor == nil || !actor.IsStaff() {
		return nil, apperrors.NewForbidden("staff account required")
	}
	body = strings.TrimSpace(body)
	if body == "" || utf8.RuneCountInString(body) > maxBodyLength {
		return nil, apperrors.NewValidationError("reply body is required and limited to 5000 characters", nil)
	}

	reply := &domain.MessageReply{MessageID: id, StaffID: actor.ID, Body: body}
	if err := s.messages.AddReply(ctx, reply); err != nil {
		return nil, mapRepoError(err, "message")
	}
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "message")
	}

	if s.dispatcher != nil {
		event := events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventMessageReplied,
			Subject:   events.Subject{Kind: domain.AccountKindStaff, ID: actor.ID},
			Timestamp: time.Now().UTC(),
			Payload: events.MessageRepliedPayload{
				MessageID:   msg.ID,
				Recipient:   msg.Email,
				BodyPreview: preview(body),
			},
		}
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		}
	}
	return msg, nil
}

func preview(body string) string {
	if utf8.RuneCountInString(body) <= previewLength {
		return body
	}
	return string([]rune(body)[:previewLength]) + "..."
}
