package domain

import "time"

// MessageStatus tracks whether a contact message was answered.
type MessageStatus string

const (
	MessageStatusNew     MessageStatus = "NEW"
	MessageStatusReplied MessageStatus = "REPLIED"
)

// Message is a storefront contact-form submission handled by the back office.
type Message struct {
	ID        string
	Name      string
	Email     string
	Subject   string
	Body      string
	Status    MessageStatus
	Replies   []MessageReply
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MessageReply is a staff answer to a Message.
type MessageReply struct {
	ID        string
	MessageID string
	StaffID   string
	Body      string
	CreatedAt time.Time
}
