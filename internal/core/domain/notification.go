package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/lorrc/newsroom-notifications/internal/core/errors"
)

// MaxMessageLength bounds notification text so the inserted row always fits
// into a single NOTIFY payload.
const MaxMessageLength = 1000

// EventType is the kind of news lifecycle event a notification describes.
type EventType string

const (
	EventCreate EventType = "create"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// ParseEventType returns the recognized event type for s.
func ParseEventType(s string) (EventType, error) {
	switch EventType(s) {
	case EventCreate, EventUpdate, EventDelete:
		return EventType(s), nil
	default:
		return "", apperrors.ErrInvalidEventType
	}
}

// IsValid reports whether t is one of the recognized event types.
func (t EventType) IsValid() bool {
	_, err := ParseEventType(string(t))
	return err == nil
}

// Notification is a durable per-user record produced by fan-out.
// Notifications are append-only: only the read flag changes after insert.
type Notification struct {
	ID          uuid.UUID `json:"id"`
	RecipientID uuid.UUID `json:"recipientId"`
	AuthorID    uuid.UUID `json:"authorId"`
	Type        EventType `json:"type"`
	NewsID      uuid.UUID `json:"newsId"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
	Read        bool      `json:"read"`
}

// NotificationParams holds the fields shared by every record of one fan-out.
type NotificationParams struct {
	AuthorID uuid.UUID
	Type     EventType
	NewsID   uuid.UUID
	Message  string
}

// Validate checks the shared fan-out fields.
func (p NotificationParams) Validate() error {
	if !p.Type.IsValid() {
		return apperrors.ErrInvalidEventType
	}
	if p.Message == "" {
		return apperrors.ErrMessageRequired
	}
	if len(p.Message) > MaxMessageLength {
		return apperrors.ErrMessageTooLong
	}
	return nil
}

// NewNotification builds an unsaved notification for one recipient.
// ID and CreatedAt are assigned by the store.
func NewNotification(recipientID uuid.UUID, p NotificationParams) *Notification {
	return &Notification{
		RecipientID: recipientID,
		AuthorID:    p.AuthorID,
		Type:        p.Type,
		NewsID:      p.NewsID,
		Message:     p.Message,
	}
}
