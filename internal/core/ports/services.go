package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lorrc/newsroom-notifications/internal/core/domain"
)

// FanOutParams defines the input for writing one notification per recipient.
type FanOutParams struct {
	AuthorID   uuid.UUID
	EventType  domain.EventType
	NewsID     uuid.UUID
	Message    string
	Recipients []uuid.UUID
}

// NotificationService defines the fan-out writer and the notification read path.
type NotificationService interface {
	// CreateNotifications writes one record per recipient and returns how
	// many were written. It does not deliver anything.
	CreateNotifications(ctx context.Context, params FanOutParams) (int, error)
	// NotifyAllUsers fans out to every user in the directory.
	NotifyAllUsers(ctx context.Context, authorID uuid.UUID, eventType domain.EventType, newsID uuid.UUID, message string) (int, error)
	ListForUser(ctx context.Context, params ListNotificationsParams) ([]*domain.Notification, int, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int, error)
}

// CreateNewsParams defines the input for creating a news item.
type CreateNewsParams struct {
	Title     string
	Content   string
	Images    []string
	Files     []string
	AuthorID  uuid.UUID
	PublishAt *time.Time
}

// UpdateNewsParams defines the input for editing a news item.
type UpdateNewsParams struct {
	NewsID    uuid.UUID
	ActorID   uuid.UUID
	Title     string
	Content   string
	Images    []string
	Files     []string
	PublishAt *time.Time
}

// NewsService defines the content mutations that trigger notifications.
type NewsService interface {
	CreateNews(ctx context.Context, params CreateNewsParams) (*domain.News, error)
	GetNews(ctx context.Context, id uuid.UUID) (*domain.News, error)
	ListNews(ctx context.Context) ([]*domain.News, error)
	ListPublishedNews(ctx context.Context) ([]*domain.News, error)
	UpdateNews(ctx context.Context, params UpdateNewsParams) (*domain.News, error)
	DeleteNews(ctx context.Context, id, actorID uuid.UUID) error
	Shutdown()
}

// SessionLookup resolves a user to their live connection.
type SessionLookup interface {
	Lookup(userID uuid.UUID) (string, bool)
}

// SessionTracker is notified when live connections open and close.
type SessionTracker interface {
	Register(userID uuid.UUID, connectionID string)
	Unregister(userID uuid.UUID, connectionID string) bool
}

// Pusher delivers an envelope to one live connection without blocking.
type Pusher interface {
	Push(connectionID string, envelope domain.Envelope) error
}

// TransactionManager defines the port for running atomic operations.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Push outcomes recorded by DispatchMetrics.
const (
	PushDelivered = "delivered"
	PushOffline   = "offline"
	PushFailed    = "failed"
)

// DispatchMetrics records pipeline counters.
type DispatchMetrics interface {
	NotificationsCreated(eventType domain.EventType, count int)
	PushAttempted(outcome string)
	SchedulerTicked(published int, duration time.Duration)
}
