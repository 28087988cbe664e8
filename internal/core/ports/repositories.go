package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lorrc/newsroom-notifications/internal/core/domain"
)

// UserRepository is the user directory used to resolve the fan-out audience.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

// ListNotificationsParams filters a recipient's notifications.
type ListNotificationsParams struct {
	RecipientID uuid.UUID
	UnreadOnly  bool
	Limit       int
	Offset      int
}

// NotificationRepository is the durable notification store.
type NotificationRepository interface {
	// InsertMany writes one row per recipient in a single statement and
	// returns the number of rows written.
	InsertMany(ctx context.Context, recipients []uuid.UUID, params domain.NotificationParams) (int, error)
	ListByRecipient(ctx context.Context, params ListNotificationsParams) ([]*domain.Notification, error)
	CountByRecipient(ctx context.Context, params ListNotificationsParams) (int, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int, error)
}

// NewsRepository is the content store.
type NewsRepository interface {
	Create(ctx context.Context, news *domain.News) (*domain.News, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.News, error)
	Update(ctx context.Context, news *domain.News) (*domain.News, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*domain.News, error)
	ListPublished(ctx context.Context, now time.Time) ([]*domain.News, error)
	// ListDueForPublish returns drafts whose publish time is at or before
	// now, locking them for the surrounding transaction.
	ListDueForPublish(ctx context.Context, now time.Time) ([]*domain.News, error)
	// MarkPublished sets status to published for exactly the given ids and
	// touches no other column.
	MarkPublished(ctx context.Context, ids []uuid.UUID) (int, error)
}

// NotificationSubscription yields notifications as they are inserted.
type NotificationSubscription interface {
	// Next blocks until the next inserted notification, ctx is done, or the
	// underlying connection fails.
	Next(ctx context.Context) (*domain.Notification, error)
	Close() error
}

// NotificationFeed opens subscriptions to the notification insert stream.
type NotificationFeed interface {
	Subscribe(ctx context.Context) (NotificationSubscription, error)
}
