package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/newsroom-notifications/internal/core/domain"
	apperrors "github.com/lorrc/newsroom-notifications/internal/core/errors"
	"github.com/lorrc/newsroom-notifications/internal/core/ports"
)

// NotificationChannel is the channel the notifications insert trigger
// publishes each new row on.
const NotificationChannel = "notification_inserted"

// notificationPayload mirrors row_to_json(NEW) for the notifications table.
type notificationPayload struct {
	ID          uuid.UUID `json:"id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	AuthorID    uuid.UUID `json:"author_id"`
	EventType   string    `json:"event_type"`
	NewsID      uuid.UUID `json:"news_id"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
	IsRead      bool      `json:"is_read"`
}

func (p notificationPayload) toDomain() *domain.Notification {
	return &domain.Notification{
		ID:          p.ID,
		RecipientID: p.RecipientID,
		AuthorID:    p.AuthorID,
		Type:        domain.EventType(p.EventType),
		NewsID:      p.NewsID,
		Message:     p.Message,
		CreatedAt:   p.CreatedAt,
		Read:        p.IsRead,
	}
}

// NotificationFeed streams inserted notifications using LISTEN/NOTIFY.
type NotificationFeed struct {
	pool    *pgxpool.Pool
	channel string
	logger  *slog.Logger
}

var _ ports.NotificationFeed = (*NotificationFeed)(nil)

// NewNotificationFeed creates a feed on NotificationChannel.
func NewNotificationFeed(pool *pgxpool.Pool, logger *slog.Logger) *NotificationFeed {
	return &NotificationFeed{
		pool:    pool,
		channel: NotificationChannel,
		logger:  logger.With("component", "notification_feed", "channel", NotificationChannel),
	}
}

// Subscribe dedicates one pooled connection to LISTEN on the channel until
// the subscription is closed.
func (f *NotificationFeed) Subscribe(ctx context.Context) (ports.NotificationSubscription, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{f.channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen on %s: %w", f.channel, err)
	}

	return &notificationSubscription{
		conn:    conn,
		channel: f.channel,
		logger:  f.logger,
	}, nil
}

type notificationSubscription struct {
	conn      *pgxpool.Conn
	channel   string
	logger    *slog.Logger
	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool
}

// Next waits for the next notification. Malformed payloads are logged and
// skipped.
func (s *notificationSubscription) Next(ctx context.Context) (*domain.Notification, error) {
	for {
		if s.closed.Load() {
			return nil, apperrors.ErrFeedClosed
		}
		msg, err := s.conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if s.closed.Load() {
				return nil, apperrors.ErrFeedClosed
			}
			return nil, err
		}
		if msg.Channel != s.channel {
			continue
		}

		var payload notificationPayload
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			s.logger.WarnContext(ctx, "failed to decode notification payload", "error", err)
			continue
		}
		return payload.toDomain(), nil
	}
}

// Close drops the listening connection instead of returning it to the pool,
// so no other pool user inherits the LISTEN.
func (s *notificationSubscription) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		conn := s.conn.Hijack()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.closeErr = conn.Close(ctx)
	})
	return s.closeErr
}
