package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/newsroom-notifications/internal/core/domain"
	apperrors "github.com/lorrc/newsroom-notifications/internal/core/errors"
	"github.com/lorrc/newsroom-notifications/internal/core/ports"
)

const notificationColumns = `id, recipient_id, author_id, event_type, news_id, message, created_at, is_read`

type NotificationRepository struct {
	pool *pgxpool.Pool
}

var _ ports.NotificationRepository = (*NotificationRepository)(nil)

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func scanNotification(row pgx.CollectableRow) (*domain.Notification, error) {
	var (
		n         domain.Notification
		eventType string
	)
	err := row.Scan(&n.ID, &n.RecipientID, &n.AuthorID, &eventType, &n.NewsID, &n.Message, &n.CreatedAt, &n.Read)
	if err != nil {
		return nil, err
	}
	n.Type = domain.EventType(eventType)
	return &n, nil
}

// InsertMany writes one row per recipient with a single statement. Each
// row fires the insert trigger that feeds live delivery.
func (r *NotificationRepository) InsertMany(ctx context.Context, recipients []uuid.UUID, params domain.NotificationParams) (int, error) {
	const q = `
		INSERT INTO notifications (recipient_id, author_id, event_type, news_id, message)
		SELECT recipient, $2, $3, $4, $5
		FROM unnest($1::uuid[]) AS recipient`

	if len(recipients) == 0 {
		return 0, nil
	}

	tag, err := GetDBTX(ctx, r.pool).Exec(ctx, q,
		recipients,
		params.AuthorID,
		string(params.Type),
		params.NewsID,
		params.Message,
	)
	if err != nil {
		return 0, fmt.Errorf("insert notifications: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ListByRecipient returns the recipient's notifications, newest first.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, params ports.ListNotificationsParams) ([]*domain.Notification, error) {
	q := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE recipient_id = $1 AND ($2::boolean = FALSE OR NOT is_read)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`

	var limit *int
	if params.Limit > 0 {
		limit = &params.Limit
	}

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, q, params.RecipientID, params.UnreadOnly, limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	items, err := pgx.CollectRows(rows, scanNotification)
	if err != nil {
		return nil, fmt.Errorf("scan notifications: %w", err)
	}
	return items, nil
}

func (r *NotificationRepository) CountByRecipient(ctx context.Context, params ports.ListNotificationsParams) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM notifications
		WHERE recipient_id = $1 AND ($2::boolean = FALSE OR NOT is_read)`

	var count int
	if err := GetDBTX(ctx, r.pool).QueryRow(ctx, q, params.RecipientID, params.UnreadOnly).Scan(&count); err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return count, nil
}

// GetByID fetches a single notification.
func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	rows, err := GetDBTX(ctx, r.pool).Query(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}

	n, err := pgx.CollectExactlyOneRow(rows, scanNotification)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

// MarkRead flags a notification read. A notification that belongs to
// another user is reported as not found.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	tag, err := GetDBTX(ctx, r.pool).Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`,
		id, recipientID,
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int, error) {
	tag, err := GetDBTX(ctx, r.pool).Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND NOT is_read`,
		recipientID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
