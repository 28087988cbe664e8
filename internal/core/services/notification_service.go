package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lorrc/newsroom-notifications/internal/core/domain"
	apperrors "github.com/lorrc/newsroom-notifications/internal/core/errors"
	"github.com/lorrc/newsroom-notifications/internal/core/ports"
)

// NotificationService writes one durable notification per recipient and
// serves each user's notification history.
type NotificationService struct {
	notificationRepo ports.NotificationRepository
	userRepo         ports.UserRepository
	metrics          ports.DispatchMetrics
	logger           *slog.Logger
}

var _ ports.NotificationService = (*NotificationService)(nil)

// NewNotificationService creates a new notification service
func NewNotificationService(
	notificationRepo ports.NotificationRepository,
	userRepo ports.UserRepository,
	metrics ports.DispatchMetrics,
	logger *slog.Logger,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		metrics:          metricsOrNop(metrics),
		logger:           logger.With("component", "notification_service"),
	}
}

// CreateNotifications writes one record per recipient in a single batch.
// An unknown event type is rejected before anything is written. Delivery to
// live connections happens downstream, off the change feed.
func (s *NotificationService) CreateNotifications(ctx context.Context, params ports.FanOutParams) (int, error) {
	p := domain.NotificationParams{
		AuthorID: params.AuthorID,
		Type:     params.EventType,
		NewsID:   params.NewsID,
		Message:  params.Message,
	}

	if err := p.Validate(); err != nil {
		s.logger.WarnContext(ctx, "rejected notification fan-out",
			"event_type", params.EventType,
			"news_id", params.NewsID,
			"error", err,
		)
		return 0, err
	}

	if len(params.Recipients) == 0 {
		return 0, nil
	}

	written, err := s.notificationRepo.InsertMany(ctx, params.Recipients, p)
	if err != nil {
		return 0, fmt.Errorf("insert notifications: %w", err)
	}

	s.metrics.NotificationsCreated(params.EventType, written)
	s.logger.DebugContext(ctx, "notifications created",
		"event_type", params.EventType,
		"news_id", params.NewsID,
		"count", written,
	)

	return written, nil
}

// NotifyAllUsers fans out to every user in the directory, the author included.
func (s *NotificationService) NotifyAllUsers(
	ctx context.Context,
	authorID uuid.UUID,
	eventType domain.EventType,
	newsID uuid.UUID,
	message string,
) (int, error) {
	if !eventType.IsValid() {
		s.logger.WarnContext(ctx, "rejected notification fan-out",
			"event_type", eventType,
			"news_id", newsID,
			"error", apperrors.ErrInvalidEventType,
		)
		return 0, apperrors.ErrInvalidEventType
	}

	recipients, err := s.userRepo.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recipients: %w", err)
	}

	return s.CreateNotifications(ctx, ports.FanOutParams{
		AuthorID:   authorID,
		EventType:  eventType,
		NewsID:     newsID,
		Message:    message,
		Recipients: recipients,
	})
}

// ListForUser returns a page of the user's notifications and the total
// number matching the filter.
func (s *NotificationService) ListForUser(ctx context.Context, params ports.ListNotificationsParams) ([]*domain.Notification, int, error) {
	items, err := s.notificationRepo.ListByRecipient(ctx, params)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.notificationRepo.CountByRecipient(ctx, params)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// MarkRead flags one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	return s.notificationRepo.MarkRead(ctx, id, recipientID)
}

// MarkAllRead flags every unread notification of the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int, error) {
	return s.notificationRepo.MarkAllRead(ctx, recipientID)
}
