package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lorrc/newsroom-notifications/internal/core/domain"
	apperrors "github.com/lorrc/newsroom-notifications/internal/core/errors"
	"github.com/lorrc/newsroom-notifications/internal/core/ports"
)

// NewsService implements news authoring. Mutations that leave an item
// visible to readers announce it to every user in the background.
type NewsService struct {
	newsRepo      ports.NewsRepository
	notifications ports.NotificationService
	now           func() time.Time
	logger        *slog.Logger
	wg            sync.WaitGroup
}

var _ ports.NewsService = (*NewsService)(nil)

// NewNewsService creates a new news service
func NewNewsService(
	newsRepo ports.NewsRepository,
	notifications ports.NotificationService,
	logger *slog.Logger,
) *NewsService {
	return &NewsService{
		newsRepo:      newsRepo,
		notifications: notifications,
		now:           time.Now,
		logger:        logger.With("component", "news_service"),
	}
}

// CreateNews validates and stores a news item. Items published right away
// trigger a create notification; scheduled drafts are announced by the
// publish scheduler later.
func (s *NewsService) CreateNews(ctx context.Context, params ports.CreateNewsParams) (*domain.News, error) {
	// 1. Create domain entity with validation
	news, err := domain.NewNews(domain.NewsParams{
		Title:     params.Title,
		Content:   params.Content,
		Images:    params.Images,
		Files:     params.Files,
		AuthorID:  params.AuthorID,
		PublishAt: params.PublishAt,
	}, s.now().UTC())
	if err != nil {
		return nil, err
	}

	// 2. Persist
	created, err := s.newsRepo.Create(ctx, news)
	if err != nil {
		return nil, err
	}

	// 3. Announce (async)
	if created.IsPublished() {
		s.notifyAll(created, domain.EventCreate, domain.CreatedMessage(created.Title))
	}

	return created, nil
}

// GetNews retrieves a single news item.
func (s *NewsService) GetNews(ctx context.Context, id uuid.UUID) (*domain.News, error) {
	return s.newsRepo.GetByID(ctx, id)
}

// ListNews returns every news item, drafts included.
func (s *NewsService) ListNews(ctx context.Context) ([]*domain.News, error) {
	return s.newsRepo.List(ctx)
}

// ListPublishedNews returns items visible to readers now.
func (s *NewsService) ListPublishedNews(ctx context.Context) ([]*domain.News, error) {
	return s.newsRepo.ListPublished(ctx, s.now().UTC())
}

// UpdateNews edits an item. Only its author may do so.
func (s *NewsService) UpdateNews(ctx context.Context, params ports.UpdateNewsParams) (*domain.News, error) {
	// 1. Fetch and check ownership
	news, err := s.newsRepo.GetByID(ctx, params.NewsID)
	if err != nil {
		return nil, err
	}
	if !news.IsOwnedBy(params.ActorID) {
		return nil, apperrors.ErrForbidden
	}

	// 2. Apply changes (domain validates)
	wasPublished := news.IsPublished()
	if err := news.Apply(domain.NewsParams{
		Title:     params.Title,
		Content:   params.Content,
		Images:    params.Images,
		Files:     params.Files,
		PublishAt: params.PublishAt,
	}, s.now().UTC()); err != nil {
		return nil, err
	}

	// 3. Persist changes
	updated, err := s.newsRepo.Update(ctx, news)
	if err != nil {
		return nil, err
	}

	// 4. Announce (async). A draft made visible by this edit is new to readers.
	switch {
	case wasPublished:
		s.notifyAll(updated, domain.EventUpdate, domain.UpdatedMessage(updated.Title))
	case updated.IsPublished():
		s.notifyAll(updated, domain.EventCreate, domain.CreatedMessage(updated.Title))
	}

	return updated, nil
}

// DeleteNews removes an item. Only its author may do so. Notifications that
// reference the item are kept.
func (s *NewsService) DeleteNews(ctx context.Context, id, actorID uuid.UUID) error {
	news, err := s.newsRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !news.IsOwnedBy(actorID) {
		return apperrors.ErrForbidden
	}

	if err := s.newsRepo.Delete(ctx, id); err != nil {
		return err
	}

	if news.IsPublished() {
		s.notifyAll(news, domain.EventDelete, domain.DeletedMessage(news.Title))
	}
	return nil
}

// notifyAll fans out in the background; failures are logged and never
// reach the caller.
func (s *NewsService) notifyAll(news *domain.News, eventType domain.EventType, message string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// Use background context since the HTTP request may be done
		ctx := context.Background()

		if _, err := s.notifications.NotifyAllUsers(ctx, news.AuthorID, eventType, news.ID, message); err != nil {
			s.logger.Error("failed to notify users",
				"news_id", news.ID,
				"event_type", eventType,
				"error", err,
			)
		}
	}()
}

// Shutdown waits for background notifications to finish.
func (s *NewsService) Shutdown() {
	s.wg.Wait()
}
