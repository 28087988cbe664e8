package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/newsroom-notifications/internal/core/domain"
	apperrors "github.com/lorrc/newsroom-notifications/internal/core/errors"
	"github.com/lorrc/newsroom-notifications/internal/core/mocks"
	"github.com/lorrc/newsroom-notifications/internal/core/ports"
	"github.com/lorrc/newsroom-notifications/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewsService_CreateNews(t *testing.T) {
	ctx := context.Background()
	authorID := uuid.New()

	t.Run("immediate publish notifies everyone", func(t *testing.T) {
		newsRepo := mocks.NewMockNewsRepository()
		notifSvc := mocks.NewMockNotificationService()
		svc := services.NewNewsService(newsRepo, notifSvc, discardLogger())

		newsID := uuid.New()
		newsRepo.On("Create", ctx, mock.MatchedBy(func(n *domain.News) bool {
			return n.Title == "Launch" && n.AuthorID == authorID && n.Status == domain.StatusPublished
		})).Return(&domain.News{ID: newsID, Title: "Launch", AuthorID: authorID, Status: domain.StatusPublished}, nil)
		notifSvc.On("NotifyAllUsers", mock.Anything, authorID, domain.EventCreate, newsID, `"Launch" news created`).Return(5, nil)

		news, err := svc.CreateNews(ctx, ports.CreateNewsParams{Title: "Launch", Content: "We launched", AuthorID: authorID})
		svc.Shutdown()

		require.NoError(t, err)
		assert.Equal(t, domain.StatusPublished, news.Status)
		notifSvc.AssertExpectations(t)
	})

	t.Run("scheduled draft does not notify", func(t *testing.T) {
		newsRepo := mocks.NewMockNewsRepository()
		notifSvc := mocks.NewMockNotificationService()
		svc := services.NewNewsService(newsRepo, notifSvc, discardLogger())

		later := time.Now().Add(time.Hour)
		newsRepo.On("Create", ctx, mock.AnythingOfType("*domain.News")).
			Return(&domain.News{ID: uuid.New(), Title: "Later", AuthorID: authorID, Status: domain.StatusDraft, PublishAt: &later}, nil)

		news, err := svc.CreateNews(ctx, ports.CreateNewsParams{Title: "Later", Content: "Soon", AuthorID: authorID, PublishAt: &later})
		svc.Shutdown()

		require.NoError(t, err)
		assert.Equal(t, domain.StatusDraft, news.Status)
		notifSvc.AssertNotCalled(t, "NotifyAllUsers", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("validation error", func(t *testing.T) {
		newsRepo := mocks.NewMockNewsRepository()
		svc := services.NewNewsService(newsRepo, mocks.NewMockNotificationService(), discardLogger())

		news, err := svc.CreateNews(ctx, ports.CreateNewsParams{Title: "", Content: "x", AuthorID: authorID})

		assert.Nil(t, news)
		var verrs *apperrors.ValidationErrors
		assert.ErrorAs(t, err, &verrs)
		newsRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("fan-out failure is not returned", func(t *testing.T) {
		newsRepo := mocks.NewMockNewsRepository()
		notifSvc := mocks.NewMockNotificationService()
		svc := services.NewNewsService(newsRepo, notifSvc, discardLogger())

		newsRepo.On("Create", ctx, mock.AnythingOfType("*domain.News")).
			Return(&domain.News{ID: uuid.New(), Title: "T", AuthorID: authorID, Status: domain.StatusPublished}, nil)
		notifSvc.On("NotifyAllUsers", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(0, errors.New("insert failed"))

		_, err := svc.CreateNews(ctx, ports.CreateNewsParams{Title: "T", Content: "C", AuthorID: authorID})
		svc.Shutdown()

		assert.NoError(t, err)
		notifSvc.AssertExpectations(t)
	})
}

func TestNewsService_UpdateNews(t *testing.T) {
	ctx := context.Background()
	authorID := uuid.New()

	t.Run("author updates published item", func(t *testing.T) {
		newsRepo := mocks.NewMockNewsRepository()
		notifSvc := mocks.NewMockNotificationService()
		svc := services.NewNewsService(newsRepo, notifSvc, discardLogger())

		existing := &domain.News{ID: uuid.New(), Title: "Old", Content: "C", AuthorID: authorID, Status: domain.StatusPublished}
		newsRepo.On("GetByID", ctx, existing.ID).Return(existing, nil)
		newsRepo.On("Update", ctx, existing).Return(existing, nil)
		notifSvc.On("NotifyAllUsers", mock.Anything, authorID, domain.EventUpdate, existing.ID, `"New" news updated`).Return(2, nil)

		updated, err := svc.UpdateNews(ctx, ports.UpdateNewsParams{NewsID: existing.ID, ActorID: authorID, Title: "New", Content: "C2"})
		svc.Shutdown()

		require.NoError(t, err)
		assert.Equal(t, "New", updated.Title)
		notifSvc.AssertExpectations(t)
	})

	t.Run("draft made visible is announced as created", func(t *testing.T) {
		newsRepo := mocks.NewMockNewsRepository()
		notifSvc := mocks.NewMockNotificationService()
		svc := services.NewNewsService(newsRepo, notifSvc, discardLogger())

		later := time.Now().Add(time.Hour)
		existing := &domain.News{ID: uuid.New(), Title: "Draft", Content: "C", AuthorID: authorID, Status: domain.StatusDraft, PublishAt: &later}
		newsRepo.On("GetByID", ctx, existing.ID).Return(existing, nil)
		newsRepo.On("Update", ctx, existing).Return(existing, nil)
		notifSvc.On("NotifyAllUsers", mock.Anything, authorID, domain.EventCreate, existing.ID, `"Draft" news created`).Return(2, nil)

		updated, err := svc.UpdateNews(ctx, ports.UpdateNewsParams{NewsID: existing.ID, ActorID: authorID, Title: "Draft", Content: "C"})
		svc.Shutdown()

		require.NoError(t, err)
		assert.Equal(t, domain.StatusPublished, updated.Status)
		notifSvc.AssertExpectations(t)
	})

	t.Run("draft edit stays silent", func(t *testing.T) {
		newsRepo := mocks.NewMockNewsRepository()
		notifSvc := mocks.NewMockNotificationService()
		svc := services.NewNewsService(newsRepo, notifSvc, discardLogger())

		later := time.Now().Add(time.Hour)
		existing := &domain.News{ID: uuid.New(), Title: "Draft", Content: "C", AuthorID: authorID, Status: domain.StatusDraft, PublishAt: &later}
		newsRepo.On("GetByID", ctx, existing.ID).Return(existing, nil)
		newsRepo.On("Update", ctx, existing).Return(existing, nil)

		_, err := svc.UpdateNews(ctx, ports.UpdateNewsParams{NewsID: existing.ID, ActorID: authorID, Title: "Draft 2", Content: "C", PublishAt: &later})
		svc.Shutdown()

		require.NoError(t, err)
		notifSvc.AssertNotCalled(t, "NotifyAllUsers", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("non-author is forbidden", func(t *testing.T) {
		newsRepo := mocks.NewMockNewsRepository()
		svc := services.NewNewsService(newsRepo, mocks.NewMockNotificationService(), discardLogger())

		existing := &domain.News{ID: uuid.New(), Title: "T", AuthorID: authorID, Status: domain.StatusPublished}
		newsRepo.On("GetByID", ctx, existing.ID).Return(existing, nil)

		_, err := svc.UpdateNews(ctx, ports.UpdateNewsParams{NewsID: existing.ID, ActorID: uuid.New(), Title: "X", Content: "Y"})

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		newsRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("missing item", func(t *testing.T) {
		newsRepo := mocks.NewMockNewsRepository()
		svc := services.NewNewsService(newsRepo, mocks.NewMockNotificationService(), discardLogger())

		id := uuid.New()
		newsRepo.On("GetByID", ctx, id).Return(nil, apperrors.ErrNewsNotFound)

		_, err := svc.UpdateNews(ctx, ports.UpdateNewsParams{NewsID: id, ActorID: authorID, Title: "X", Content: "Y"})
		assert.ErrorIs(t, err, apperrors.ErrNewsNotFound)
	})
}

func TestNewsService_DeleteNews(t *testing.T) {
	ctx := context.Background()
	authorID := uuid.New()

	t.Run("author deletes published item", func(t *testing.T) {
		newsRepo := mocks.NewMockNewsRepository()
		notifSvc := mocks.NewMockNotificationService()
		svc := services.NewNewsService(newsRepo, notifSvc, discardLogger())

		existing := &domain.News{ID: uuid.New(), Title: "Gone", AuthorID: authorID, Status: domain.StatusPublished}
		newsRepo.On("GetByID", ctx, existing.ID).Return(existing, nil)
		newsRepo.On("Delete", ctx, existing.ID).Return(nil)
		notifSvc.On("NotifyAllUsers", mock.Anything, authorID, domain.EventDelete, existing.ID, `"Gone" news deleted`).Return(1, nil)

		err := svc.DeleteNews(ctx, existing.ID, authorID)
		svc.Shutdown()

		require.NoError(t, err)
		notifSvc.AssertExpectations(t)
	})

	t.Run("deleting a draft is silent", func(t *testing.T) {
		newsRepo := mocks.NewMockNewsRepository()
		notifSvc := mocks.NewMockNotificationService()
		svc := services.NewNewsService(newsRepo, notifSvc, discardLogger())

		existing := &domain.News{ID: uuid.New(), Title: "Draft", AuthorID: authorID, Status: domain.StatusDraft}
		newsRepo.On("GetByID", ctx, existing.ID).Return(existing, nil)
		newsRepo.On("Delete", ctx, existing.ID).Return(nil)

		require.NoError(t, svc.DeleteNews(ctx, existing.ID, authorID))
		svc.Shutdown()

		notifSvc.AssertNotCalled(t, "NotifyAllUsers", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("non-author is forbidden", func(t *testing.T) {
		newsRepo := mocks.NewMockNewsRepository()
		svc := services.NewNewsService(newsRepo, mocks.NewMockNotificationService(), discardLogger())

		existing := &domain.News{ID: uuid.New(), AuthorID: authorID, Status: domain.StatusPublished}
		newsRepo.On("GetByID", ctx, existing.ID).Return(existing, nil)

		err := svc.DeleteNews(ctx, existing.ID, uuid.New())

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		newsRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestNewsService_ListPublishedNews(t *testing.T) {
	ctx := context.Background()
	newsRepo := mocks.NewMockNewsRepository()
	svc := services.NewNewsService(newsRepo, mocks.NewMockNotificationService(), discardLogger())

	items := []*domain.News{{ID: uuid.New()}}
	newsRepo.On("ListPublished", ctx, mock.AnythingOfType("time.Time")).Return(items, nil)

	got, err := svc.ListPublishedNews(ctx)

	require.NoError(t, err)
	assert.Equal(t, items, got)
}
