package services_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/newsroom-notifications/internal/core/domain"
	apperrors "github.com/lorrc/newsroom-notifications/internal/core/errors"
	"github.com/lorrc/newsroom-notifications/internal/core/mocks"
	"github.com/lorrc/newsroom-notifications/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestPublishScheduler_Tick(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	due := now.Add(-time.Minute)

	t.Run("publishes due items and notifies everyone", func(t *testing.T) {
		newsRepo := mocks.NewMockNewsRepository()
		notifSvc := mocks.NewMockNotificationService()
		metrics := &recordingMetrics{}

		item := &domain.News{ID: uuid.New(), Title: "Budget", AuthorID: uuid.New(), Status: domain.StatusDraft, PublishAt: &due}
		newsRepo.On("ListDueForPublish", mock.Anything, now).Return([]*domain.News{item}, nil)
		newsRepo.On("MarkPublished", mock.Anything, []uuid.UUID{item.ID}).Return(1, nil)
		notifSvc.On("NotifyAllUsers", mock.Anything, item.AuthorID, domain.EventCreate, item.ID, `"Budget" news created`).Return(3, nil)

		s := services.NewPublishScheduler(newsRepo, mocks.PassthroughTransactionManager{}, notifSvc,
			services.PublishSchedulerConfig{Now: fixedClock(now)}, metrics, discardLogger())

		n, err := s.Tick(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, n)
		newsRepo.AssertExpectations(t)
		notifSvc.AssertExpectations(t)
		assert.Equal(t, 1, metrics.published)
	})

	t.Run("nothing due performs no write", func(t *testing.T) {
		newsRepo := mocks.NewMockNewsRepository()
		notifSvc := mocks.NewMockNotificationService()

		newsRepo.On("ListDueForPublish", mock.Anything, now).Return([]*domain.News{}, nil)

		s := services.NewPublishScheduler(newsRepo, mocks.PassthroughTransactionManager{}, notifSvc,
			services.PublishSchedulerConfig{Now: fixedClock(now)}, nil, discardLogger())

		n, err := s.Tick(ctx)

		require.NoError(t, err)
		assert.Equal(t, 0, n)
		newsRepo.AssertNotCalled(t, "MarkPublished", mock.Anything, mock.Anything)
		notifSvc.AssertNotCalled(t, "NotifyAllUsers", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("query failure aborts the tick", func(t *testing.T) {
		newsRepo := mocks.NewMockNewsRepository()
		notifSvc := mocks.NewMockNotificationService()

		newsRepo.On("ListDueForPublish", mock.Anything, now).Return(nil, errors.New("db down"))

		s := services.NewPublishScheduler(newsRepo, mocks.PassthroughTransactionManager{}, notifSvc,
			services.PublishSchedulerConfig{Now: fixedClock(now)}, nil, discardLogger())

		n, err := s.Tick(ctx)

		assert.Error(t, err)
		assert.Equal(t, 0, n)
		newsRepo.AssertNotCalled(t, "MarkPublished", mock.Anything, mock.Anything)
		notifSvc.AssertNotCalled(t, "NotifyAllUsers", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("update failure aborts the tick before fan-out", func(t *testing.T) {
		newsRepo := mocks.NewMockNewsRepository()
		notifSvc := mocks.NewMockNotificationService()

		item := &domain.News{ID: uuid.New(), Title: "T", AuthorID: uuid.New()}
		newsRepo.On("ListDueForPublish", mock.Anything, now).Return([]*domain.News{item}, nil)
		newsRepo.On("MarkPublished", mock.Anything, mock.Anything).Return(0, errors.New("deadlock"))

		s := services.NewPublishScheduler(newsRepo, mocks.PassthroughTransactionManager{}, notifSvc,
			services.PublishSchedulerConfig{Now: fixedClock(now)}, nil, discardLogger())

		_, err := s.Tick(ctx)

		assert.Error(t, err)
		notifSvc.AssertNotCalled(t, "NotifyAllUsers", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("one failing item does not block the others", func(t *testing.T) {
		newsRepo := mocks.NewMockNewsRepository()
		notifSvc := mocks.NewMockNotificationService()

		first := &domain.News{ID: uuid.New(), Title: "First", AuthorID: uuid.New()}
		second := &domain.News{ID: uuid.New(), Title: "Second", AuthorID: uuid.New()}
		third := &domain.News{ID: uuid.New(), Title: "Third", AuthorID: uuid.New()}

		newsRepo.On("ListDueForPublish", mock.Anything, now).Return([]*domain.News{first, second, third}, nil)
		newsRepo.On("MarkPublished", mock.Anything, []uuid.UUID{first.ID, second.ID, third.ID}).Return(3, nil)
		notifSvc.On("NotifyAllUsers", mock.Anything, first.AuthorID, domain.EventCreate, first.ID, mock.Anything).Return(2, nil)
		notifSvc.On("NotifyAllUsers", mock.Anything, second.AuthorID, domain.EventCreate, second.ID, mock.Anything).Return(0, errors.New("insert failed"))
		notifSvc.On("NotifyAllUsers", mock.Anything, third.AuthorID, domain.EventCreate, third.ID, mock.Anything).Return(2, nil)

		s := services.NewPublishScheduler(newsRepo, mocks.PassthroughTransactionManager{}, notifSvc,
			services.PublishSchedulerConfig{Now: fixedClock(now), FanOutConcurrency: 1}, nil, discardLogger())

		n, err := s.Tick(ctx)

		require.NoError(t, err)
		assert.Equal(t, 3, n)
		notifSvc.AssertNumberOfCalls(t, "NotifyAllUsers", 3)
	})
}

type countingTxManager struct {
	calls atomic.Int32
}

func (m *countingTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls.Add(1)
	return fn(ctx)
}

func TestPublishScheduler_StartStop(t *testing.T) {
	t.Run("ticks on the interval until stopped", func(t *testing.T) {
		newsRepo := mocks.NewMockNewsRepository()
		newsRepo.On("ListDueForPublish", mock.Anything, mock.Anything).Return([]*domain.News{}, nil)
		tx := &countingTxManager{}

		s := services.NewPublishScheduler(newsRepo, tx, mocks.NewMockNotificationService(),
			services.PublishSchedulerConfig{}, nil, discardLogger())

		require.NoError(t, s.Start(context.Background(), 10*time.Millisecond))

		assert.Eventually(t, func() bool { return tx.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

		s.Stop()
		after := tx.calls.Load()
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, after, tx.calls.Load())
	})

	t.Run("stop waits for in-flight tick and skips overlapping ticks", func(t *testing.T) {
		newsRepo := mocks.NewMockNewsRepository()
		release := make(chan struct{})
		var started, finished atomic.Int32

		newsRepo.On("ListDueForPublish", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) {
				started.Add(1)
				<-release
				finished.Add(1)
			}).
			Return([]*domain.News{}, nil)

		s := services.NewPublishScheduler(newsRepo, mocks.PassthroughTransactionManager{}, mocks.NewMockNotificationService(),
			services.PublishSchedulerConfig{}, nil, discardLogger())

		require.NoError(t, s.Start(context.Background(), 5*time.Millisecond))
		assert.Eventually(t, func() bool { return started.Load() == 1 }, 2*time.Second, time.Millisecond)

		// Several intervals pass while the first tick is blocked.
		time.Sleep(30 * time.Millisecond)
		assert.Equal(t, int32(1), started.Load())

		stopped := make(chan struct{})
		go func() {
			s.Stop()
			close(stopped)
		}()

		select {
		case <-stopped:
			t.Fatal("Stop returned before the in-flight tick finished")
		case <-time.After(20 * time.Millisecond):
		}

		close(release)
		select {
		case <-stopped:
		case <-time.After(2 * time.Second):
			t.Fatal("Stop did not return")
		}
		assert.Equal(t, int32(1), finished.Load())
	})

	t.Run("rejects invalid interval and double start", func(t *testing.T) {
		newsRepo := mocks.NewMockNewsRepository()
		newsRepo.On("ListDueForPublish", mock.Anything, mock.Anything).Return([]*domain.News{}, nil).Maybe()
		s := services.NewPublishScheduler(newsRepo, mocks.PassthroughTransactionManager{}, mocks.NewMockNotificationService(),
			services.PublishSchedulerConfig{}, nil, discardLogger())

		assert.Error(t, s.Start(context.Background(), 0))

		require.NoError(t, s.Start(context.Background(), time.Hour))
		assert.ErrorIs(t, s.Start(context.Background(), time.Hour), apperrors.ErrSchedulerRunning)

		s.Stop()
		s.Stop()
	})
}
