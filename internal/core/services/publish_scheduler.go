package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lorrc/newsroom-notifications/internal/core/domain"
	apperrors "github.com/lorrc/newsroom-notifications/internal/core/errors"
	"github.com/lorrc/newsroom-notifications/internal/core/ports"
)

const defaultFanOutConcurrency = 4

// PublishSchedulerConfig tunes a PublishScheduler.
type PublishSchedulerConfig struct {
	// FanOutConcurrency bounds how many published items fan out at once.
	FanOutConcurrency int
	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// PublishScheduler periodically publishes drafts whose publish time has
// passed and announces each one to every user.
type PublishScheduler struct {
	newsRepo      ports.NewsRepository
	txManager     ports.TransactionManager
	notifications ports.NotificationService
	concurrency   int
	now           func() time.Time
	metrics       ports.DispatchMetrics
	logger        *slog.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	inFlight atomic.Bool
}

// NewPublishScheduler creates a stopped scheduler.
func NewPublishScheduler(
	newsRepo ports.NewsRepository,
	txManager ports.TransactionManager,
	notifications ports.NotificationService,
	cfg PublishSchedulerConfig,
	metrics ports.DispatchMetrics,
	logger *slog.Logger,
) *PublishScheduler {
	if cfg.FanOutConcurrency <= 0 {
		cfg.FanOutConcurrency = defaultFanOutConcurrency
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &PublishScheduler{
		newsRepo:      newsRepo,
		txManager:     txManager,
		notifications: notifications,
		concurrency:   cfg.FanOutConcurrency,
		now:           cfg.Now,
		metrics:       metricsOrNop(metrics),
		logger:        logger.With("component", "publish_scheduler"),
	}
}

// Start runs Tick every interval until Stop is called or ctx is done.
func (s *PublishScheduler) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %s", interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return apperrors.ErrSchedulerRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(runCtx, interval)

	s.logger.Info("publish scheduler started", "interval", interval)
	return nil
}

// Stop prevents further ticks and waits for a tick already in progress to
// finish.
func (s *PublishScheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.logger.Info("publish scheduler stopped")
}

func (s *PublishScheduler) loop(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.startTick(ctx)
		}
	}
}

func (s *PublishScheduler) startTick(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn("previous publish tick still running, skipping")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.inFlight.Store(false)

		// A started tick runs to completion even if Stop is called.
		if _, err := s.Tick(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error("publish tick failed", "error", err)
		}
	}()
}

// Tick publishes every due draft and fans out a create notification for
// each. It returns how many items were published.
func (s *PublishScheduler) Tick(ctx context.Context) (int, error) {
	started := time.Now()
	now := s.now()

	var due []*domain.News
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		items, err := s.newsRepo.ListDueForPublish(ctx, now)
		if err != nil {
			return fmt.Errorf("list due news: %w", err)
		}
		if len(items) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(items))
		for i, item := range items {
			ids[i] = item.ID
		}

		if _, err := s.newsRepo.MarkPublished(ctx, ids); err != nil {
			return fmt.Errorf("mark news published: %w", err)
		}

		due = items
		return nil
	})
	if err != nil {
		return 0, err
	}

	if len(due) > 0 {
		s.fanOut(ctx, due)
		s.logger.Info("published scheduled news", "count", len(due))
	}

	s.metrics.SchedulerTicked(len(due), time.Since(started))
	return len(due), nil
}

func (s *PublishScheduler) fanOut(ctx context.Context, items []*domain.News) {
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for _, item := range items {
		item := item
		g.Go(func() error {
			_, err := s.notifications.NotifyAllUsers(ctx, item.AuthorID, domain.EventCreate, item.ID, domain.CreatedMessage(item.Title))
			if err != nil {
				s.logger.ErrorContext(ctx, "failed to notify users of published news",
					"news_id", item.ID,
					"error", err,
				)
			}
			return nil
		})
	}

	_ = g.Wait()
}
