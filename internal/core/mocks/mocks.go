package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/newsroom-notifications/internal/core/domain"
	"github.com/lorrc/newsroom-notifications/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of ports.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockNotificationRepository is a mock implementation of ports.NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{}
}

func (m *MockNotificationRepository) InsertMany(ctx context.Context, recipients []uuid.UUID, params domain.NotificationParams) (int, error) {
	args := m.Called(ctx, recipients, params)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationRepository) ListByRecipient(ctx context.Context, params ports.ListNotificationsParams) ([]*domain.Notification, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) CountByRecipient(ctx context.Context, params ports.ListNotificationsParams) (int, error) {
	args := m.Called(ctx, params)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	args := m.Called(ctx, id, recipientID)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int, error) {
	args := m.Called(ctx, recipientID)
	return args.Int(0), args.Error(1)
}

// MockNewsRepository is a mock implementation of ports.NewsRepository
type MockNewsRepository struct {
	mock.Mock
}

func NewMockNewsRepository() *MockNewsRepository {
	return &MockNewsRepository{}
}

func (m *MockNewsRepository) Create(ctx context.Context, news *domain.News) (*domain.News, error) {
	args := m.Called(ctx, news)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.News), args.Error(1)
}

func (m *MockNewsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.News, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.News), args.Error(1)
}

func (m *MockNewsRepository) Update(ctx context.Context, news *domain.News) (*domain.News, error) {
	args := m.Called(ctx, news)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.News), args.Error(1)
}

func (m *MockNewsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockNewsRepository) List(ctx context.Context) ([]*domain.News, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.News), args.Error(1)
}

func (m *MockNewsRepository) ListPublished(ctx context.Context, now time.Time) ([]*domain.News, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.News), args.Error(1)
}

func (m *MockNewsRepository) ListDueForPublish(ctx context.Context, now time.Time) ([]*domain.News, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.News), args.Error(1)
}

func (m *MockNewsRepository) MarkPublished(ctx context.Context, ids []uuid.UUID) (int, error) {
	args := m.Called(ctx, ids)
	return args.Int(0), args.Error(1)
}

// MockNotificationService is a mock implementation of ports.NotificationService
type MockNotificationService struct {
	mock.Mock
}

func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

func (m *MockNotificationService) CreateNotifications(ctx context.Context, params ports.FanOutParams) (int, error) {
	args := m.Called(ctx, params)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationService) NotifyAllUsers(ctx context.Context, authorID uuid.UUID, eventType domain.EventType, newsID uuid.UUID, message string) (int, error) {
	args := m.Called(ctx, authorID, eventType, newsID, message)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationService) ListForUser(ctx context.Context, params ports.ListNotificationsParams) ([]*domain.Notification, int, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.Notification), args.Int(1), args.Error(2)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	args := m.Called(ctx, id, recipientID)
	return args.Error(0)
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int, error) {
	args := m.Called(ctx, recipientID)
	return args.Int(0), args.Error(1)
}

// MockNewsService is a mock implementation of ports.NewsService
type MockNewsService struct {
	mock.Mock
}

func NewMockNewsService() *MockNewsService {
	return &MockNewsService{}
}

func (m *MockNewsService) CreateNews(ctx context.Context, params ports.CreateNewsParams) (*domain.News, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.News), args.Error(1)
}

func (m *MockNewsService) GetNews(ctx context.Context, id uuid.UUID) (*domain.News, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.News), args.Error(1)
}

func (m *MockNewsService) ListNews(ctx context.Context) ([]*domain.News, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.News), args.Error(1)
}

func (m *MockNewsService) ListPublishedNews(ctx context.Context) ([]*domain.News, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.News), args.Error(1)
}

func (m *MockNewsService) UpdateNews(ctx context.Context, params ports.UpdateNewsParams) (*domain.News, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.News), args.Error(1)
}

func (m *MockNewsService) DeleteNews(ctx context.Context, id, actorID uuid.UUID) error {
	args := m.Called(ctx, id, actorID)
	return args.Error(0)
}

func (m *MockNewsService) Shutdown() {
	m.Called()
}

// MockPusher is a mock implementation of ports.Pusher
type MockPusher struct {
	mock.Mock
}

func NewMockPusher() *MockPusher {
	return &MockPusher{}
}

func (m *MockPusher) Push(connectionID string, envelope domain.Envelope) error {
	args := m.Called(connectionID, envelope)
	return args.Error(0)
}

// PassthroughTransactionManager runs fn directly without a transaction.
type PassthroughTransactionManager struct{}

func (PassthroughTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
