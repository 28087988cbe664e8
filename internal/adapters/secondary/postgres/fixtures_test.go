package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/newsroom-notifications/internal/core/domain"
)

func createUsers(t *testing.T, n int) []uuid.UUID {
	t.Helper()
	repo := NewUserRepository(testPool)

	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		u, err := repo.Create(context.Background(), &domain.User{
			ID:       uuid.New(),
			FullName: fmt.Sprintf("Reader %d", i),
			Email:    fmt.Sprintf("reader-%d-%s@example.com", i, uuid.NewString()[:8]),
		})
		require.NoError(t, err)
		ids = append(ids, u.ID)
	}
	return ids
}

func createNews(t *testing.T, authorID uuid.UUID, title string, status domain.NewsStatus, publishAt *time.Time) *domain.News {
	t.Helper()
	repo := NewNewsRepository(testPool)

	n, err := repo.Create(context.Background(), &domain.News{
		Title:     title,
		Content:   title + " body",
		Images:    []string{"a.png"},
		AuthorID:  authorID,
		PublishAt: publishAt,
		Status:    status,
		CreatedAt: time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond),
		UpdatedAt: time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond),
	})
	require.NoError(t, err)
	return n
}
