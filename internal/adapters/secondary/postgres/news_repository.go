package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/newsroom-notifications/internal/core/domain"
	apperrors "github.com/lorrc/newsroom-notifications/internal/core/errors"
	"github.com/lorrc/newsroom-notifications/internal/core/ports"
	"github.com/lorrc/newsroom-notifications/internal/core/utils"
)

const newsColumns = `id, title, content, images, files, author_id, publish_at, status, created_at, updated_at`

type NewsRepository struct {
	pool *pgxpool.Pool
}

var _ ports.NewsRepository = (*NewsRepository)(nil)

func NewNewsRepository(pool *pgxpool.Pool) *NewsRepository {
	return &NewsRepository{pool: pool}
}

func scanNews(row pgx.CollectableRow) (*domain.News, error) {
	var (
		n         domain.News
		publishAt pgtype.Timestamptz
		status    string
	)
	err := row.Scan(
		&n.ID,
		&n.Title,
		&n.Content,
		&n.Images,
		&n.Files,
		&n.AuthorID,
		&publishAt,
		&status,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.PublishAt = utils.FromNullTimestamptz(publishAt)
	n.Status = domain.NewsStatus(status)
	if !n.Status.IsValid() {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidNewsState, status)
	}
	return &n, nil
}

func (r *NewsRepository) collectOne(rows pgx.Rows, err error) (*domain.News, error) {
	if err != nil {
		return nil, err
	}
	n, err := pgx.CollectExactlyOneRow(rows, scanNews)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNewsNotFound
		}
		return nil, err
	}
	return n, nil
}

func (r *NewsRepository) Create(ctx context.Context, news *domain.News) (*domain.News, error) {
	q := `
		INSERT INTO news (title, content, images, files, author_id, publish_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING ` + newsColumns

	createdAt := news.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, q,
		news.Title,
		news.Content,
		utils.NonNilStrings(news.Images),
		utils.NonNilStrings(news.Files),
		news.AuthorID,
		utils.ToNullTimestamptz(news.PublishAt),
		string(news.Status),
		utils.ToTimestamptz(createdAt),
	)
	created, err := r.collectOne(rows, err)
	if err != nil {
		return nil, fmt.Errorf("insert news: %w", err)
	}
	return created, nil
}

func (r *NewsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.News, error) {
	rows, err := GetDBTX(ctx, r.pool).Query(ctx, `SELECT `+newsColumns+` FROM news WHERE id = $1`, id)
	n, err := r.collectOne(rows, err)
	if err != nil {
		if errors.Is(err, apperrors.ErrNewsNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get news: %w", err)
	}
	return n, nil
}

func (r *NewsRepository) Update(ctx context.Context, news *domain.News) (*domain.News, error) {
	q := `
		UPDATE news
		SET title = $2, content = $3, images = $4, files = $5,
		    publish_at = $6, status = $7, updated_at = $8
		WHERE id = $1
		RETURNING ` + newsColumns

	updatedAt := news.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, q,
		news.ID,
		news.Title,
		news.Content,
		utils.NonNilStrings(news.Images),
		utils.NonNilStrings(news.Files),
		utils.ToNullTimestamptz(news.PublishAt),
		string(news.Status),
		utils.ToTimestamptz(updatedAt),
	)
	updated, err := r.collectOne(rows, err)
	if err != nil {
		if errors.Is(err, apperrors.ErrNewsNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update news: %w", err)
	}
	return updated, nil
}

func (r *NewsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := GetDBTX(ctx, r.pool).Exec(ctx, `DELETE FROM news WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete news: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNewsNotFound
	}
	return nil
}

func (r *NewsRepository) List(ctx context.Context) ([]*domain.News, error) {
	return r.list(ctx, `SELECT `+newsColumns+` FROM news ORDER BY created_at DESC, id`)
}

// ListPublished returns published items whose publish time, if any, has
// passed.
func (r *NewsRepository) ListPublished(ctx context.Context, now time.Time) ([]*domain.News, error) {
	return r.list(ctx, `
		SELECT `+newsColumns+`
		FROM news
		WHERE status = 'published' AND (publish_at IS NULL OR publish_at <= $1)
		ORDER BY COALESCE(publish_at, created_at) DESC, id`,
		utils.ToTimestamptz(now),
	)
}

// ListDueForPublish locks due drafts for the caller's transaction. Rows
// already locked by a concurrent tick are skipped.
func (r *NewsRepository) ListDueForPublish(ctx context.Context, now time.Time) ([]*domain.News, error) {
	return r.list(ctx, `
		SELECT `+newsColumns+`
		FROM news
		WHERE status = 'draft' AND publish_at IS NOT NULL AND publish_at <= $1
		ORDER BY publish_at, id
		FOR UPDATE SKIP LOCKED`,
		utils.ToTimestamptz(now),
	)
}

// MarkPublished changes only the status column of the given drafts.
func (r *NewsRepository) MarkPublished(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := GetDBTX(ctx, r.pool).Exec(ctx,
		`UPDATE news SET status = 'published' WHERE id = ANY($1::uuid[]) AND status = 'draft'`,
		ids,
	)
	if err != nil {
		return 0, fmt.Errorf("mark news published: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *NewsRepository) list(ctx context.Context, q string, args ...interface{}) ([]*domain.News, error) {
	rows, err := GetDBTX(ctx, r.pool).Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}

	items, err := pgx.CollectRows(rows, scanNews)
	if err != nil {
		return nil, fmt.Errorf("scan news: %w", err)
	}
	return items, nil
}
