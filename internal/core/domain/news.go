package domain

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	apperrors "github.com/lorrc/newsroom-notifications/internal/core/errors"
)

// Validation limits for news items.
const (
	MaxTitleLength   = 100
	MaxContentLength = 400
)

// NewsStatus represents the publication state of a news item.
type NewsStatus string

const (
	StatusDraft     NewsStatus = "draft"
	StatusPublished NewsStatus = "published"
)

// IsValid reports whether s is a known status.
func (s NewsStatus) IsValid() bool {
	return s == StatusDraft || s == StatusPublished
}

// News is the content item notifications refer to.
type News struct {
	ID        uuid.UUID
	Title     string
	Content   string
	Images    []string
	Files     []string
	AuthorID  uuid.UUID
	PublishAt *time.Time
	Status    NewsStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewsParams holds the user-editable fields of a news item.
type NewsParams struct {
	Title     string
	Content   string
	Images    []string
	Files     []string
	AuthorID  uuid.UUID
	PublishAt *time.Time
}

// Validate enforces the news field rules.
func (p NewsParams) Validate() error {
	errs := apperrors.NewValidationErrors()

	if p.Title == "" {
		errs.Add("title", apperrors.ErrTitleRequired.Error())
	} else if utf8.RuneCountInString(p.Title) > MaxTitleLength {
		errs.Add("title", apperrors.ErrTitleTooLong.Error())
	}

	if p.Content == "" {
		errs.Add("content", apperrors.ErrContentRequired.Error())
	} else if utf8.RuneCountInString(p.Content) > MaxContentLength {
		errs.Add("content", apperrors.ErrContentTooLong.Error())
	}

	if p.AuthorID == uuid.Nil {
		errs.Add("author", apperrors.ErrAuthorRequired.Error())
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// NewNews creates a valid news item. Items without a publish time, or with
// one that is already due, are published immediately; the rest stay drafts
// until the publish scheduler picks them up.
func NewNews(p NewsParams, now time.Time) (*News, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	n := &News{
		Title:     p.Title,
		Content:   p.Content,
		Images:    nonNil(p.Images),
		Files:     nonNil(p.Files),
		AuthorID:  p.AuthorID,
		PublishAt: p.PublishAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	n.Status = statusFor(p.PublishAt, now)
	return n, nil
}

// Apply replaces the editable fields. A published item stays published; a
// draft whose new publish time is due becomes published.
func (n *News) Apply(p NewsParams, now time.Time) error {
	p.AuthorID = n.AuthorID
	if err := p.Validate(); err != nil {
		return err
	}

	n.Title = p.Title
	n.Content = p.Content
	n.Images = nonNil(p.Images)
	n.Files = nonNil(p.Files)
	n.PublishAt = p.PublishAt
	if n.Status != StatusPublished {
		n.Status = statusFor(p.PublishAt, now)
	}
	n.UpdatedAt = now
	return nil
}

// IsOwnedBy checks if the given user authored the item.
func (n *News) IsOwnedBy(userID uuid.UUID) bool {
	return n.AuthorID == userID
}

// IsPublished reports whether the item is visible to readers.
func (n *News) IsPublished() bool {
	return n.Status == StatusPublished
}

// IsDue reports whether a draft's publish time has elapsed at now.
func (n *News) IsDue(now time.Time) bool {
	return n.Status == StatusDraft && n.PublishAt != nil && !n.PublishAt.After(now)
}

// CreatedMessage is the notification text for a newly visible item.
func CreatedMessage(title string) string {
	return fmt.Sprintf("\"%s\" news created", title)
}

// UpdatedMessage is the notification text for an edited item.
func UpdatedMessage(title string) string {
	return fmt.Sprintf("\"%s\" news updated", title)
}

// DeletedMessage is the notification text for a removed item.
func DeletedMessage(title string) string {
	return fmt.Sprintf("\"%s\" news deleted", title)
}

func statusFor(publishAt *time.Time, now time.Time) NewsStatus {
	if publishAt == nil || !publishAt.After(now) {
		return StatusPublished
	}
	return StatusDraft
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
