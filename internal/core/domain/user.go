package domain

import (
	"net/mail"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/lorrc/newsroom-notifications/internal/core/errors"
)

const (
	MaxFullNameLength = 255
	MaxEmailLength    = 255
)

// User is a member of the audience. Every user receives every news event.
type User struct {
	ID        uuid.UUID
	Email     string
	FullName  string
	CreatedAt time.Time
}

// UserParams holds parameters for adding a user to the directory.
type UserParams struct {
	FullName string
	Email    string
}

// Validate validates user parameters
func (p *UserParams) Validate() error {
	errs := apperrors.NewValidationErrors()

	if p.FullName == "" {
		errs.Add("fullName", "Full name is required")
	} else if len(p.FullName) > MaxFullNameLength {
		errs.Add("fullName", "Full name must be 255 characters or less")
	}

	if p.Email == "" {
		errs.Add("email", "Email is required")
	} else if len(p.Email) > MaxEmailLength {
		errs.Add("email", "Email must be 255 characters or less")
	} else if !isValidEmail(p.Email) {
		errs.Add("email", "Invalid email format")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// NewUser creates a new user with validated parameters
func NewUser(params UserParams) (*User, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return &User{
		ID:        uuid.New(),
		FullName:  params.FullName,
		Email:     params.Email,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func isValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
