package users

import (
	"context"
	"errors"

	"github.com/stoik/simplecrm/internal/models"
)

// ErrNotFound is returned when no user matches a lookup.
var ErrNotFound = errors.New("user not found")

type Repository interface {
	// GetByEmail returns ErrNotFound when no user has the email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Create inserts the user unless the email is already taken, and returns
	// the stored row either way.
	Create(ctx context.Context, user *models.User) (*models.User, error)
}
