package people

import (
	"context"

	"github.com/google/uuid"
	"github.com/stoik/simplecrm/internal/models"
)

type Repository interface {
	// List returns people newest first. A valid owner restricts the result to
	// that user's rows.
	List(ctx context.Context, owner uuid.NullUUID) ([]models.Person, error)
	Create(ctx context.Context, in models.NewPerson) (*models.Person, error)
}
