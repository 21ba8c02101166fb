package people

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/stoik/simplecrm/internal/models"
)

// ErrNameRequired rejects a missing, non-string or blank name.
var ErrNameRequired = errors.New("name is required")

// createRequest keeps the fields untyped so that a non-string name is
// reported as a validation failure instead of a decode failure.
type createRequest struct {
	Name    any `json:"name"`
	Company any `json:"company"`
}

// newPerson validates a create request. The name must be a string that is
// not blank once trimmed; the company is trimmed and stored as NULL when
// blank or not a string.
func newPerson(req createRequest, owner uuid.NullUUID) (models.NewPerson, error) {
	name, ok := req.Name.(string)
	if !ok {
		return models.NewPerson{}, ErrNameRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.NewPerson{}, ErrNameRequired
	}

	in := models.NewPerson{UserID: owner, Name: name}
	if company, ok := req.Company.(string); ok {
		if company = strings.TrimSpace(company); company != "" {
			in.Company = &company
		}
	}

	return in, nil
}
