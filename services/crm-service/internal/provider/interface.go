package provider

import (
	"context"

	"github.com/stoik/simplecrm/internal/models"
)

// Provider defines the interface for external identity providers (Google, ...)
type Provider interface {
	// Name is the provider id used in routes and sign-in events, e.g. "google"
	Name() string

	// AuthCodeURL builds the consent page URL. verifier is the PKCE code verifier.
	AuthCodeURL(state, verifier string) string

	// Exchange trades an authorization code for the signed-in user's profile
	Exchange(ctx context.Context, code, verifier string) (models.ProviderUser, error)
}
