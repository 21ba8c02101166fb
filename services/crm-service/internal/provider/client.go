package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/stoik/simplecrm/internal/models"
)

const (
	TypeGoogle = "google"

	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

// Config selects and configures the identity provider.
// APIURL, when set, replaces the provider's endpoints (local mock server).
type Config struct {
	Type         string
	ClientID     string
	ClientSecret string
	AppURL       string
	APIURL       string
}

func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("google.client_id not configured")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("google.client_secret not configured")
	}
	return nil
}

// GoogleProvider implements the Provider interface for Google accounts
type GoogleProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
	client      *http.Client
}

// NewGoogleProvider creates a new Google provider client
func NewGoogleProvider(cfg Config) *GoogleProvider {
	endpoint := google.Endpoint
	userInfoURL := googleUserInfoURL
	if cfg.APIURL != "" {
		base := strings.TrimRight(cfg.APIURL, "/")
		endpoint = oauth2.Endpoint{
			AuthURL:  base + "/o/oauth2/auth",
			TokenURL: base + "/token",
		}
		userInfoURL = base + "/v1/userinfo"
	}

	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  CallbackURL(cfg.AppURL, TypeGoogle),
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoint,
		},
		userInfoURL: userInfoURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (g *GoogleProvider) Name() string {
	return TypeGoogle
}

func (g *GoogleProvider) AuthCodeURL(state, verifier string) string {
	return g.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOnline,
		oauth2.S256ChallengeOption(verifier),
	)
}

// Exchange implements Provider.Exchange for Google accounts
func (g *GoogleProvider) Exchange(ctx context.Context, code, verifier string) (models.ProviderUser, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)

	token, err := g.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return models.ProviderUser{}, fmt.Errorf("failed to exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return models.ProviderUser{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return models.ProviderUser{}, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return models.ProviderUser{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var user models.GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return models.ProviderUser{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return user, nil
}

// CallbackURL is where the provider sends the browser back after consent
func CallbackURL(appURL, providerType string) string {
	return strings.TrimRight(appURL, "/") + "/api/auth/callback/" + providerType
}

// NewProvider creates a provider instance based on configuration.
// Only "google" is supported; an empty type defaults to it.
func NewProvider(cfg Config) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case TypeGoogle, "":
		return NewGoogleProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported provider.type %q", cfg.Type)
	}
}
