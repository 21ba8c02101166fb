package auth

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stoik/simplecrm/internal/models"
)

// ErrNoSession is returned by Read when the request carries no session cookie.
var ErrNoSession = errors.New("no session")

type SessionConfig struct {
	Secret     string
	CookieName string
	MaxAge     time.Duration
	AppURL     string
}

func (c *SessionConfig) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("auth.secret not configured")
	}
	if c.CookieName == "" {
		return fmt.Errorf("auth.cookie_name not configured")
	}
	if c.MaxAge <= 0 {
		return fmt.Errorf("auth.max_age must be positive")
	}
	return nil
}

// Claims is the payload of the session token. Subject is the provider's
// account id.
type Claims struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Session converts the claims into the session object before materialization
func (c *Claims) Session() Session {
	s := Session{User: SessionUser{Name: c.Name, Email: c.Email, Image: c.Picture}}
	if c.ExpiresAt != nil {
		s.Expires = c.ExpiresAt.Time
	}
	return s
}

// SessionManager issues and reads HS256-signed session cookies.
type SessionManager struct {
	secret     []byte
	cookieName string
	maxAge     time.Duration
	secure     bool
	now        func() time.Time
}

func NewSessionManager(cfg SessionConfig) (*SessionManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	secure := false
	if u, err := url.Parse(cfg.AppURL); err == nil && u.Scheme == "https" {
		secure = true
	}

	return &SessionManager{
		secret:     []byte(cfg.Secret),
		cookieName: cfg.CookieName,
		maxAge:     cfg.MaxAge,
		secure:     secure,
		now:        time.Now,
	}, nil
}

// Issue signs a token for the profile and sets it as the session cookie.
func (m *SessionManager) Issue(w http.ResponseWriter, profile models.ProviderUser) error {
	now := m.now()
	claims := &Claims{
		Name:    profile.Name,
		Email:   profile.Email,
		Picture: profile.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("failed to sign session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.secure,
		Expires:  now.Add(m.maxAge),
	})
	return nil
}

// Read parses and verifies the session cookie.
func (m *SessionManager) Read(r *http.Request) (*Claims, error) {
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return nil, ErrNoSession
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(c.Value, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("invalid session: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid session")
	}

	return claims, nil
}

// Clear expires the session cookie.
func (m *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.secure,
		MaxAge:   -1,
	})
}

// Secure reports whether cookies are marked Secure
func (m *SessionManager) Secure() bool {
	return m.secure
}
