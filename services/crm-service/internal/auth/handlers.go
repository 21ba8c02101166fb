package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/stoik/simplecrm/services/crm-service/internal/provider"
)

const (
	stateCookie    = "crm_oauth_state"
	verifierCookie = "crm_oauth_verifier"
	oauthCookieAge = 600 // seconds

	SignInPage = "/auth/signin"

	// Error codes shown on the sign-in page
	ErrorOAuthSignin   = "OAuthSignin"
	ErrorOAuthCallback = "OAuthCallback"
	ErrorAccessDenied  = "AccessDenied"
	ErrorConfiguration = "Configuration"
)

// Handler serves the /api/auth routes.
type Handler struct {
	provider provider.Provider
	sessions *SessionManager
	sync     *Synchronizer
	appURL   string
	logger   *zap.Logger
}

func NewHandler(p provider.Provider, sessions *SessionManager, sync *Synchronizer, appURL string, logger *zap.Logger) *Handler {
	return &Handler{provider: p, sessions: sessions, sync: sync, appURL: appURL, logger: logger}
}

func (h *Handler) Register(r gin.IRouter) {
	auth := r.Group("/api/auth")
	{
		auth.GET("/providers", h.Providers)
		auth.GET("/signin/:provider", h.SignIn)
		auth.GET("/callback/:provider", h.Callback)
		auth.GET("/session", h.Session)
		auth.GET("/signout", h.SignOut)
		auth.POST("/signout", h.SignOut)
	}
}

func (h *Handler) Providers(c *gin.Context) {
	name := h.provider.Name()
	c.JSON(http.StatusOK, gin.H{
		name: gin.H{
			"id":          name,
			"name":        "Google",
			"signinUrl":   "/api/auth/signin/" + name,
			"callbackUrl": provider.CallbackURL(h.appURL, name),
		},
	})
}

// SignIn redirects the browser to the provider's consent page.
func (h *Handler) SignIn(c *gin.Context) {
	if c.Param("provider") != h.provider.Name() {
		h.redirectError(c, ErrorOAuthSignin)
		return
	}

	state, err := randomString(32)
	if err != nil {
		h.logger.Error("Error generating OAuth state", zap.Error(err))
		h.redirectError(c, ErrorOAuthSignin)
		return
	}
	verifier := oauth2.GenerateVerifier()

	h.setOAuthCookie(c, stateCookie, state, oauthCookieAge)
	h.setOAuthCookie(c, verifierCookie, verifier, oauthCookieAge)

	c.Redirect(http.StatusFound, h.provider.AuthCodeURL(state, verifier))
}

// Callback completes the provider round trip. The user is signed in only if
// the exchange and the user synchronization both succeed.
func (h *Handler) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	state, _ := c.Cookie(stateCookie)
	verifier, _ := c.Cookie(verifierCookie)
	h.setOAuthCookie(c, stateCookie, "", -1)
	h.setOAuthCookie(c, verifierCookie, "", -1)

	if c.Param("provider") != h.provider.Name() {
		h.redirectError(c, ErrorOAuthCallback)
		return
	}
	if c.Query("error") != "" {
		h.logger.Info("Provider returned error", zap.String("error", c.Query("error")))
		h.redirectError(c, ErrorAccessDenied)
		return
	}
	if state == "" || verifier == "" || c.Query("state") != state {
		h.logger.Warn("OAuth state mismatch")
		h.redirectError(c, ErrorOAuthCallback)
		return
	}

	profile, err := h.provider.Exchange(ctx, c.Query("code"), verifier)
	if err != nil {
		h.logger.Error("Error exchanging authorization code", zap.Error(err))
		h.redirectError(c, ErrorOAuthCallback)
		return
	}

	if err := h.sync.SignIn(ctx, SignInEvent{Provider: h.provider.Name(), Profile: profile}); err != nil {
		h.logger.Warn("Sign in denied", zap.String("email", profile.Email), zap.Error(err))
		h.redirectError(c, ErrorAccessDenied)
		return
	}

	if err := h.sessions.Issue(c.Writer, profile); err != nil {
		h.logger.Error("Error issuing session", zap.Error(err))
		h.redirectError(c, ErrorConfiguration)
		return
	}

	c.Redirect(http.StatusFound, "/")
}

// Session returns the materialized session, or an empty object.
func (h *Handler) Session(c *gin.Context) {
	sess := CurrentSession(c)
	if sess == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *Handler) SignOut(c *gin.Context) {
	h.sessions.Clear(c.Writer)
	if c.Request.Method == http.MethodPost && c.GetHeader("Accept") == "application/json" {
		c.JSON(http.StatusOK, gin.H{"url": "/"})
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) redirectError(c *gin.Context, code string) {
	c.Redirect(http.StatusFound, SignInPage+"?error="+url.QueryEscape(code))
}

func (h *Handler) setOAuthCookie(c *gin.Context, name, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/api/auth",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.sessions.Secure(),
	})
}

func randomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
