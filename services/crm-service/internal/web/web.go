// Package web serves the single-page contacts UI and the sign-in page.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stoik/simplecrm/services/crm-service/internal/auth"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

var signInErrors = map[string]string{
	auth.ErrorOAuthSignin:   "Could not start signing in. Please try again.",
	auth.ErrorOAuthCallback: "Signing in with Google failed. Please try again.",
	auth.ErrorAccessDenied:  "Access denied. Your account could not be signed in.",
	auth.ErrorConfiguration: "The server is misconfigured. Contact the administrator.",
}

const defaultSignInError = "Unable to sign in."

type Handler struct {
	providerName string
}

func NewHandler(providerName string) *Handler {
	return &Handler{providerName: providerName}
}

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	t, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return t, nil
}

// Register installs the templates on the engine and mounts the page routes.
func (h *Handler) Register(r *gin.Engine) error {
	t, err := Templates()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(t)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return fmt.Errorf("failed to open static assets: %w", err)
	}
	r.StaticFS("/static", http.FS(static))

	r.GET("/", h.Index)
	r.GET(auth.SignInPage, h.SignIn)
	return nil
}

type indexPage struct {
	SignedIn  bool
	User      auth.SessionUser
	SignInURL string
}

// Index renders the contacts page, or the sign-in prompt when signed out.
func (h *Handler) Index(c *gin.Context) {
	page := indexPage{SignInURL: h.signInURL()}
	if sess := auth.CurrentSession(c); sess != nil {
		page.SignedIn = true
		page.User = sess.User
	}
	c.HTML(http.StatusOK, "index.html", page)
}

type signInPage struct {
	Error     string
	SignInURL string
}

func (h *Handler) SignIn(c *gin.Context) {
	if auth.CurrentSession(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}

	page := signInPage{SignInURL: h.signInURL()}
	if code := c.Query("error"); code != "" {
		page.Error = signInErrors[code]
		if page.Error == "" {
			page.Error = defaultSignInError
		}
	}
	c.HTML(http.StatusOK, "signin.html", page)
}

func (h *Handler) signInURL() string {
	return "/api/auth/signin/" + h.providerName
}
