// Package auth signs users in with an external identity provider, keeps the
// local users table in sync with provider profiles, and materializes the
// session carried in a signed cookie.
package auth

import (
	"errors"
	"time"

	"github.com/stoik/simplecrm/internal/models"
)

// ErrAccessDenied is returned by the sign-in callback when the user must not
// be signed in.
var ErrAccessDenied = errors.New("access denied")

// SignInEvent is raised once per successful provider callback, before a
// session is issued.
type SignInEvent struct {
	Provider string
	Profile  models.ProviderUser
}

// SessionEvent is raised every time a session is materialized from its cookie.
type SessionEvent struct {
	Session Session
}

// Session is the client-visible session object.
type Session struct {
	User    SessionUser `json:"user"`
	Expires time.Time   `json:"expires"`
}

// SessionUser identifies the signed-in user. ID is the local users.id and is
// empty when no matching user row exists.
type SessionUser struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}
