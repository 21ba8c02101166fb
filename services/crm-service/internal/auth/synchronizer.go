package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/stoik/simplecrm/internal/models"
	"github.com/stoik/simplecrm/services/crm-service/internal/provider"
	"github.com/stoik/simplecrm/services/crm-service/internal/users"
)

// Synchronizer mirrors provider identities into the users table. It must be
// backed by the privileged client; a nil repository denies every sign-in.
type Synchronizer struct {
	users  users.Repository
	logger *zap.Logger
}

func NewSynchronizer(repo users.Repository, logger *zap.Logger) *Synchronizer {
	return &Synchronizer{users: repo, logger: logger}
}

// SignIn creates the local user on first sign-in. A nil error allows the
// sign-in; any error wraps ErrAccessDenied.
func (s *Synchronizer) SignIn(ctx context.Context, ev SignInEvent) error {
	if ev.Provider != provider.TypeGoogle {
		return fmt.Errorf("%w: unsupported provider %q", ErrAccessDenied, ev.Provider)
	}
	if ev.Profile.Email == "" {
		return fmt.Errorf("%w: profile has no email", ErrAccessDenied)
	}
	if s.users == nil {
		s.logger.Error("Sign in rejected: privileged data store client not configured")
		return fmt.Errorf("%w: user store unavailable", ErrAccessDenied)
	}

	_, err := s.users.GetByEmail(ctx, ev.Profile.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, users.ErrNotFound) {
		s.logger.Error("Error checking user", zap.String("email", ev.Profile.Email), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrAccessDenied, err)
	}

	created, err := s.users.Create(ctx, models.NewUserFromProvider(ev.Profile))
	if err != nil {
		s.logger.Error("Error creating user", zap.String("email", ev.Profile.Email), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrAccessDenied, err)
	}

	s.logger.Info("Created user", zap.String("id", created.ID.String()), zap.String("email", created.Email))
	return nil
}

// Session attaches the local user id to the session. Lookup failures leave
// the session without an id.
func (s *Synchronizer) Session(ctx context.Context, ev SessionEvent) Session {
	sess := ev.Session
	if sess.User.Email == "" || s.users == nil {
		return sess
	}

	user, err := s.users.GetByEmail(ctx, sess.User.Email)
	if err != nil {
		if !errors.Is(err, users.ErrNotFound) {
			s.logger.Warn("Error resolving session user", zap.String("email", sess.User.Email), zap.Error(err))
		}
		return sess
	}

	sess.User.ID = user.ID.String()
	return sess
}
