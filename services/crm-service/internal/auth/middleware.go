package auth

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sessionKey = "session"

// Middleware materializes the session for every request it wraps. Requests
// without a valid cookie continue signed out.
func Middleware(sessions *SessionManager, sync *Synchronizer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := sessions.Read(c.Request)
		if err != nil {
			if !errors.Is(err, ErrNoSession) {
				logger.Debug("Ignoring session cookie", zap.Error(err))
			}
			c.Next()
			return
		}

		sess := sync.Session(c.Request.Context(), SessionEvent{Session: claims.Session()})
		SetSession(c, &sess)
		c.Next()
	}
}

// SetSession stores the materialized session on the request context.
func SetSession(c *gin.Context, sess *Session) {
	c.Set(sessionKey, sess)
}

// CurrentSession returns the materialized session, or nil when signed out.
func CurrentSession(c *gin.Context) *Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*Session)
	return sess
}

// CurrentUserID returns the local user id of the session, if any.
func CurrentUserID(c *gin.Context) uuid.NullUUID {
	sess := CurrentSession(c)
	if sess == nil || sess.User.ID == "" {
		return uuid.NullUUID{}
	}
	id, err := uuid.Parse(sess.User.ID)
	if err != nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: id, Valid: true}
}
