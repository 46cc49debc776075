package auth

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/lifetrack/internal/api/models"
	"github.com/jon4hz/lifetrack/internal/engine"
)

// SessionUserKey is the session key holding the username.
const SessionUserKey = "user"

// Context keys set by RequireAuth.
const (
	ContextUserKey  = "user"
	ContextActorKey = "actor"
)

// Login stores username in the session.
func Login(c *gin.Context, username string) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(SessionUserKey, username)
	return session.Save()
}

// Logout clears the session.
func Logout(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	return session.Save()
}

// RequireAuth loads the session user. Sessions of deleted or suspended users are dropped.
func RequireAuth(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, _ := sessions.Default(c).Get(SessionUserKey).(string)
		if username == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "login required"})
			return
		}

		user, err := e.CurrentUser(c.Request.Context(), username)
		if err != nil {
			if errors.Is(err, engine.ErrSuspended) || errors.Is(err, engine.ErrNotFound) {
				if err := Logout(c); err != nil {
					log.Error("Failed to clear session", "error", err)
				}
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
				return
			}
			log.Error("Failed to load session user", "user", username, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal server error"})
			return
		}

		c.Set(ContextUserKey, models.ToUser(user, e.IsBirthday(user)))
		c.Set(ContextActorKey, engine.ActorFor(user))
		c.Next()
	}
}

// RequireAdmin rejects users without the admin role. It must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := c.MustGet(ContextUserKey).(*models.User)
		if !ok || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "forbidden"})
			return
		}
		c.Next()
	}
}
