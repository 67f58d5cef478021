package session

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studyon/internal/api"
)

const (
	// CookieName holds the session ID on the client side.
	CookieName = "studyon_session"

	contextKey = "session"
)

// Middleware loads the caller's session when a cookie is present. A missing
// or stale cookie leaves the request anonymous; a failed token refresh ends
// the request, since continuing with a dead token would only fail later.
func Middleware(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(CookieName)
		if err != nil || id == "" {
			c.Next()
			return
		}

		sess, err := m.Load(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidToken) {
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{
				Error: "Session expired, please log in again",
			})
			return
		}

		c.Set(contextKey, sess)
		c.Next()
	}
}

func FromContext(c *gin.Context) (*Session, bool) {
	value, exists := c.Get(contextKey)
	if !exists {
		return nil, false
	}

	sess, ok := value.(*Session)
	if !ok {
		return nil, false
	}
	return sess, true
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := FromContext(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{
				Error: "Authentication required",
			})
			return
		}
		c.Next()
	}
}

func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := FromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{
				Error: "Authentication required",
			})
			return
		}

		if !sess.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, api.ErrorResponse{
				Error: "Insufficient permissions",
			})
			return
		}
		c.Next()
	}
}
