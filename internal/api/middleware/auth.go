package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/keychainmdip/dex-market/internal/auth"
	"github.com/keychainmdip/dex-market/internal/domain"
)

// actorKey is the gin context key carrying the authenticated user DID
const actorKey = "actor"

// Identity resolves the session cookie into an actor DID when present.
// Invalid or absent cookies leave the request anonymous; RequireAuth
// decides whether that matters.
func Identity(sessions *auth.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cookie, err := c.Cookie(auth.SessionCookie); err == nil {
			if did, err := sessions.ParseSession(cookie); err == nil {
				c.Set(actorKey, did)
			}
		}
		c.Next()
	}
}

// Actor returns the authenticated DID bound to the request, if any
func Actor(c *gin.Context) (domain.DID, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return "", false
	}
	did, ok := v.(domain.DID)
	return did, ok
}

// RequireAuth aborts anonymous requests with 401
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := Actor(c); !ok {
			c.AbortWithStatusJSON(401, gin.H{
				"error": gin.H{"code": "unauthorized", "message": "Authentication required"},
			})
			return
		}
		c.Next()
	}
}
