package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	SessionUserID = "user_id"
	ContextUserID = "user_id"
)

// RequireAuth rejects requests without an authenticated session
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get(SessionUserID)

		if userID == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// OptionalAuth resolves the session user when present but lets
// unauthenticated requests through. The stream endpoint falls back to
// token auth when no session exists.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if userID := session.Get(SessionUserID); userID != nil {
			c.Set(ContextUserID, userID)
		}
		c.Next()
	}
}
