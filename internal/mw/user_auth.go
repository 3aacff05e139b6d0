package mw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"locker-dispatch-backend/internal/auth"
)

const userIDKey = "user_id"

// UserAuth validates the Bearer token on user-facing routes and attaches the
// verified subject to the request context.
func UserAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := jwtService.VerifyToken(strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(userIDKey, claims.Subject)
		c.Next()
	}
}

// UserID returns the verified subject set by UserAuth.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
