package middleware

import (
	"net/http"

	"tgstorefront/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ClaimsKey is the gin context key holding *session.Claims
const ClaimsKey = "session_claims"

// AuthMiddleware rejects requests without a valid session cookie
func AuthMiddleware(verifier *session.Verifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(session.CookieName)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session cookie is required"})
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			logger.Debug("Rejected session token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// SessionClaims returns the claims stored by AuthMiddleware
func SessionClaims(c *gin.Context) (*session.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*session.Claims)
	return claims, ok
}
