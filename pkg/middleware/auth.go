package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/docufold/docufold/internal/sessions"
	"github.com/docufold/docufold/internal/tokens"
)

// AccessTokenCookie is the cookie the admin UI stores its access token in.
const AccessTokenCookie = "access_token"

// AuthMiddleware verifies the operator's access token, taken from the
// Authorization header ('Bearer <token>') or from the session cookie. Revoked
// tokens are rejected via the Redis blacklist when one is configured.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := ""
		if auth := c.GetHeader("Authorization"); auth != "" {
			parts := strings.SplitN(auth, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
				return
			}
			raw = parts[1]
		} else if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
			raw = cookie
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			return
		}

		if revoked, err := sessions.IsAccessTokenBlacklisted(c.Request.Context(), raw); err == nil && revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			return
		}

		claims, err := tokens.ParseAccessToken(secret, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "details": err.Error()})
			return
		}

		c.Set("claims", map[string]interface{}(claims))
		c.Set("access_token", raw)
		c.Next()
	}
}
