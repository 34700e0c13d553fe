package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const userIDKey = "user_id"

// currentUser returns the authenticated user id set by the auth middleware.
func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// AuthMiddleware accepts bearer JWTs (HMAC, user id in the sub claim) or
// the configured static tokens. Static-token callers identify themselves
// with an X-User-ID header, since the token carries no subject.
func (a *App) AuthMiddleware() gin.HandlerFunc {
	staticTokens := strings.Split(strings.TrimSpace(a.Cfg.StaticTokens), ",")
	jwtSecret := strings.TrimSpace(a.Cfg.JWTSecret)

	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		tokenStr := parts[1]

		// JWT path
		if jwtSecret != "" {
			token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenMalformed
				}
				return []byte(jwtSecret), nil
			}, jwt.WithLeeway(5*time.Second))
			if err == nil {
				sub, err := token.Claims.GetSubject()
				if err != nil || sub == "" {
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has no subject"})
					return
				}
				c.Set(userIDKey, sub)
				c.Next()
				return
			}
		}

		// static tokens
		for _, t := range staticTokens {
			if t != "" && tokenStr == strings.TrimSpace(t) {
				user := c.GetHeader("X-User-ID")
				if user == "" {
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "X-User-ID required with static token"})
					return
				}
				c.Set(userIDKey, user)
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	}
}
