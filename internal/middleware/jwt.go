package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inkpost/internal/pkg/jwt"
	"inkpost/internal/pkg/response"
)

const (
	CookieName       = "token"
	ContextUserIDKey = "user_id"
)

// JWTAuth reads the session cookie. A missing cookie is 401; a cookie that
// fails signature or expiry checks is 403.
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(CookieName)
		if err != nil || token == "" {
			response.Error(c, http.StatusUnauthorized, "unauthorized", "no token provided")
			c.Abort()
			return
		}
		claims, err := jwt.ParseToken(token, secret)
		if err != nil {
			response.Error(c, http.StatusForbidden, "forbidden", "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUserIDKey, claims.UserID)
		c.Next()
	}
}
