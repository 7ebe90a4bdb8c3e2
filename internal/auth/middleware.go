package auth

import (
	"context"
	"net/http"
	"strings"

	dom "userapi/internal/domain"

	"github.com/gin-gonic/gin"
)

const contextKeyUser = "current_user"

// UserResolver turns a verified token subject into a fresh account.
type UserResolver interface {
	GetByID(ctx context.Context, id int64) (dom.User, error)
}

// CurrentUser returns the account set by RequireToken. Zero value if not set.
func CurrentUser(c *gin.Context) dom.User {
	v, ok := c.Get(contextKeyUser)
	if !ok {
		return dom.User{}
	}
	u, ok := v.(dom.User)
	if !ok {
		return dom.User{}
	}
	return u
}

// RequireToken returns a middleware that checks the Authorization header for
// a valid bearer token, resolves the subject to an account and sets it in
// context. Any failure responds 401 with the same body; callers learn nothing
// about why.
func RequireToken(issuer *TokenIssuer, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		claims, err := issuer.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		id, err := claims.UserID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		user, err := users.GetByID(c.Request.Context(), id)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		c.Set(contextKeyUser, user)
		c.Next()
	}
}

// bearerToken extracts the token from "Bearer <token>".
func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
