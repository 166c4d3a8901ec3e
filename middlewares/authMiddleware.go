package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/roastery_backend/config"
	"github.com/mmdatafocus/roastery_backend/utils"
)

// TokenRevokedFunc reports whether a token was logged out.
type TokenRevokedFunc func(token string) (bool, error)

// AuthMiddleware rejects requests without a valid, unrevoked bearer token and
// puts the token and its claims in the request context.
func AuthMiddleware(isRevoked TokenRevokedFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")
		bearer := "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		auth = strings.TrimSpace(auth[len(bearer):])

		validate, err := utils.JwtValidate(auth)
		if err != nil || !validate.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		customClaim, ok := validate.Claims.(*utils.JwtCustomClaim)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if isRevoked != nil {
			revoked, err := isRevoked(auth)
			if err != nil {
				config.LogError(config.GetLogger(), "middlewares", "AuthMiddleware", "check revoked token", customClaim.Username, err)
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "session store unavailable"})
				return
			}
			if revoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), auth)
		ctx = utils.SetUserIdInContext(ctx, customClaim.UserId)
		ctx = utils.SetUsernameInContext(ctx, customClaim.Username)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
