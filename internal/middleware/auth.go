package middleware

import (
	"net/http"

	"tracker/pkg/response"

	"github.com/gin-gonic/gin"
)

// currentSession reads and validates the session cookie, accepting only
// fully authenticated sessions — a pending-2FA token does not pass.
func currentSession(c *gin.Context) (*SessionClaims, bool) {
	tokenString, err := c.Cookie(SessionCookie)
	if err != nil || tokenString == "" {
		return nil, false
	}
	claims, err := ParseSession(tokenString)
	if err != nil || claims.Stage != StageAuthenticated {
		return nil, false
	}
	return claims, true
}

// RequireLogin gates a route on an authenticated session and exposes
// the identity via the gin context ("username", "userRole").
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentSession(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Please log in."))
			return
		}

		c.Set("username", claims.Username)
		c.Set("userRole", claims.Role)

		c.Next()
	}
}

// RequireRole gates a route on an authenticated session holding one of
// the allowed roles.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentSession(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Please log in."))
			return
		}

		roleAllowed := false
		for _, role := range allowedRoles {
			if claims.Role == role {
				roleAllowed = true
				break
			}
		}
		if !roleAllowed {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Insufficient privileges."))
			return
		}

		c.Set("username", claims.Username)
		c.Set("userRole", claims.Role)

		c.Next()
	}
}
