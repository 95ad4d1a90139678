package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kampungalert/api/authz"
	"github.com/kampungalert/api/services"
)

// SessionCookieName is the HTTP-only cookie the dashboard SPA rides on.
// Mobile and API clients send the login token as a bearer header instead.
const SessionCookieName = "session_id"

const principalContextKey = "principal"

// AuthRequired resolves the request credential to a Principal and aborts
// with 401 when there is none. A missing or expired session is always 401,
// never 500: the caller can fix it by logging in again.
func AuthRequired(sessions *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := resolvePrincipal(c, sessions)
		if principal == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Set(principalContextKey, principal)
		c.Next()
	}
}

func resolvePrincipal(c *gin.Context, sessions *services.SessionService) *authz.Principal {
	if sessionID, err := c.Cookie(SessionCookieName); err == nil && sessionID != "" {
		if principal, err := sessions.ResolveSession(c.Request.Context(), sessionID); err == nil {
			return principal
		}
	}

	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		token := strings.TrimPrefix(header, "Bearer ")
		if principal, err := sessions.ResolveToken(token); err == nil {
			return principal
		}
	}

	return nil
}

// getPrincipal reads the Principal placed in the context by AuthRequired.
func getPrincipal(c *gin.Context) *authz.Principal {
	value, exists := c.Get(principalContextKey)
	if !exists {
		return nil
	}
	principal, ok := value.(*authz.Principal)
	if !ok {
		return nil
	}
	return principal
}
