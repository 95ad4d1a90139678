package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kampungalert/api/authz"
	"github.com/kampungalert/api/services"
)

// respondError maps service and authz errors onto HTTP statuses. Anything
// unrecognized is a 500 with a generic body; the detail goes to the log, not
// the client.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, authz.ErrNotLoggedIn), errors.Is(err, services.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
	case errors.Is(err, authz.ErrMissingKampung):
		c.JSON(http.StatusForbidden, gin.H{"error": "no kampung assigned to your account"})
	case errors.Is(err, authz.ErrRoleNotPermitted):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied for your role"})
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrSelfDelete):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrDuplicateUsername):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
