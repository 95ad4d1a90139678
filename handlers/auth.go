package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kampungalert/api/services"
)

type AuthHandler struct {
	Sessions *services.SessionService
}

func NewAuthHandler(sessions *services.SessionService) *AuthHandler {
	return &AuthHandler{Sessions: sessions}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials, sets the session cookie and returns the token
// for header-based clients.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	result, err := h.Sessions.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.SetCookie(SessionCookieName, result.SessionID, int(services.SessionTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"token":    result.Token,
		"username": result.Principal.Username,
		"role":     result.Principal.Role,
		"kampung":  result.Principal.Kampung,
	})
}

// Logout drops the server-side session and clears the cookie. Always
// succeeds, even with no session.
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, _ := c.Cookie(SessionCookieName)
	if err := h.Sessions.Logout(c.Request.Context(), sessionID); err != nil {
		respondError(c, err)
		return
	}
	c.SetCookie(SessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CheckSession reports whether the request carries a live credential. Used by
// the dashboard on load; never returns an error status.
func (h *AuthHandler) CheckSession(c *gin.Context) {
	principal := resolvePrincipal(c, h.Sessions)
	if principal == nil {
		c.JSON(http.StatusOK, gin.H{"loggedIn": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"loggedIn": true,
		"username": principal.Username,
		"role":     principal.Role,
		"kampung":  principal.Kampung,
	})
}
