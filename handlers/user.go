package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kampungalert/api/authz"
	"github.com/kampungalert/api/db"
	"github.com/kampungalert/api/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListUsers handles GET /users. HQ only.
func (h *UserHandler) ListUsers(c *gin.Context) {
	if _, err := authz.Authorize(getPrincipal(c), authz.ResourceUsers, authz.ActionView); err != nil {
		respondError(c, err)
		return
	}

	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
}

// CreateUser handles POST /users. HQ only.
func (h *UserHandler) CreateUser(c *gin.Context) {
	if _, err := authz.Authorize(getPrincipal(c), authz.ResourceUsers, authz.ActionCreate); err != nil {
		respondError(c, err)
		return
	}

	var req db.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	user, err := h.userService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "user": user})
}

// UpdateUser handles PUT /users/:id. The self-password rule for ketua
// kampung lives in the service, so no matrix check here.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req db.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	if err := h.userService.Update(c.Request.Context(), getPrincipal(c), id, &req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteUser handles DELETE /users/:id. HQ only.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	principal := getPrincipal(c)
	if _, err := authz.Authorize(principal, authz.ResourceUsers, authz.ActionManage); err != nil {
		respondError(c, err)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.userService.Delete(c.Request.Context(), principal, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": true})
}

// ListKampungs handles GET /kampungs, feeding form dropdowns.
func (h *UserHandler) ListKampungs(c *gin.Context) {
	kampungs, err := h.userService.Kampungs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "kampungs": kampungs})
}
