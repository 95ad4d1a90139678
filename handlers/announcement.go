package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kampungalert/api/authz"
	"github.com/kampungalert/api/db"
	"github.com/kampungalert/api/services"
)

type AnnouncementHandler struct {
	announcementService *services.AnnouncementService
}

func NewAnnouncementHandler(announcementService *services.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcementService: announcementService}
}

// ListAnnouncements handles GET /announcements. Public.
func (h *AnnouncementHandler) ListAnnouncements(c *gin.Context) {
	announcements, err := h.announcementService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "announcements": announcements})
}

// CreateAnnouncement handles POST /announcements. HQ only.
func (h *AnnouncementHandler) CreateAnnouncement(c *gin.Context) {
	if _, err := authz.Authorize(getPrincipal(c), authz.ResourceAnnouncements, authz.ActionCreate); err != nil {
		respondError(c, err)
		return
	}

	var req db.AnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	announcement, err := h.announcementService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "announcement": announcement})
}

// UpdateAnnouncement handles PUT /announcements/:id. HQ only.
func (h *AnnouncementHandler) UpdateAnnouncement(c *gin.Context) {
	if _, err := authz.Authorize(getPrincipal(c), authz.ResourceAnnouncements, authz.ActionManage); err != nil {
		respondError(c, err)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid announcement id"})
		return
	}

	var req db.AnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	if err := h.announcementService.Update(c.Request.Context(), id, &req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteAnnouncement handles DELETE /announcements/:id. HQ only.
func (h *AnnouncementHandler) DeleteAnnouncement(c *gin.Context) {
	if _, err := authz.Authorize(getPrincipal(c), authz.ResourceAnnouncements, authz.ActionManage); err != nil {
		respondError(c, err)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid announcement id"})
		return
	}

	if err := h.announcementService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": true})
}
