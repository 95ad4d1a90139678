package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kampungalert/api/authz"
	"github.com/kampungalert/api/db"
	"github.com/kampungalert/api/services"
)

type IncidentHandler struct {
	incidentService *services.IncidentService
}

func NewIncidentHandler(incidentService *services.IncidentService) *IncidentHandler {
	return &IncidentHandler{incidentService: incidentService}
}

// ListIncidents handles GET /incidents. The caller's scope decides whether
// they see the whole district or one kampung; query params narrow further.
func (h *IncidentHandler) ListIncidents(c *gin.Context) {
	scope, err := authz.Authorize(getPrincipal(c), authz.ResourceIncidents, authz.ActionView)
	if err != nil {
		respondError(c, err)
		return
	}

	filters := db.IncidentFilters{
		Status:  c.Query("status"),
		Type:    c.Query("type"),
		Kampung: c.Query("kampung"),
	}

	incidents, err := h.incidentService.List(c.Request.Context(), scope, filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"total":     len(incidents),
		"incidents": incidents,
	})
}

// CreateIncident handles POST /incidents. This endpoint is public so
// villagers can report without an account.
func (h *IncidentHandler) CreateIncident(c *gin.Context) {
	var req db.CreateIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	incident, err := h.incidentService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "incident": incident})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus handles PATCH /incidents/:id/status. A kampung-scoped caller
// whose scope does not match the row gets updated=false, not an error; the
// response shape never reveals whether the row exists outside their view.
func (h *IncidentHandler) UpdateStatus(c *gin.Context) {
	scope, err := authz.Authorize(getPrincipal(c), authz.ResourceIncidents, authz.ActionEditStatus)
	if err != nil {
		respondError(c, err)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident id"})
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	updated, err := h.incidentService.UpdateStatus(c.Request.Context(), scope, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "updated": updated})
}

type assignAgencyRequest struct {
	Agency string `json:"agency" binding:"required"`
}

// AssignAgency handles PATCH /incidents/:id/agency.
func (h *IncidentHandler) AssignAgency(c *gin.Context) {
	scope, err := authz.Authorize(getPrincipal(c), authz.ResourceIncidents, authz.ActionAssignAgency)
	if err != nil {
		respondError(c, err)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident id"})
		return
	}

	var req assignAgencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "agency is required"})
		return
	}

	updated, err := h.incidentService.AssignAgency(c.Request.Context(), scope, id, req.Agency)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "updated": updated})
}

// SummaryByKampung handles GET /incidents/summary-by-kampung, the public
// district rollup shown on the landing page.
func (h *IncidentHandler) SummaryByKampung(c *gin.Context) {
	summaries, err := h.incidentService.SummaryByKampung(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "summary": summaries})
}
