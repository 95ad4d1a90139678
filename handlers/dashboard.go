package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kampungalert/api/authz"
	"github.com/kampungalert/api/services"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Summary handles GET /dashboard. A ketua kampung sees only their kampung;
// wider roles see everything and may narrow with ?kampung=.
func (h *DashboardHandler) Summary(c *gin.Context) {
	scope, err := authz.Authorize(getPrincipal(c), authz.ResourceDashboard, authz.ActionView)
	if err != nil {
		respondError(c, err)
		return
	}

	summary, err := h.dashboardService.Summary(c.Request.Context(), scope, c.Query("kampung"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
