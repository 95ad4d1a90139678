package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kampungalert/api/authz"
	"github.com/kampungalert/api/db"
	"github.com/kampungalert/api/services"
)

type VictimHandler struct {
	victimService *services.VictimService
}

func NewVictimHandler(victimService *services.VictimService) *VictimHandler {
	return &VictimHandler{victimService: victimService}
}

// ListVictims handles GET /victims.
func (h *VictimHandler) ListVictims(c *gin.Context) {
	scope, err := authz.Authorize(getPrincipal(c), authz.ResourceVictims, authz.ActionView)
	if err != nil {
		respondError(c, err)
		return
	}

	victims, err := h.victimService.List(c.Request.Context(), scope)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"total":   len(victims),
		"victims": victims,
	})
}

// RegisterVictim handles POST /victims. The victim and any household members
// are written in one transaction.
func (h *VictimHandler) RegisterVictim(c *gin.Context) {
	principal := getPrincipal(c)
	if _, err := authz.Authorize(principal, authz.ResourceVictims, authz.ActionCreate); err != nil {
		respondError(c, err)
		return
	}

	var req db.RegisterVictimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	victim, err := h.victimService.Create(c.Request.Context(), principal, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "victim": victim})
}
