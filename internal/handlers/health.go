package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"supportdesk/internal/backend"
)

// HealthHandler reports service and backend liveness.
type HealthHandler struct {
	client backend.Client
}

// NewHealthHandler builds a HealthHandler.
func NewHealthHandler(client backend.Client) *HealthHandler {
	return &HealthHandler{client: client}
}

// Healthz reports liveness.
func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz reports readiness by probing the backend.
func (h *HealthHandler) Readyz(c *gin.Context) {
	if _, err := h.client.SelectRows(c.Request.Context(), backend.TableProfiles, nil, "", true, 1); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
