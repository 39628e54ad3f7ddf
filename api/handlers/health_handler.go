package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/mediagrab-go/internal/app"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// HealthHandler handles health check requests
type HealthHandler struct {
	controller *app.DownloadController
	encoders   *app.EncoderSelector
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(controller *app.DownloadController, encoders *app.EncoderSelector) *HealthHandler {
	return &HealthHandler{
		controller: controller,
		encoders:   encoders,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	State    string `json:"state"`
	Encoders struct {
		Ready bool `json:"ready"`
	} `json:"encoders"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: Version,
		State:   string(h.controller.State()),
	}
	response.Encoders.Ready = h.encoders.IsReady()

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.encoders.IsReady() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "encoder probe still running",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
