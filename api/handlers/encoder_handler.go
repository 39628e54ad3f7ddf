package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/mediagrab-go/internal/app"
)

// EncoderHandler exposes the encoder probe results
type EncoderHandler struct {
	encoders *app.EncoderSelector
}

// NewEncoderHandler creates a new encoder handler
func NewEncoderHandler(encoders *app.EncoderSelector) *EncoderHandler {
	return &EncoderHandler{encoders: encoders}
}

// UseEncoderRequest selects an encoder by ffmpeg name
type UseEncoderRequest struct {
	Name string `json:"name" binding:"required"`
}

// List handles GET /api/v1/encoders
func (h *EncoderHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ready":     h.encoders.IsReady(),
		"current":   h.encoders.Current(),
		"available": h.encoders.Available(),
	})
}

// Use handles PUT /api/v1/encoders/current
func (h *EncoderHandler) Use(c *gin.Context) {
	var req UseEncoderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.encoders.IsReady() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "encoder probe still running"})
		return
	}

	choice, err := h.encoders.Use(req.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, choice)
}
