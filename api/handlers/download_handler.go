package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/mediagrab-go/internal/app"
	"github.com/yourusername/mediagrab-go/internal/domain"
	"go.uber.org/zap"
)

// DownloadHandler handles download-related HTTP requests
type DownloadHandler struct {
	controller *app.DownloadController
	board      *app.StatusBoard
	history    domain.HistoryRepository
	folders    *app.FolderService
	defaults   domain.DownloadConfig
	logger     *zap.Logger
}

// NewDownloadHandler creates a new download handler. history may be nil.
func NewDownloadHandler(
	controller *app.DownloadController,
	board *app.StatusBoard,
	history domain.HistoryRepository,
	folders *app.FolderService,
	defaults domain.DownloadConfig,
	logger *zap.Logger,
) *DownloadHandler {
	return &DownloadHandler{
		controller: controller,
		board:      board,
		history:    history,
		folders:    folders,
		defaults:   defaults,
		logger:     logger,
	}
}

// SubmitRequest represents a download submission
type SubmitRequest struct {
	URL         string `json:"url"`
	Mode        string `json:"mode"`
	Quality     string `json:"quality,omitempty"`
	Destination string `json:"destination,omitempty"`
}

// StatusResponse is the polled view of the controller
type StatusResponse struct {
	State domain.ControllerState `json:"state"`
	app.StatusSnapshot
}

// Submit handles POST /api/v1/downloads
func (h *DownloadHandler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.board.CanSubmit() {
		c.JSON(http.StatusConflict, gin.H{"error": app.ErrBusy.Error()})
		return
	}

	dreq := domain.DownloadRequest{
		URL:         req.URL,
		Mode:        domain.Mode(req.Mode),
		Quality:     req.Quality,
		Destination: req.Destination,
	}
	if dreq.Destination == "" && h.folders != nil {
		dreq.Destination = h.folders.BaseDirectory()
	}
	if dreq.Quality == "" {
		if mode, ok := domain.ParseMode(req.Mode); ok {
			dreq.Quality = h.defaultQuality(mode)
		}
	}

	err := h.controller.Submit(dreq, h.board)
	var verr *domain.ValidationError
	switch {
	case err == nil:
	case errors.Is(err, app.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
		return
	default:
		h.logger.Error("Failed to submit download", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, h.status())
}

func (h *DownloadHandler) defaultQuality(mode domain.Mode) string {
	if mode == domain.ModeAudio {
		return h.defaults.DefaultAudioQuality
	}
	return h.defaults.DefaultVideoQuality
}

// Cancel handles POST /api/v1/downloads/cancel
func (h *DownloadHandler) Cancel(c *gin.Context) {
	if !h.controller.Cancel() {
		c.JSON(http.StatusConflict, gin.H{"error": app.MsgNothingToCancel})
		return
	}
	c.JSON(http.StatusOK, h.status())
}

// Status handles GET /api/v1/downloads/status
func (h *DownloadHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.status())
}

func (h *DownloadHandler) status() StatusResponse {
	return StatusResponse{
		State:          h.controller.State(),
		StatusSnapshot: h.board.Snapshot(),
	}
}

// History handles GET /api/v1/downloads/history
func (h *DownloadHandler) History(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusOK, gin.H{"records": []*domain.DownloadRecord{}, "count": 0})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}

	records, err := h.history.FindRecent(limit)
	if err != nil {
		h.logger.Error("Failed to list history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"count":   len(records),
	})
}

// GetRecord handles GET /api/v1/downloads/history/:id
func (h *DownloadHandler) GetRecord(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "download not found"})
		return
	}

	record, err := h.history.FindByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "download not found"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// GetStats handles GET /api/v1/downloads/stats
func (h *DownloadHandler) GetStats(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusOK, &domain.HistoryStats{})
		return
	}

	stats, err := h.history.GetStats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
