package handlers

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/mediagrab-go/internal/app"
	"github.com/yourusername/mediagrab-go/internal/domain"
	"go.uber.org/zap"
)

// MediaHandler handles the base directory setting and metadata editing of
// downloaded files
type MediaHandler struct {
	folders  *app.FolderService
	metadata *app.MetadataService
	logger   *zap.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(folders *app.FolderService, metadata *app.MetadataService, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{
		folders:  folders,
		metadata: metadata,
		logger:   logger,
	}
}

// BaseDirRequest changes the base directory
type BaseDirRequest struct {
	Path string `json:"path"`
}

// TagsRequest writes tags to one file
type TagsRequest struct {
	Path   string `json:"path" binding:"required"`
	Mode   string `json:"mode"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
}

// RenameRequest renames files after their title tags. All editable files
// in the folder are renamed when Files is empty.
type RenameRequest struct {
	Folder string   `json:"folder"`
	Mode   string   `json:"mode"`
	Files  []string `json:"files,omitempty"`
	Artist string   `json:"artist"`
	Album  string   `json:"album"`
	Format string   `json:"format"`
}

// GetBaseDir handles GET /api/v1/settings/base-dir
func (h *MediaHandler) GetBaseDir(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"base_dir": h.folders.BaseDirectory()})
}

// SetBaseDir handles PUT /api/v1/settings/base-dir
func (h *MediaHandler) SetBaseDir(c *gin.Context) {
	var req BaseDirRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.folders.SetBaseDirectory(req.Path); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"base_dir": h.folders.BaseDirectory()})
}

// ListFiles handles GET /api/v1/folders/files
func (h *MediaHandler) ListFiles(c *gin.Context) {
	mode, err := app.ValidateMode(c.DefaultQuery("mode", string(domain.ModeAudio)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	folder := c.Query("path")
	files, err := h.folders.EditableFiles(folder, mode)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"path":  folder,
		"mode":  mode,
		"files": files,
	})
}

// GetTitle handles GET /api/v1/metadata/title
func (h *MediaHandler) GetTitle(c *gin.Context) {
	mode, err := app.ValidateMode(c.DefaultQuery("mode", string(domain.ModeAudio)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'path' is required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"path":  path,
		"title": h.metadata.Title(mode, path),
	})
}

// SetTags handles POST /api/v1/metadata/tags
func (h *MediaHandler) SetTags(c *gin.Context) {
	var req TagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mode, err := app.ValidateMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.metadata.ApplyTags(mode, req.Path, req.Title, req.Artist, req.Album); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Metadata saved for " + filepath.Base(req.Path)})
}

// Rename handles POST /api/v1/metadata/rename
func (h *MediaHandler) Rename(c *gin.Context) {
	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mode, err := app.ValidateMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	format, err := app.ParseFilenameFormat(req.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	files := req.Files
	if len(files) == 0 {
		files, err = h.folders.EditableFiles(req.Folder, mode)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
	} else if err := h.folders.ValidateEditingFolder(req.Folder); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	results := h.metadata.RenameFiles(mode, req.Folder, files, req.Artist, req.Album, format)
	h.logger.Info("Files renamed", zap.String("folder", req.Folder), zap.Int("count", len(results)))

	c.JSON(http.StatusOK, gin.H{
		"folder":  req.Folder,
		"results": results,
	})
}

// statusFor maps validation errors to 400 and anything else to 404, which is
// what a folder that cannot be read looks like to a client
func statusFor(err error) int {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	return http.StatusNotFound
}
