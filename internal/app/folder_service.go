package app

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/yourusername/mediagrab-go/internal/domain"
	"go.uber.org/zap"
)

// Folder messages shown to the user
const (
	MsgFolderHasSubfolders = "Error: Folder contains Subfolders"
)

// FolderService owns the base download directory and lists media files for
// metadata editing. The base directory is persisted in the config file.
type FolderService struct {
	mu         sync.RWMutex
	config     *domain.Config
	configPath string
	logger     *zap.Logger
}

// NewFolderService creates a folder service. An empty configPath keeps
// changes in memory only.
func NewFolderService(config *domain.Config, configPath string, logger *zap.Logger) *FolderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FolderService{config: config, configPath: configPath, logger: logger}
}

// BaseDirectory returns the directory downloads go to by default
func (s *FolderService) BaseDirectory() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.Download.BaseDir
}

// SetBaseDirectory changes and persists the base directory. The directory
// must exist.
func (s *FolderService) SetBaseDirectory(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return &domain.ValidationError{Message: MsgFolderMissing}
	}
	abs, err := filepath.Abs(expandPath(path))
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("failed to access %s: %w", abs, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", abs)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.config.Download.BaseDir
	s.config.Download.BaseDir = abs
	if s.configPath != "" {
		if err := SaveConfig(s.config, s.configPath); err != nil {
			s.config.Download.BaseDir = previous
			return err
		}
	}
	s.logger.Info("Base directory changed", zap.String("path", abs))
	return nil
}

// ListMediaFiles returns the names of regular files in path with the mode's
// extension, sorted
func (s *FolderService) ListMediaFiles(path string, mode domain.Mode) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	suffix := "." + mode.Extension()
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), suffix) {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// ValidateEditingFolder rejects folders that contain subfolders
func (s *FolderService) ValidateEditingFolder(path string) error {
	if strings.TrimSpace(path) == "" {
		return &domain.ValidationError{Message: MsgFolderMissing}
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			return &domain.ValidationError{Message: MsgFolderHasSubfolders}
		}
	}
	return nil
}

// EditableFiles validates a folder for metadata editing and lists its files
func (s *FolderService) EditableFiles(path string, mode domain.Mode) ([]string, error) {
	if err := s.ValidateEditingFolder(path); err != nil {
		return nil, err
	}
	files, err := s.ListMediaFiles(path, mode)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("Error: No %s files found", strings.ToUpper(mode.Extension())),
		}
	}
	return files, nil
}
