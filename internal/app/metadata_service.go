package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yourusername/mediagrab-go/internal/domain"
	"go.uber.org/zap"
)

// FilenameFormat selects how RenameFiles builds new file names
type FilenameFormat int

const (
	FormatTitleArtist FilenameFormat = 1
	FormatTitleAlbum  FilenameFormat = 2
	FormatTitleOnly   FilenameFormat = 3
)

// ParseFilenameFormat accepts "title-artist", "title-album" or "title"
func ParseFilenameFormat(s string) (FilenameFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "title-artist", "1":
		return FormatTitleArtist, nil
	case "title-album", "2":
		return FormatTitleAlbum, nil
	case "title", "title-only", "3":
		return FormatTitleOnly, nil
	default:
		return 0, fmt.Errorf("unknown filename format: %s", s)
	}
}

// RenameOutcome is the result of renaming one file
type RenameOutcome string

const (
	RenameDone      RenameOutcome = "renamed"
	RenameSkipped   RenameOutcome = "skipped"
	RenameUnchanged RenameOutcome = "unchanged"
	RenameFailed    RenameOutcome = "failed"
)

// RenameResult reports what happened to one file
type RenameResult struct {
	File    string        `json:"file"`
	NewName string        `json:"new_name,omitempty"`
	Outcome RenameOutcome `json:"outcome"`
	Message string        `json:"message"`
}

// MetadataService edits tags of downloaded files and renames them from their titles
type MetadataService struct {
	store   domain.MetadataStore
	renamer domain.Renamer
	logger  *zap.Logger
}

// NewMetadataService creates a new metadata service
func NewMetadataService(store domain.MetadataStore, renamer domain.Renamer, logger *zap.Logger) *MetadataService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetadataService{store: store, renamer: renamer, logger: logger}
}

// Title returns the title tag of a file, or "" when it has none
func (s *MetadataService) Title(mode domain.Mode, path string) string {
	return s.store.GetTitle(path)
}

// ApplyTags writes title, artist and album to a file
func (s *MetadataService) ApplyTags(mode domain.Mode, path, title, artist, album string) error {
	var ok bool
	if mode == domain.ModeAudio {
		ok = s.store.SetAudioTags(path, title, artist, album)
	} else {
		ok = s.store.SetVideoTags(path, title, artist, album)
	}
	if !ok {
		return fmt.Errorf("Failed to save metadata for %s", filepath.Base(path))
	}
	s.logger.Info("Metadata saved", zap.String("path", path), zap.String("title", title))
	return nil
}

// RenameFiles renames each file in folder after its title tag. Files without
// a title are skipped, and a format whose field is empty leaves files alone.
func (s *MetadataService) RenameFiles(mode domain.Mode, folder string, files []string, artist, album string, format FilenameFormat) []RenameResult {
	results := make([]RenameResult, 0, len(files))
	ext := mode.Extension()

	for _, file := range files {
		path := filepath.Join(folder, file)
		title := strings.TrimSpace(s.Title(mode, path))
		if title == "" {
			results = append(results, RenameResult{
				File:    file,
				Outcome: RenameSkipped,
				Message: fmt.Sprintf("Skipped: %s (no title)", file),
			})
			continue
		}

		var newName string
		switch {
		case format == FormatTitleArtist && artist != "":
			newName = fmt.Sprintf("%s - %s.%s", title, artist, ext)
		case format == FormatTitleAlbum && album != "":
			newName = fmt.Sprintf("%s - %s.%s", title, album, ext)
		case format == FormatTitleOnly:
			newName = fmt.Sprintf("%s.%s", title, ext)
		default:
			results = append(results, RenameResult{File: file, Outcome: RenameUnchanged, Message: "Unchanged: " + file})
			continue
		}

		newPath, err := s.renamer.Rename(path, newName, folder)
		if err != nil {
			s.logger.Warn("Rename failed", zap.String("path", path), zap.Error(err))
			results = append(results, RenameResult{
				File:    file,
				NewName: newName,
				Outcome: RenameFailed,
				Message: fmt.Sprintf("Rename failed: %s - %v", file, err),
			})
			continue
		}

		finalName := filepath.Base(newPath)
		if newPath == path {
			results = append(results, RenameResult{File: file, NewName: finalName, Outcome: RenameUnchanged, Message: "Unchanged: " + file})
			continue
		}
		results = append(results, RenameResult{
			File:    file,
			NewName: finalName,
			Outcome: RenameDone,
			Message: fmt.Sprintf("Renamed: %s -> %s", file, finalName),
		})
	}
	return results
}
